package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "ashtanga"

// DefaultFilePath returns the config file location under XDG_CONFIG_HOME.
func DefaultFilePath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists) and ASHTANGA_* environment variables, in that order.
func Load(path string) (*RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.loadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that would break invariants elsewhere.
func (c *RuntimeConfig) Validate() error {
	switch {
	case c.Sync.MaxLogEntries < c.Sync.TruncatedLogEntries:
		return fmt.Errorf("sync.max_log_entries (%d) must be >= sync.truncated_log_entries (%d)",
			c.Sync.MaxLogEntries, c.Sync.TruncatedLogEntries)
	case c.Photo.MaxBytes <= 0:
		return fmt.Errorf("photo.max_bytes must be positive")
	case c.Photo.AvatarMaxDimension <= 0:
		return fmt.Errorf("photo.avatar_max_dimension must be positive")
	case c.Cloud.MaxRetries < 1:
		return fmt.Errorf("cloud.max_retries must be at least 1")
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *RuntimeConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
