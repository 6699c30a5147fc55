// Package config provides centralized configuration for ashtanga runtime values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// InMemoryDatabase is the database path that selects an in-memory store.
const InMemoryDatabase = ":memory:"

// RuntimeConfig holds every tunable limit, timeout and address of the system.
type RuntimeConfig struct {
	// Local storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Cloud client configuration
	Cloud CloudConfig `yaml:"cloud"`

	// Sync engine bounds
	Sync SyncConfig `yaml:"sync"`

	// Photo and avatar limits
	Photo PhotoConfig `yaml:"photo"`

	// Reference backend configuration
	Server ServerConfig `yaml:"server"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// StorageConfig holds storage-related configuration.
type StorageConfig struct {
	// DatabasePath overrides the badger directory. Empty uses the XDG data dir.
	DatabasePath string `yaml:"database_path"`

	// MinFreeSpace is the minimum free space required for export writes.
	// Default: 10MB
	MinFreeSpace uint64 `yaml:"min_free_space"`

	// MinFreeSpaceWarning is the threshold for warning about low disk space.
	// Default: 50MB
	MinFreeSpaceWarning uint64 `yaml:"min_free_space_warning"`
}

// CloudConfig holds cloud client configuration.
type CloudConfig struct {
	// BaseURL of the sync backend. Empty disables every account feature.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request HTTP timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of attempts for idempotent calls.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// RetryDelays are the delays before each attempt.
	// Default: [0s, 1s, 3s]
	RetryDelays []time.Duration `yaml:"retry_delays"`

	// DeviceName is reported on sign-in. Empty uses the hostname.
	DeviceName string `yaml:"device_name"`
}

// SyncConfig bounds the sync engine's diagnostic state.
type SyncConfig struct {
	// MirrorTimeout caps one best-effort mirror write.
	// Default: 15s
	MirrorTimeout time.Duration `yaml:"mirror_timeout"`

	// MaxFailedIDs caps the failed sync id list.
	// Default: 100
	MaxFailedIDs int `yaml:"max_failed_ids"`

	// MaxLogEntries caps the sync log.
	// Default: 50
	MaxLogEntries int `yaml:"max_log_entries"`

	// MaxLogBytes is the encoded size above which the log is cut to TruncatedLogEntries.
	// Default: 100KB
	MaxLogBytes int `yaml:"max_log_bytes"`

	// TruncatedLogEntries is how many entries survive an oversize log.
	// Default: 20
	TruncatedLogEntries int `yaml:"truncated_log_entries"`

	// ErrorTruncate caps the length of a logged error message.
	// Default: 200
	ErrorTruncate int `yaml:"error_truncate"`

	// MaxExportLogEntries caps the export log.
	// Default: 20
	MaxExportLogEntries int `yaml:"max_export_log_entries"`
}

// PhotoConfig holds photo upload and avatar limits.
type PhotoConfig struct {
	// MaxBytes is the largest accepted photo.
	// Default: 5MB
	MaxBytes int64 `yaml:"max_bytes"`

	// AvatarMaxDimension is the longest side of a stored avatar.
	// Default: 200
	AvatarMaxDimension int `yaml:"avatar_max_dimension"`

	// AvatarQuality is the JPEG quality of a stored avatar.
	// Default: 85
	AvatarQuality int `yaml:"avatar_quality"`
}

// ServerConfig holds reference backend configuration.
type ServerConfig struct {
	// ListenAddr is the HTTP listen address.
	// Default: 127.0.0.1:8787
	ListenAddr string `yaml:"listen_addr"`

	// DatabasePath is the sqlite file. Empty uses the XDG data dir.
	DatabasePath string `yaml:"database_path"`

	// SessionSecret signs session cookies. Empty generates a random secret at startup.
	SessionSecret string `yaml:"session_secret"`

	// SessionMaxAge is the session cookie lifetime.
	// Default: 30 days
	SessionMaxAge time.Duration `yaml:"session_max_age"`

	// UploadDir stores uploaded photos. Empty uses the XDG data dir.
	UploadDir string `yaml:"upload_dir"`

	// PublicBaseURL prefixes returned photo URLs. Empty derives it from the request.
	PublicBaseURL string `yaml:"public_base_url"`

	// GinMode is gin's run mode (debug, release, test).
	// Default: release
	GinMode string `yaml:"gin_mode"`

	// CodeTTL is how long a verification code stays valid.
	// Default: 5m
	CodeTTL time.Duration `yaml:"code_ttl"`

	// ExposeCodes returns verification codes in the response body instead of
	// mailing them. Only for local development.
	ExposeCodes bool `yaml:"expose_codes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// JSON switches to JSON output.
	JSON bool `yaml:"json"`
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Storage: StorageConfig{
			MinFreeSpace:        10 * 1024 * 1024, // 10MB
			MinFreeSpaceWarning: 50 * 1024 * 1024, // 50MB
		},
		Cloud: CloudConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelays: []time.Duration{
				0,
				1 * time.Second,
				3 * time.Second,
			},
		},
		Sync: SyncConfig{
			MirrorTimeout:       15 * time.Second,
			MaxFailedIDs:        100,
			MaxLogEntries:       50,
			MaxLogBytes:         100 * 1024,
			TruncatedLogEntries: 20,
			ErrorTruncate:       200,
			MaxExportLogEntries: 20,
		},
		Photo: PhotoConfig{
			MaxBytes:           5 * 1024 * 1024,
			AvatarMaxDimension: 200,
			AvatarQuality:      85,
		},
		Server: ServerConfig{
			ListenAddr:    "127.0.0.1:8787",
			SessionMaxAge: 30 * 24 * time.Hour,
			GinMode:       "release",
			CodeTTL:       5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Global holds the global runtime configuration instance.
// It is initialized with defaults and environment overrides; the CLI replaces
// it with the result of Load once the config file is known.
var Global = initGlobal()

func initGlobal() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()
	return cfg
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			*dst = d
		}
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// loadFromEnv loads configuration overrides from environment variables.
func (c *RuntimeConfig) loadFromEnv() {
	// Storage
	envString("ASHTANGA_DATABASE", &c.Storage.DatabasePath)
	if v := os.Getenv("ASHTANGA_MIN_FREE_SPACE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Storage.MinFreeSpace = n
		}
	}

	// Cloud
	envString("ASHTANGA_CLOUD_URL", &c.Cloud.BaseURL)
	envDuration("ASHTANGA_HTTP_TIMEOUT", &c.Cloud.Timeout)
	envInt("ASHTANGA_HTTP_MAX_RETRIES", &c.Cloud.MaxRetries)
	envString("ASHTANGA_DEVICE_NAME", &c.Cloud.DeviceName)

	// Sync
	envDuration("ASHTANGA_MIRROR_TIMEOUT", &c.Sync.MirrorTimeout)
	envInt("ASHTANGA_MAX_FAILED_IDS", &c.Sync.MaxFailedIDs)

	// Server
	envString("ASHTANGA_SERVER_ADDR", &c.Server.ListenAddr)
	envString("ASHTANGA_SERVER_DATABASE", &c.Server.DatabasePath)
	envString("ASHTANGA_SESSION_SECRET", &c.Server.SessionSecret)
	envString("ASHTANGA_UPLOAD_DIR", &c.Server.UploadDir)
	envString("ASHTANGA_PUBLIC_URL", &c.Server.PublicBaseURL)
	envString("ASHTANGA_GIN_MODE", &c.Server.GinMode)
	envBool("ASHTANGA_EXPOSE_CODES", &c.Server.ExposeCodes)

	// Log
	if v := os.Getenv("ASHTANGA_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	envBool("ASHTANGA_LOG_JSON", &c.Log.JSON)
}

// Reset resets the configuration to defaults.
// This is primarily useful for testing.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}

// InMemory reports whether the local store should live only in memory.
func (c *RuntimeConfig) InMemory() bool {
	return c.Storage.DatabasePath == InMemoryDatabase
}

// CloudEnabled reports whether a sync backend is configured.
func (c *RuntimeConfig) CloudEnabled() bool {
	return strings.TrimSpace(c.Cloud.BaseURL) != ""
}
