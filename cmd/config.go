package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/errors"
)

var configFlagForce bool

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg"},
	Short:   "Show the effective configuration",
	Long: `Show the effective configuration: defaults, overlaid by the YAML config
file, overlaid by ASHTANGA_* environment variables.

Examples:
  ashtanga config
  ashtanga config path
  ashtanga config init`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]string{"path": configPath()})
		}
		ctx.Formatter.Println(configPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configFlagForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(ctx.Config)
	}
	data, err := ctx.Config.Marshal()
	if err != nil {
		return err
	}
	ctx.Formatter.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !configFlagForce {
		return errors.NewValidationErrorWithValue("config", path, "config file already exists", "Pass --force to overwrite it")
	}
	data, err := config.DefaultRuntimeConfig().Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]string{"status": "created", "path": path})
	}
	ctx.CLIFormatter().Success("Wrote " + path)
	return nil
}
