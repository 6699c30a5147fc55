// Package cmd provides the CLI commands for the ashtanga practice journal.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/output"
	"github.com/ashtangalog/ashtanga/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
	flagDB     string
	flagConfig string
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// noContext lists commands that run without opening the local store.
var noContext = map[string]bool{
	"completion": true,
	"help":       true,
	"version":    true,
	"serve":      true,
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ashtanga",
	Short: "A practice journal for Ashtanga yoga",
	Long: `Ashtanga keeps a journal of your practice: time each session with a
live timer, log past sessions, and review streaks and statistics. Everything
is stored on this device; sign in to a sync backend to keep devices in step.

Examples:
  ashtanga start "Primary Mysore"
  ashtanga watch
  ashtanga end && ashtanga save --notes "Steady breath"
  ashtanga log --date yesterday --type 1 --duration 90
  ashtanga stats --heatmap`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath())
		if err != nil {
			return err
		}
		config.Global = cfg
		initLogging(cfg)

		if noContext[cmd.Name()] {
			return nil
		}

		var format output.Format
		switch flagFormat {
		case "json":
			format = output.FormatJSON
		case "plain":
			format = output.FormatPlain
		default:
			format = output.FormatCLI
		}

		var colorMode output.ColorMode
		switch flagColor {
		case "always":
			colorMode = output.ColorAlways
		case "never":
			colorMode = output.ColorNever
		default:
			colorMode = output.ColorAuto
		}
		if format == output.FormatPlain {
			colorMode = output.ColorNever
		}

		opts := runtime.DefaultOptions()
		opts.Config = cfg
		opts.Format = format
		opts.ColorMode = colorMode
		opts.Debug = flagDebug
		if flagDB != "" {
			opts.DBPath = flagDB
		}

		ctx, err = runtime.New(opts)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			err := ctx.Close()
			ctx = nil
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd, args)
	},
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultFilePath()
}

func initLogging(cfg *config.RuntimeConfig) {
	if flagDebug {
		logging.InitDebug()
		return
	}
	lc := logging.DefaultConfig()
	lc.JSON = cfg.Log.JSON
	lc.Level = logging.ParseLevel(cfg.Log.Level)
	logging.Init(lc)
}

// Execute runs the root command and reports any error in the selected format.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		report(err)
		if ctx != nil {
			ctx.Close()
			ctx = nil
		}
	}
	return err
}

// report prints err to stderr, or as a JSON error document on stdout.
func report(err error) {
	if flagFormat == "json" {
		f := output.NewJSONFormatter(output.NewFormatter())
		f.PrintError(errors.GetCategory(err).String(), err.Error(), errors.GetSuggestion(err))
		return
	}
	os.Stderr.WriteString("Error: " + errors.FormatByCategory(err) + "\n")
	if flagDebug {
		os.Stderr.WriteString(errors.FormatDebugError(err) + "\n")
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "",
		"Database directory (':memory:' for a throwaway store)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default "+config.DefaultFilePath()+")")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ashtanga %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}
