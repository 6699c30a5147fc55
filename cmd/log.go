package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/parser"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// Log command flags.
var (
	logFlagDate         string
	logFlagType         string
	logFlagDuration     string
	logFlagNotes        string
	logFlagBreakthrough string
	logFlagPhotos       []string
)

// logCmd adds a past practice session.
var logCmd = &cobra.Command{
	Use:     "log",
	Aliases: []string{"l", "add"},
	Short:   "Log a past practice session",
	Long: `Log a practice session that was not timed.

The date may be ISO (2026-03-01) or natural language ("yesterday",
"last friday", "3 days ago") and must not be in the future. The type is an
option id, a full type ("Primary Mysore") or any free text.

Duration formats:
  90         90 minutes
  1h30m      1 hour 30 minutes
  1:30       1 hour 30 minutes
  75 min     75 minutes

Examples:
  ashtanga log --type 1 --duration 90
  ashtanga log --date yesterday --type "Primary Led Class" --duration 1h15m
  ashtanga log --date 2026-03-01 --type 2 --duration 95 --breakthrough "Bound in Supta K"`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().StringVarP(&logFlagDate, "date", "d", "today", "Practice day")
	logCmd.Flags().StringVarP(&logFlagType, "type", "t", "", "Practice option or type (required)")
	logCmd.Flags().StringVar(&logFlagDuration, "duration", "", "Session length (required)")
	logCmd.Flags().StringVarP(&logFlagNotes, "notes", "n", "", "Practice notes")
	logCmd.Flags().StringVarP(&logFlagBreakthrough, "breakthrough", "b", "", "Milestone reached")
	logCmd.Flags().StringArrayVar(&logFlagPhotos, "photo", nil, "Photo to attach (repeatable)")
	logCmd.MarkFlagRequired("type")
	logCmd.MarkFlagRequired("duration")
	logCmd.RegisterFlagCompletionFunc("type", completeOptions)

	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	now := ctx.Now()
	date, err := parser.ParseDate(logFlagDate, now)
	if err != nil {
		return parseFailure(err)
	}
	if err := validate.PracticeDate(date, now); err != nil {
		return err
	}

	seconds, err := parser.ParseDuration(logFlagDuration)
	if err != nil {
		return parseFailure(err)
	}
	if err := validate.EnteredDuration(seconds); err != nil {
		return err
	}

	typ, err := resolveType(logFlagType)
	if err != nil {
		return err
	}

	photos, err := uploadPhotos(logFlagPhotos, date)
	if err != nil {
		return err
	}

	rec, err := ctx.Journal.AddRecord(journal.RecordInput{
		Date:         date,
		Type:         typ,
		Duration:     seconds,
		Notes:        logFlagNotes,
		Breakthrough: logFlagBreakthrough,
		Photos:       photos,
	})
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintRecord("logged", rec)
	}
	ctx.CLIFormatter().PrintSaved(rec)
	return nil
}

// resolveType maps an option reference to its type label. Anything that is
// not an option is taken as free text.
func resolveType(ref string) (string, error) {
	opt, err := ctx.Journal.ResolveOption(ref)
	switch {
	case err == nil:
		return opt.TypeLabel(), nil
	case errors.IsNotFoundError(err):
		return validate.SanitizeLabel(ref), nil
	default:
		return "", err
	}
}

// parseFailure turns a parser error into a validation error carrying examples.
func parseFailure(err error) error {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.ToValidationError()
	}
	return err
}
