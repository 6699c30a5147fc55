package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/parser"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// Records command flags.
var (
	recordsFlagPeriod string
	recordsFlagFrom   string
	recordsFlagTo     string
	recordsFlagType   string
	recordsFlagLimit  int

	editFlagDate         string
	editFlagType         string
	editFlagDuration     string
	editFlagNotes        string
	editFlagBreakthrough string
	editFlagPhotos       []string
	editFlagClearPhotos  bool

	deleteFlagYes bool
)

var recordsCmd = &cobra.Command{
	Use:     "records",
	Aliases: []string{"r", "ls"},
	Short:   "List and manage practice records",
	Long: `List practice records, newest first.

Examples:
  ashtanga records
  ashtanga records --period "last month"
  ashtanga records --from 2026-01-01 --to 2026-01-31 --type Primary
  ashtanga records show 01929c
  ashtanga records edit 01929c --notes "Knee felt fine"
  ashtanga records delete 01929c`,
	Args: cobra.NoArgs,
	RunE: runRecordsList,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List practice records",
	Args:  cobra.NoArgs,
	RunE:  runRecordsList,
}

var recordsShowCmd = &cobra.Command{
	Use:               "show ID",
	Short:             "Show one record",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRecords,
	RunE:              runRecordsShow,
}

var recordsEditCmd = &cobra.Command{
	Use:               "edit ID",
	Short:             "Edit a record",
	Long:              `Edit a record. Only the flags given are changed.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRecords,
	RunE:              runRecordsEdit,
}

var recordsDeleteCmd = &cobra.Command{
	Use:               "delete ID",
	Aliases:           []string{"rm"},
	Short:             "Delete a record",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRecords,
	RunE:              runRecordsDelete,
}

func init() {
	for _, c := range []*cobra.Command{recordsCmd, recordsListCmd} {
		c.Flags().StringVarP(&recordsFlagPeriod, "period", "p", "", "Period such as 'this week' or 'last month'")
		c.Flags().StringVar(&recordsFlagFrom, "from", "", "First day to include")
		c.Flags().StringVar(&recordsFlagTo, "to", "", "Last day to include")
		c.Flags().StringVarP(&recordsFlagType, "type", "t", "", "Only records of this type or label")
		c.Flags().IntVarP(&recordsFlagLimit, "limit", "n", 0, "Show at most this many records")
		c.RegisterFlagCompletionFunc("period", completeRanges)
	}

	recordsEditCmd.Flags().StringVarP(&editFlagDate, "date", "d", "", "New practice day")
	recordsEditCmd.Flags().StringVarP(&editFlagType, "type", "t", "", "New practice type")
	recordsEditCmd.Flags().StringVar(&editFlagDuration, "duration", "", "New session length")
	recordsEditCmd.Flags().StringVarP(&editFlagNotes, "notes", "n", "", "New notes")
	recordsEditCmd.Flags().StringVarP(&editFlagBreakthrough, "breakthrough", "b", "", "New breakthrough (empty clears it)")
	recordsEditCmd.Flags().StringArrayVar(&editFlagPhotos, "photo", nil, "Photo to add (repeatable)")
	recordsEditCmd.Flags().BoolVar(&editFlagClearPhotos, "clear-photos", false, "Remove all photos")
	recordsEditCmd.RegisterFlagCompletionFunc("type", completeOptions)

	recordsDeleteCmd.Flags().BoolVarP(&deleteFlagYes, "yes", "y", false, "Skip the confirmation prompt")

	recordsCmd.AddCommand(recordsListCmd, recordsShowCmd, recordsEditCmd, recordsDeleteCmd)
	rootCmd.AddCommand(recordsCmd)
}

// findRecord resolves a full id or an unambiguous id prefix.
func findRecord(ref string) (*model.PracticeRecord, error) {
	matches, err := ctx.Journal.FindRecords(ref)
	if err != nil {
		return nil, err
	}
	for _, r := range matches {
		if r.ID == ref {
			return r, nil
		}
	}
	switch len(matches) {
	case 0:
		return nil, errors.NewNotFoundError("record", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, errors.NewValidationErrorWithValue("id", ref,
			fmt.Sprintf("%d records match this prefix", len(matches)), "Use more characters of the id")
	}
}

// recordFilter builds the list filter from the flags.
func recordFilter() (func(*model.PracticeRecord) bool, error) {
	now := ctx.Now()
	from, to := "", ""
	if recordsFlagPeriod != "" {
		r, err := parser.ParseRange(recordsFlagPeriod, now)
		if err != nil {
			return nil, parseFailure(err)
		}
		from, to = r.From, r.To
	}
	if recordsFlagFrom != "" {
		d, err := parser.ParseDate(recordsFlagFrom, now)
		if err != nil {
			return nil, parseFailure(err)
		}
		from = d
	}
	if recordsFlagTo != "" {
		d, err := parser.ParseDate(recordsFlagTo, now)
		if err != nil {
			return nil, parseFailure(err)
		}
		to = d
	}
	typ := recordsFlagType
	return func(r *model.PracticeRecord) bool {
		if from != "" && r.Date < from {
			return false
		}
		if to != "" && r.Date > to {
			return false
		}
		if typ != "" && !validate.SameLabel(r.Type, typ) && !hasLabel(r.Type, typ) {
			return false
		}
		return true
	}, nil
}

// hasLabel reports whether a record type starts with the given option label.
func hasLabel(recordType, label string) bool {
	fr, fl := validate.FoldKey(recordType), validate.FoldKey(label)
	return len(fr) > len(fl) && fr[:len(fl)] == fl && fr[len(fl)] == ' '
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	keep, err := recordFilter()
	if err != nil {
		return err
	}
	all, err := ctx.Journal.Records()
	if err != nil {
		return err
	}
	var recs []*model.PracticeRecord
	for _, r := range all {
		if keep(r) {
			recs = append(recs, r)
		}
	}
	if recordsFlagLimit > 0 && len(recs) > recordsFlagLimit {
		recs = recs[:recordsFlagLimit]
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintRecords(recs)
	}
	ctx.CLIFormatter().PrintRecords(recs)
	return nil
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	rec, err := findRecord(args[0])
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintRecord("ok", rec)
	}
	ctx.CLIFormatter().PrintRecord(rec)
	return nil
}

func runRecordsEdit(cmd *cobra.Command, args []string) error {
	rec, err := findRecord(args[0])
	if err != nil {
		return err
	}

	var patch journal.RecordPatch
	flags := cmd.Flags()
	now := ctx.Now()
	if flags.Changed("date") {
		date, err := parser.ParseDate(editFlagDate, now)
		if err != nil {
			return parseFailure(err)
		}
		if err := validate.PracticeDate(date, now); err != nil {
			return err
		}
		patch.Date = &date
	}
	if flags.Changed("type") {
		typ, err := resolveType(editFlagType)
		if err != nil {
			return err
		}
		patch.Type = &typ
	}
	if flags.Changed("duration") {
		seconds, err := parser.ParseDuration(editFlagDuration)
		if err != nil {
			return parseFailure(err)
		}
		if err := validate.EnteredDuration(seconds); err != nil {
			return err
		}
		patch.Duration = &seconds
	}
	if flags.Changed("notes") {
		patch.Notes = &editFlagNotes
	}
	if flags.Changed("breakthrough") {
		patch.Breakthrough = &editFlagBreakthrough
	}
	if editFlagClearPhotos {
		patch.Photos = []string{}
	}
	if len(editFlagPhotos) > 0 {
		date := rec.Date
		if patch.Date != nil {
			date = *patch.Date
		}
		urls, err := uploadPhotos(editFlagPhotos, date)
		if err != nil {
			return err
		}
		if !editFlagClearPhotos {
			urls = append(append([]string{}, rec.Photos...), urls...)
		}
		patch.Photos = urls
	}
	if patch.Empty() {
		return errors.NewValidationError("edit", "nothing to change",
			"Pass at least one of --date, --type, --duration, --notes, --breakthrough, --photo")
	}

	updated, err := ctx.Journal.UpdateRecord(rec.ID, patch)
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintRecord("updated", updated)
	}
	cli := ctx.CLIFormatter()
	cli.Success("Record updated")
	cli.PrintRecord(updated)
	return nil
}

func runRecordsDelete(cmd *cobra.Command, args []string) error {
	rec, err := findRecord(args[0])
	if err != nil {
		return err
	}
	if !deleteFlagYes && !ctx.IsJSON() {
		ok, err := confirm(fmt.Sprintf("Delete %s?", recordHint(rec)))
		if err != nil {
			return err
		}
		if !ok {
			ctx.CLIFormatter().Muted("Cancelled")
			return nil
		}
	}
	if err := ctx.Journal.DeleteRecord(rec.ID); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintOK("deleted", rec.ID)
	}
	ctx.CLIFormatter().Success("Record deleted")
	return nil
}
