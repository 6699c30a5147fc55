package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/media"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
	"github.com/ashtangalog/ashtanga/internal/timer"
	"github.com/ashtangalog/ashtanga/internal/tui"
)

// Session command flags.
var (
	startFlagCustom string
	startFlagNotes  string

	endFlagYes bool

	saveFlagNotes        string
	saveFlagBreakthrough string
	saveFlagPhotos       []string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session timer",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var startCmd = &cobra.Command{
	Use:     "start [OPTION]",
	Aliases: []string{"s"},
	Short:   "Start a practice session",
	Long: `Start a practice session with one of your practice options.

OPTION is an option id, its full type ("Primary Mysore") or an unambiguous
label. Use --custom to start with a new type; it is saved as an option while
fewer than 8 exist and used once otherwise.

Examples:
  ashtanga start 1
  ashtanga start "Second Led Class"
  ashtanga start --custom "Intermediate" --notes "Led"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ctx.Timer.Pause(); err != nil {
			return err
		}
		return printTimer("Paused")
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ctx.Timer.Resume(); err != nil {
			return err
		}
		return printTimer("Resumed")
	},
}

var endCmd = &cobra.Command{
	Use:     "end",
	Aliases: []string{"stop", "finish"},
	Short:   "Finish the session and wait for save",
	Long: `Finish the running or paused session. The elapsed time is frozen until
you save or discard it.

With --yes the session is saved immediately with default notes.`,
	Args: cobra.NoArgs,
	RunE: runEnd,
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the finished session as a record",
	Long: `Save the finished session. Empty notes become "` + model.DefaultNotes + `".

Photos are uploaded to the sync backend when signed in.

Examples:
  ashtanga save --notes "Smooth vinyasa"
  ashtanga save --breakthrough "First Marichyasana D bind" --photo mari-d.jpg`,
	Args: cobra.NoArgs,
	RunE: runSave,
}

var discardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Discard the finished session without saving",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ctx.Timer.Discard(); err != nil {
			return err
		}
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintOK("discarded", "session discarded")
		}
		ctx.CLIFormatter().Muted("Session discarded")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Live view of the session timer",
	Long: `Open a live view of the session timer.

Keys: space/p pause or resume, e end the session, r refresh, q quit.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	startCmd.Flags().StringVar(&startFlagCustom, "custom", "", "Start with a custom practice type")
	startCmd.Flags().StringVar(&startFlagNotes, "notes", "", "Notes of the custom type (e.g. Mysore)")
	startCmd.ValidArgsFunction = completeOptions

	endCmd.Flags().BoolVarP(&endFlagYes, "yes", "y", false, "Save immediately with default notes")

	saveCmd.Flags().StringVarP(&saveFlagNotes, "notes", "n", "", "Practice notes")
	saveCmd.Flags().StringVarP(&saveFlagBreakthrough, "breakthrough", "b", "", "Milestone reached in this session")
	saveCmd.Flags().StringArrayVar(&saveFlagPhotos, "photo", nil, "Photo to attach (repeatable)")

	rootCmd.AddCommand(statusCmd, startCmd, pauseCmd, resumeCmd, endCmd, saveCmd, discardCmd, watchCmd)
}

func display() *timer.Display {
	d := timer.NewDisplay()
	d.UseColor = ctx.Formatter.IsColorEnabled()
	return d
}

func printTimer(verb string) error {
	st := ctx.Timer.State()
	elapsed := ctx.Timer.Elapsed()
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTimer(st, elapsed)
	}
	if verb != "" {
		ctx.CLIFormatter().Success(verb)
	}
	ctx.Formatter.Println(display().Render(st, elapsed))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	return printTimer("")
}

func runStart(cmd *cobra.Command, args []string) error {
	// refuse before a --custom option gets saved
	if ctx.Timer.Phase() != model.PhaseIdle {
		return errors.Refusal(errors.ErrTimerNotIdle)
	}
	opt, saved, err := startOption(args)
	if err != nil {
		return err
	}
	if err := ctx.Timer.Start(opt); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return printTimer("")
	}
	cli := ctx.CLIFormatter()
	if startFlagCustom != "" && !saved {
		cli.Warning(fmt.Sprintf("Options are full (%d); %q is used for this session only", model.MaxOptions, opt.TypeLabel()))
	}
	return printTimer("Started " + opt.TypeLabel())
}

func startOption(args []string) (*model.PracticeOption, bool, error) {
	switch {
	case startFlagCustom != "" && len(args) > 0:
		return nil, false, errors.NewValidationError("option", "choose an option or --custom, not both", "")
	case startFlagCustom != "":
		return ctx.Journal.AddOrEphemeral(startFlagCustom, startFlagNotes)
	case len(args) == 0:
		return nil, false, errors.Refusal(errors.ErrNoOptionSelected)
	}
	opt, err := ctx.Journal.ResolveOption(args[0])
	return opt, true, err
}

func runEnd(cmd *cobra.Command, args []string) error {
	if _, err := ctx.Timer.Finish(); err != nil {
		return err
	}
	if endFlagYes {
		return saveSession(timer.SaveInput{})
	}
	if ctx.IsJSON() {
		return printTimer("")
	}
	if err := printTimer("Session finished"); err != nil {
		return err
	}
	ctx.CLIFormatter().Muted("Run 'ashtanga save' to keep it or 'ashtanga discard' to drop it.")
	return nil
}

func runSave(cmd *cobra.Command, args []string) error {
	pending := ctx.Timer.Pending()
	if pending == nil {
		return errors.Refusal(errors.ErrNoPendingCompletion)
	}
	date := pending.EndedAt.In(ctx.Now().Location()).Format(model.DateLayout)
	photos, err := uploadPhotos(saveFlagPhotos, date)
	if err != nil {
		return err
	}
	return saveSession(timer.SaveInput{
		Notes:        saveFlagNotes,
		Breakthrough: saveFlagBreakthrough,
		Photos:       photos,
	})
}

func saveSession(in timer.SaveInput) error {
	rec, err := ctx.Timer.Save(in)
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintRecord("saved", rec)
	}
	ctx.Formatter.Println(display().RenderSaved(rec))
	return nil
}

// uploadPhotos validates each file and uploads it to the backend, returning
// the public URLs. Photos need a signed-in account.
func uploadPhotos(paths []string, date string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if err := requireSignedIn(); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.NewValidationErrorWithValue("photo", p, "cannot read photo", err.Error())
		}
		info, err := media.ValidatePhoto(data, ctx.Config.Photo.MaxBytes)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)) + info.Extension
		resp, err := ctx.Cloud.UploadPhoto(ctx.Ctx(), name, info.ContentType, date, data)
		if err != nil {
			return nil, err
		}
		ctx.Debugf("uploaded photo %s to %s", p, resp.Path)
		urls = append(urls, resp.URL)
	}
	return urls, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ctx.IsJSON() {
		return printTimer("")
	}
	completion, err := tui.Run(tui.WatchConfig{
		Session: ctx.Timer,
		Today:   todayRecords,
		Display: display(),
		Now:     ctx.Now,
	})
	if err != nil {
		return err
	}
	if completion != nil {
		cli := ctx.CLIFormatter()
		cli.Success(fmt.Sprintf("Finished %s after %s", completion.TypeLabel, output.FormatSeconds(completion.Elapsed)))
		cli.Muted("Run 'ashtanga save' to keep it or 'ashtanga discard' to drop it.")
	}
	return nil
}

func todayRecords() ([]*model.PracticeRecord, error) {
	recs, err := ctx.Journal.Records()
	if err != nil {
		return nil, err
	}
	today := ctx.Today()
	var out []*model.PracticeRecord
	for _, r := range recs {
		if r.Date == today {
			out = append(out, r)
		}
	}
	return out, nil
}
