package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/cloudsync"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
)

var syncLogFlagClear bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with your account",
	Long: `Run a sync pass against the backend.

When this device and the account hold different sets of records, nothing is
changed and the conflict is kept until you resolve it:

  use-remote   replace local data with the account's copy
  use-local    replace the account's copy with local data
  merge        keep both; for the same record the newest edit wins

Examples:
  ashtanga sync
  ashtanga sync resolve merge
  ashtanga sync retry
  ashtanga sync log`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a sync pass",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var syncResolveCmd = &cobra.Command{
	Use:               "resolve CHOICE",
	Short:             "Resolve a sync conflict",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeConflictChoices,
	RunE:              runSyncResolve,
}

var syncRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Upload changes that failed to sync",
	Args:  cobra.NoArgs,
	RunE:  runSyncRetry,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ctx.RequireCloud(); err != nil {
			return err
		}
		return printSyncStatus()
	},
}

var syncLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the sync diagnostic log",
	Args:  cobra.NoArgs,
	RunE:  runSyncLog,
}

func init() {
	syncLogCmd.Flags().BoolVar(&syncLogFlagClear, "clear", false, "Empty the log")

	syncCmd.AddCommand(syncRunCmd, syncResolveCmd, syncRetryCmd, syncStatusCmd, syncLogCmd)
	rootCmd.AddCommand(syncCmd)
}

func printSyncStatus() error {
	meta, err := ctx.Reconciler.Meta()
	if err != nil {
		return err
	}
	pending, err := ctx.Reconciler.Pending()
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(output.NewSyncStatusResponse(meta, len(pending)))
	}
	ctx.CLIFormatter().PrintSyncStatus(meta, len(pending))
	return nil
}

func printSyncResult(res *cloudsync.Result) {
	cli := ctx.CLIFormatter()
	switch res.Outcome {
	case cloudsync.OutcomeUploaded:
		cli.Success(fmt.Sprintf("Uploaded %d records", res.Uploaded))
	case cloudsync.OutcomePulled:
		cli.Success(fmt.Sprintf("Downloaded %d records", res.Pulled))
	case cloudsync.OutcomeInSync:
		cli.Success("Already in sync")
	case cloudsync.OutcomeMerged:
		cli.Success(fmt.Sprintf("Synced: %d sent, %d received", res.Uploaded, res.Pulled))
	case cloudsync.OutcomeResolved:
		cli.Success(fmt.Sprintf("Conflict resolved: %d sent, %d received", res.Uploaded, res.Pulled))
	}
	if res.Retried > 0 {
		cli.Muted(fmt.Sprintf("Retried %d earlier changes", res.Retried))
	}
}

func printConflictHint(c *errors.ConflictError) {
	cli := ctx.CLIFormatter()
	cli.Warning(fmt.Sprintf("This device has %d records, your account has %d. Nothing was changed.",
		c.LocalCount, c.RemoteCount))
	cli.Muted("Resolve with 'ashtanga sync resolve use-remote|use-local|merge'.")
}

// finishSync prints a pass result. A conflict is a normal outcome, not a failure.
func finishSync(res *cloudsync.Result, err error) error {
	conflict, isConflict := errors.AsConflictError(err)
	if err != nil && !isConflict {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(res)
	}
	if isConflict {
		printConflictHint(conflict)
		return nil
	}
	printSyncResult(res)
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := requireSignedIn(); err != nil {
		return err
	}
	res, err := ctx.Reconciler.Sync(ctx.Ctx())
	return finishSync(res, err)
}

func runSyncResolve(cmd *cobra.Command, args []string) error {
	if err := requireSignedIn(); err != nil {
		return err
	}
	choice, ok := model.ParseConflictChoice(args[0])
	if !ok {
		return errors.NewValidationErrorWithValue("choice", args[0], "unknown resolution",
			"Use one of: use-remote, use-local, merge")
	}
	if choice == model.ChoiceUseRemote && !ctx.IsJSON() {
		ok, err := confirm("Replace every record on this device with the account's copy?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.CLIFormatter().Muted("Cancelled")
			return nil
		}
	}
	res, err := ctx.Reconciler.Resolve(ctx.Ctx(), choice)
	return finishSync(res, err)
}

func runSyncRetry(cmd *cobra.Command, args []string) error {
	if err := requireSignedIn(); err != nil {
		return err
	}
	n, err := ctx.Reconciler.RetryPending(ctx.Ctx())
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(map[string]any{"status": "ok", "retried": n})
	}
	if n == 0 {
		ctx.CLIFormatter().Muted("Nothing waiting to upload")
		return nil
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Uploaded %d waiting changes", n))
	return nil
}

func runSyncLog(cmd *cobra.Command, args []string) error {
	if err := ctx.RequireCloud(); err != nil {
		return err
	}
	if syncLogFlagClear {
		if err := ctx.Reconciler.ClearLogs(); err != nil {
			return err
		}
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintOK("cleared", "sync log cleared")
		}
		ctx.CLIFormatter().Success("Sync log cleared")
		return nil
	}
	entries, err := ctx.Reconciler.Logs()
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		if entries == nil {
			entries = []model.SyncLogEntry{}
		}
		return ctx.JSONFormatter().JSON(entries)
	}
	ctx.CLIFormatter().PrintSyncLog(entries)
	return nil
}
