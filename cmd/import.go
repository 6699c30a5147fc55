package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/journal"
)

// Import command flags.
var (
	importFlagDryRun bool
	importFlagYes    bool
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:     "import [FILE|-]",
	Aliases: []string{"restore"},
	Short:   "Replace your journal with an exported snapshot",
	Long: `Import a JSON snapshot written by 'export'. The snapshot replaces every
record, option and the profile on this device; nothing changes if it is invalid.
Read from stdin when FILE is '-' or omitted.

Examples:
  ashtanga import backup.json
  ashtanga import backup.json --dry-run
  cat backup.json | ashtanga import --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importFlagDryRun, "dry-run", false, "Validate and preview without changing anything")
	importCmd.Flags().BoolVarP(&importFlagYes, "yes", "y", false, "Replace existing data without asking")

	rootCmd.AddCommand(importCmd)
}

func readImport(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, errors.NewValidationErrorWithValue("file", args[0], "cannot read snapshot", err.Error())
	}
	return data, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := readImport(args)
	if err != nil {
		return err
	}

	snap, err := journal.ParseSnapshot(data)
	if err != nil {
		return err
	}
	if err := journal.ValidateSnapshot(snap); err != nil {
		return err
	}

	if importFlagDryRun {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().JSON(map[string]any{
				"status":  "valid",
				"records": len(snap.Records),
				"options": len(snap.Options),
			})
		}
		cli := ctx.CLIFormatter()
		cli.Success("Snapshot is valid")
		cli.Printf("  Records: %d\n", len(snap.Records))
		cli.Printf("  Options: %d\n", len(snap.Options))
		return nil
	}

	existing, err := ctx.Journal.RecordCount()
	if err != nil {
		return err
	}
	// stdin is taken by the snapshot when reading from a pipe.
	fromStdin := len(args) == 0 || args[0] == "-"
	if existing > 0 && !importFlagYes {
		if fromStdin || ctx.IsJSON() {
			return errors.NewValidationError("import",
				fmt.Sprintf("this would replace %d existing records", existing), "Pass --yes to confirm")
		}
		ok, err := confirm(fmt.Sprintf("Replace %d existing records with %d from the snapshot?", existing, len(snap.Records)))
		if err != nil {
			return err
		}
		if !ok {
			ctx.CLIFormatter().Muted("Cancelled")
			return nil
		}
	}

	n, err := ctx.Journal.ImportSnapshot(data)
	if err != nil {
		return err
	}
	uploaded, uploadErr := uploadImport()

	if ctx.IsJSON() {
		out := map[string]any{"status": "imported", "records": n, "uploaded": uploaded}
		if uploadErr != nil {
			out["upload_error"] = uploadErr.Error()
		}
		return ctx.JSONFormatter().JSON(out)
	}
	cli := ctx.CLIFormatter()
	cli.Success(fmt.Sprintf("Imported %d records", n))
	switch {
	case uploadErr != nil:
		cli.Warning("Account not updated: " + errors.FormatByCategory(uploadErr))
		cli.Muted("Run 'ashtanga sync'; if it reports a conflict, resolve it with use-local.")
	case uploaded:
		cli.Success("Account updated with the imported journal")
	}
	return nil
}

// uploadImport replaces the account's copy with the imported journal when
// signed in. The mirror skips whole-dataset swaps.
func uploadImport() (bool, error) {
	if ctx.Reconciler == nil {
		return false, nil
	}
	meta, err := ctx.Reconciler.Meta()
	if err != nil || !meta.SignedIn() {
		return false, err
	}
	snap, err := ctx.Journal.Snapshot()
	if err != nil {
		return false, err
	}
	if err := ctx.Cloud.ReplaceAll(ctx.Ctx(), snap); err != nil {
		return false, err
	}
	return true, nil
}
