package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
)

// clearPhrase must be typed to confirm a full wipe.
const clearPhrase = "delete my data"

var clearFlagConfirm string

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record, option and your profile",
	Long: `Delete all journal data on this device and restore the default options
and profile. When signed in, the account's data on the backend is deleted too
and this device is signed out.

You are asked to type "` + clearPhrase + `"; pass it with --confirm in scripts.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().StringVar(&clearFlagConfirm, "confirm", "", "The confirmation phrase")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	phrase := clearFlagConfirm
	if phrase == "" && !ctx.IsJSON() {
		ctx.CLIFormatter().Warning("This permanently deletes your practice journal.")
		var err error
		if phrase, err = prompt(`Type "` + clearPhrase + `" to continue`); err != nil {
			return err
		}
	}
	if phrase != clearPhrase {
		return errors.NewValidationError("confirm", "confirmation phrase does not match",
			`Type exactly "`+clearPhrase+`"`)
	}

	remote := false
	if ctx.Reconciler != nil {
		meta, err := ctx.Reconciler.Meta()
		if err != nil {
			return err
		}
		if meta.SignedIn() {
			ctx.Reconciler.Wait()
			if err := ctx.Cloud.DeleteAccountData(ctx.Ctx()); err != nil {
				return errors.Wrap(err, "delete account data")
			}
			remote = true
			if err := ctx.Account.SignOut(ctx.Ctx()); err != nil {
				logging.Warn("sign-out after clear failed", logging.KeyError, err)
			}
		}
	}

	if err := ctx.Journal.ClearAll(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(map[string]any{"status": "cleared", "remote": remote})
	}
	cli := ctx.CLIFormatter()
	cli.Success("All local data deleted")
	if remote {
		cli.Success("Account data deleted and signed out")
	}
	return nil
}
