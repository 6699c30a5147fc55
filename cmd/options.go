package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
)

var optionFlagNotes string

var optionsCmd = &cobra.Command{
	Use:     "options",
	Aliases: []string{"opt"},
	Short:   "Manage practice options",
	Long: `Practice options are the session types offered by 'start'. Between 2 and
8 options are kept; the record type is the label followed by the notes.

Examples:
  ashtanga options
  ashtanga options add Intermediate --notes "Led Class"
  ashtanga options edit 7 Intermediate --notes Mysore
  ashtanga options delete 7`,
	Args: cobra.NoArgs,
	RunE: runOptionsList,
}

var optionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List practice options",
	Args:  cobra.NoArgs,
	RunE:  runOptionsList,
}

var optionsAddCmd = &cobra.Command{
	Use:   "add LABEL",
	Short: "Add a practice option",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptionsAdd,
}

var optionsEditCmd = &cobra.Command{
	Use:               "edit ID LABEL",
	Short:             "Change an option's label and notes",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeOptions,
	RunE:              runOptionsEdit,
}

var optionsDeleteCmd = &cobra.Command{
	Use:               "delete ID",
	Aliases:           []string{"rm"},
	Short:             "Delete a practice option",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeOptions,
	RunE:              runOptionsDelete,
}

func init() {
	optionsAddCmd.Flags().StringVarP(&optionFlagNotes, "notes", "n", "", "Option notes (e.g. Mysore)")
	optionsEditCmd.Flags().StringVarP(&optionFlagNotes, "notes", "n", "", "Option notes (e.g. Mysore)")

	optionsCmd.AddCommand(optionsListCmd, optionsAddCmd, optionsEditCmd, optionsDeleteCmd)
	rootCmd.AddCommand(optionsCmd)
}

func printOptions() error {
	opts, err := ctx.Journal.Options()
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(output.OptionsResponse{
			Options: opts,
			Full:    len(opts) >= model.MaxOptions,
			Max:     model.MaxOptions,
		})
	}
	display, err := ctx.Journal.DisplayOptions()
	if err != nil {
		return err
	}
	ctx.CLIFormatter().PrintOptions(display)
	return nil
}

func runOptionsList(cmd *cobra.Command, args []string) error {
	return printOptions()
}

func runOptionsAdd(cmd *cobra.Command, args []string) error {
	opt, err := ctx.Journal.AddOption(args[0], optionFlagNotes)
	if err != nil {
		return err
	}
	if !ctx.IsJSON() {
		ctx.CLIFormatter().Success("Added " + opt.TypeLabel())
	}
	return printOptions()
}

func runOptionsEdit(cmd *cobra.Command, args []string) error {
	opt, err := ctx.Journal.UpdateOption(args[0], args[1], optionFlagNotes)
	if err != nil {
		return err
	}
	if !ctx.IsJSON() {
		ctx.CLIFormatter().Success("Updated " + opt.TypeLabel())
	}
	return printOptions()
}

func runOptionsDelete(cmd *cobra.Command, args []string) error {
	if err := ctx.Journal.DeleteOption(args[0]); err != nil {
		return err
	}
	if !ctx.IsJSON() {
		ctx.CLIFormatter().Success("Option deleted")
	}
	return printOptions()
}
