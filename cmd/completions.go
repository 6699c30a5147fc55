package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
)

// completeOptions completes practice option ids, described by their type.
func completeOptions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if ctx == nil || ctx.Journal == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	opts, err := ctx.Journal.Options()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, o := range opts {
		if strings.HasPrefix(o.ID, toComplete) {
			completions = append(completions, o.ID+"\t"+o.TypeLabel())
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeRecords completes record ids, newest first.
func completeRecords(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if ctx == nil || ctx.Journal == nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	recs, err := ctx.Journal.FindRecords(toComplete)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	completions := make([]string, 0, len(recs))
	for _, r := range recs {
		completions = append(completions, r.ID+"\t"+recordHint(r))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func recordHint(r *model.PracticeRecord) string {
	return r.Date + " " + r.Type + " " + output.FormatSeconds(r.Duration)
}

// completeRanges completes the period names understood by --period.
func completeRanges(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ranges := []string{
		"today\ttoday's practice",
		"yesterday\tyesterday's practice",
		"this week\tsince Monday",
		"last week\tthe previous week",
		"this month\tthe current month",
		"last month\tthe previous month",
		"this year\tthe current year",
	}

	var filtered []string
	for _, r := range ranges {
		if strings.HasPrefix(strings.Split(r, "\t")[0], toComplete) {
			filtered = append(filtered, r)
		}
	}
	return filtered, cobra.ShellCompDirectiveNoFileComp
}

// completeConflictChoices completes sync resolve choices.
func completeConflictChoices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{
		string(model.ChoiceUseRemote) + "\treplace local data with the cloud copy",
		string(model.ChoiceUseLocal) + "\treplace the cloud copy with local data",
		string(model.ChoiceMerge) + "\tkeep both, newest edit wins",
	}, cobra.ShellCompDirectiveNoFileComp
}
