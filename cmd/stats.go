package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/parser"
	"github.com/ashtangalog/ashtanga/internal/stats"
)

// Stats command flags.
var (
	statsFlagHeatmap bool
	statsFlagPeriod  string
	statsFlagFrom    string
	statsFlagTo      string
	statsFlagWeeks   int
	statsFlagOffset  int
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"stat"},
	Short:   "Show practice statistics",
	Long: `Show practice statistics: sessions, practice days, total and average
minutes, streaks, breakthroughs and time per practice type.

With --heatmap a calendar of daily practice time is drawn instead. Without a
range it covers the last 12 weeks; --offset steps back in windows of that size.
New and full moon days, the traditional rest days, are marked on the grid.

Examples:
  ashtanga stats
  ashtanga stats --period "this year"
  ashtanga stats --heatmap
  ashtanga stats --heatmap --weeks 26 --offset 1
  ashtanga stats --heatmap --from 2026-01-01 --to 2026-03-31`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsFlagHeatmap, "heatmap", false, "Draw a practice heatmap")
	statsCmd.Flags().StringVarP(&statsFlagPeriod, "period", "p", "", "Period such as 'this month'")
	statsCmd.Flags().StringVar(&statsFlagFrom, "from", "", "First day to include")
	statsCmd.Flags().StringVar(&statsFlagTo, "to", "", "Last day to include")
	statsCmd.Flags().IntVar(&statsFlagWeeks, "weeks", 12, "Heatmap length in weeks")
	statsCmd.Flags().IntVar(&statsFlagOffset, "offset", 0, "Heatmap windows to step back")
	statsCmd.RegisterFlagCompletionFunc("period", completeRanges)

	rootCmd.AddCommand(statsCmd)
}

// statsRange resolves --period, --from and --to. Empty bounds are open.
func statsRange() (from, to string, err error) {
	now := ctx.Now()
	if statsFlagPeriod != "" {
		r, err := parser.ParseRange(statsFlagPeriod, now)
		if err != nil {
			return "", "", parseFailure(err)
		}
		from, to = r.From, r.To
	}
	if statsFlagFrom != "" {
		if from, err = parser.ParseDate(statsFlagFrom, now); err != nil {
			return "", "", parseFailure(err)
		}
	}
	if statsFlagTo != "" {
		if to, err = parser.ParseDate(statsFlagTo, now); err != nil {
			return "", "", parseFailure(err)
		}
	}
	return from, to, nil
}

func runStats(cmd *cobra.Command, args []string) error {
	from, to, err := statsRange()
	if err != nil {
		return err
	}
	recs, err := ctx.Journal.Records()
	if err != nil {
		return err
	}

	if statsFlagHeatmap {
		return runHeatmap(recs, from, to)
	}

	var inRange []*model.PracticeRecord
	for _, r := range recs {
		if (from == "" || r.Date >= from) && (to == "" || r.Date <= to) {
			inRange = append(inRange, r)
		}
	}
	summary := stats.Compute(inRange, ctx.Today())

	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(summary)
	}
	ctx.CLIFormatter().PrintStats(summary)
	return nil
}

func runHeatmap(recs []*model.PracticeRecord, from, to string) error {
	if from == "" || to == "" {
		wf, wt, err := stats.Window(ctx.Today(), statsFlagWeeks*7, statsFlagOffset)
		if err != nil {
			return err
		}
		if from == "" {
			from = wf
		}
		if to == "" {
			to = wt
		}
	}
	cells, err := stats.Heatmap(recs, from, to)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(map[string]any{
			"from":      from,
			"to":        to,
			"cells":     cells,
			"moon_days": stats.MoonDays(from, to),
		})
	}
	ctx.CLIFormatter().PrintHeatmap(cells)
	return nil
}
