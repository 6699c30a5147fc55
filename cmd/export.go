package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
	"github.com/ashtangalog/ashtanga/internal/storage"
)

// Export command flags.
var (
	exportFlagFormat string
	exportFlagOutput string
	exportFlagLog    bool
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"backup", "dump"},
	Short:   "Export your journal",
	Long: `Export the journal. The JSON format is a complete snapshot (records,
options and profile) that 'import' restores. The HTML format is a readable
journal page with notes rendered as markdown.

Examples:
  ashtanga export -o backup.json
  ashtanga export --format html -o journal.html
  ashtanga export --log`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlagFormat, "format", "F", "json", "Export format: json, html")
	exportCmd.Flags().StringVarP(&exportFlagOutput, "output", "o", "", "Output file (stdout if omitted)")
	exportCmd.Flags().BoolVar(&exportFlagLog, "log", false, "Show recent export attempts")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFlagLog {
		return printExportLog()
	}

	var buf bytes.Buffer
	records, err := renderExport(&buf, exportFlagFormat)
	if err != nil {
		return err
	}

	entry := model.ExportLogEntry{
		At:          ctx.Now(),
		Format:      exportFlagFormat,
		Destination: exportFlagOutput,
		Records:     records,
		Bytes:       buf.Len(),
	}
	if entry.Destination == "" {
		entry.Destination = "stdout"
	}

	err = writeExport(buf.Bytes())
	entry.Success = err == nil
	if err != nil {
		entry.Error = err.Error()
	}
	if logErr := ctx.Journal.LogExport(entry); logErr != nil {
		ctx.Debugf("export log not written: %v", logErr)
	}
	if err != nil {
		return err
	}

	if exportFlagOutput != "" {
		if ctx.IsJSON() {
			return ctx.JSONFormatter().JSON(entry)
		}
		ctx.CLIFormatter().Success(fmt.Sprintf("Exported %d records to %s", records, exportFlagOutput))
	}
	return nil
}

// renderExport writes the export document to w and returns its record count.
func renderExport(w io.Writer, format string) (int, error) {
	switch format {
	case "json":
		snap, err := ctx.Journal.Snapshot()
		if err != nil {
			return 0, err
		}
		data, err := ctx.Journal.ExportSnapshot()
		if err != nil {
			return 0, err
		}
		_, err = w.Write(data)
		return len(snap.Records), err
	case "html":
		profile, err := ctx.Journal.Profile()
		if err != nil {
			return 0, err
		}
		recs, err := ctx.Journal.Records()
		if err != nil {
			return 0, err
		}
		return len(recs), output.WriteHTML(w, profile, recs, ctx.Now())
	default:
		return 0, errors.NewValidationErrorWithValue("format", format, "unknown export format", "Use json or html")
	}
}

func writeExport(data []byte) error {
	if exportFlagOutput == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := storage.SafeWrite(exportFlagOutput, data, 0o600); err != nil {
		if errors.IsDiskFull(err) {
			return errors.NewStorageError("write export", errors.ErrDiskFull)
		}
		return errors.Wrapf(err, "write %s", exportFlagOutput)
	}
	return nil
}

func printExportLog() error {
	entries, err := ctx.Journal.ExportLog()
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		if entries == nil {
			entries = []model.ExportLogEntry{}
		}
		return ctx.JSONFormatter().JSON(entries)
	}
	cli := ctx.CLIFormatter()
	if len(entries) == 0 {
		cli.Muted("No exports yet")
		return nil
	}
	rows := make([]output.TableRow, 0, len(entries))
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = output.Truncate(e.Error, 40)
		}
		rows = append(rows, output.TableRow{Columns: []string{
			output.FormatTime(e.At), e.Format, e.Destination,
			fmt.Sprintf("%d", e.Records), fmt.Sprintf("%d", e.Bytes), result,
		}})
	}
	cli.PrintTable([]string{"WHEN", "FORMAT", "TO", "RECORDS", "BYTES", "RESULT"}, rows)
	return nil
}
