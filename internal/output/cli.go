package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/stats"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary   = lipgloss.Color("#B45309") // Saffron
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Yellow
	colorError     = lipgloss.Color("#EF4444") // Red
	colorSuccess   = lipgloss.Color("#10B981") // Green

	// Styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleType = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleBreakthrough = lipgloss.NewStyle().
				Foreground(colorSecondary)

	styleDuration = lipgloss.NewStyle().
			Bold(true)

	styleNote = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorMuted)

	// Heatmap shades, none to full.
	heatColors = []lipgloss.Color{"#3F3F46", "#FDE68A", "#FBBF24", "#D97706", "#92400E"}

	styleMoon = lipgloss.NewStyle().Foreground(lipgloss.Color("#A5B4FC"))
)

// heatGlyph is the character drawn per heatmap day.
const heatGlyph = "■"

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(s lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// TypeName formats a practice type.
func (c *CLIFormatter) TypeName(name string) string {
	return c.render(styleType, name)
}

// Duration formats a duration.
func (c *CLIFormatter) Duration(text string) string {
	return c.render(styleDuration, text)
}

// Note formats a note.
func (c *CLIFormatter) Note(text string) string {
	return c.render(styleNote, text)
}

// PrintRecord prints one record in full.
func (c *CLIFormatter) PrintRecord(r *model.PracticeRecord) {
	c.Printf("%s  %s\n", r.Date, c.TypeName(r.Type))
	c.Printf("  ID: %s\n", r.ID)
	c.Printf("  Duration: %s\n", c.Duration(FormatSeconds(r.Duration)))
	if r.Notes != "" {
		c.Printf("  Notes: %s\n", c.Note(r.Notes))
	}
	if r.HasBreakthrough() {
		c.Printf("  Breakthrough: %s\n", c.render(styleBreakthrough, r.Breakthrough))
	}
	for _, p := range r.Photos {
		c.Printf("  Photo: %s\n", p)
	}
	c.Printf("  Created: %s\n", FormatTimeShort(r.CreatedAt))
}

// PrintSaved prints the confirmation for a newly saved record.
func (c *CLIFormatter) PrintSaved(r *model.PracticeRecord) {
	c.Success(fmt.Sprintf("Saved %s on %s", FormatSeconds(r.Duration), r.Date))
	c.Printf("  %s\n", c.TypeName(r.Type))
	if r.Notes != "" {
		c.Printf("  %s\n", c.Note(r.Notes))
	}
}

// PrintRecords prints records as a table, newest first.
func (c *CLIFormatter) PrintRecords(recs []*model.PracticeRecord) {
	if len(recs) == 0 {
		c.Muted("No practice records yet.")
		c.Muted("Use 'ashtanga start' or 'ashtanga log' to add one.")
		return
	}
	rows := make([]TableRow, 0, len(recs))
	total := 0
	for _, r := range recs {
		mark := ""
		if r.HasBreakthrough() {
			mark = "★"
		}
		rows = append(rows, TableRow{Columns: []string{
			ShortID(r.ID), r.Date, r.Type, FormatSeconds(r.Duration), mark, Truncate(r.Notes, 40),
		}})
		total += r.Duration
	}
	c.PrintTable([]string{"ID", "DATE", "TYPE", "DURATION", "", "NOTES"}, rows)
	c.Println()
	c.Muted(fmt.Sprintf("%d sessions, %s total", len(recs), FormatSeconds(total)))
}

// PrintOptions prints the practice options with their positions.
// Synthetic entries are listed last without an id and are not counted.
func (c *CLIFormatter) PrintOptions(opts []*model.PracticeOption) {
	rows := make([]TableRow, 0, len(opts))
	persisted := 0
	for _, o := range opts {
		if o.IsSynthetic() {
			rows = append(rows, TableRow{Columns: []string{
				"+", "-", o.Label, "start --custom NAME", "",
			}})
			continue
		}
		persisted++
		kind := "default"
		if o.IsCustom {
			kind = "custom"
		}
		rows = append(rows, TableRow{Columns: []string{
			fmt.Sprintf("%d", persisted), o.ID, o.Label, o.Notes, kind,
		}})
	}
	c.PrintTable([]string{"#", "ID", "LABEL", "NOTES", "KIND"}, rows)
	c.Println()
	c.Muted(fmt.Sprintf("%d of %d options", persisted, model.MaxOptions))
}

// PrintProfile prints the local profile.
func (c *CLIFormatter) PrintProfile(p *model.UserProfile) {
	c.Title(p.Name)
	if p.Signature != "" {
		c.Println(c.Note(p.Signature))
	}
	if p.Email != "" {
		c.Printf("  Email: %s\n", p.Email)
	}
	if p.Avatar != "" {
		c.Printf("  Avatar: %s\n", c.render(styleMuted, fmt.Sprintf("set (%d bytes)", len(p.Avatar))))
	}
	c.Printf("  Since: %s\n", p.CreatedAt.Local().Format(model.DateLayout))
}

// PrintSyncStatus prints account and sync state.
func (c *CLIFormatter) PrintSyncStatus(m *model.SyncMeta, pending int) {
	if !m.SignedIn() {
		c.Muted("Not signed in. Local data is kept on this device only.")
		c.Muted("Use 'ashtanga account login' to enable sync.")
		return
	}
	c.Printf("Account: %s\n", logging.MaskEmail(m.Email))
	c.Printf("  Status: %s\n", c.syncStatus(m.Status))
	if m.LastSyncedAt != nil {
		c.Printf("  Last synced: %s\n", FormatTimeShort(*m.LastSyncedAt))
	}
	if m.LastError != "" {
		c.Printf("  Last error: %s\n", c.render(styleError, m.LastError))
	}
	if m.Conflict != nil {
		c.Warning(fmt.Sprintf("Conflict: %d local records vs %d remote records",
			m.Conflict.LocalCount, m.Conflict.RemoteCount))
		c.Muted("Resolve with 'ashtanga sync resolve use-remote|use-local|merge'.")
	}
	if n := len(m.FailedIDs) + pending; n > 0 {
		c.Printf("  Waiting to upload: %d\n", n)
	}
}

func (c *CLIFormatter) syncStatus(s model.SyncStatus) string {
	switch s {
	case model.SyncSuccess:
		return c.render(styleSuccess, string(s))
	case model.SyncError:
		return c.render(styleError, string(s))
	case model.SyncConflict:
		return c.render(styleWarning, string(s))
	default:
		return string(s)
	}
}

// PrintSyncLog prints the sync diagnostic log, newest first.
func (c *CLIFormatter) PrintSyncLog(entries []model.SyncLogEntry) {
	if len(entries) == 0 {
		c.Muted("Sync log is empty.")
		return
	}
	for _, e := range entries {
		mark := c.render(styleSuccess, "✓")
		if !e.Success {
			mark = c.render(styleError, "✗")
		}
		line := fmt.Sprintf("%s %s %s", mark, FormatTime(e.At), e.Action)
		if e.RecordID != "" {
			line += " " + ShortID(e.RecordID)
		}
		if e.Error != "" {
			line += ": " + e.Error
		}
		c.Println(line)
	}
}

// PrintStats prints a statistics summary.
func (c *CLIFormatter) PrintStats(s stats.Summary) {
	c.Title("Practice Statistics")
	c.Println()
	c.Printf("Sessions:        %d\n", s.Total.Sessions)
	c.Printf("Practice days:   %d\n", s.Total.Days)
	c.Printf("Total time:      %s\n", c.Duration(FormatMinutes(s.Total.TotalMinutes)))
	c.Printf("Average session: %s\n", FormatMinutes(s.Total.AverageMinutes))
	c.Printf("This month:      %d days, %s\n", s.Month.Days, FormatMinutes(s.Month.TotalMinutes))
	c.Printf("Current streak:  %d days\n", s.CurrentStreak)
	c.Printf("Longest streak:  %d days\n", s.LongestStreak)
	c.Printf("Breakthroughs:   %d\n", s.Breakthroughs)

	if len(s.ByType) == 0 {
		return
	}
	c.Println()
	c.Println(c.render(styleBold, "By type"))
	var total int
	for _, t := range s.ByType {
		total += t.Seconds
	}
	for _, t := range s.ByType {
		pct := 0.0
		if total > 0 {
			pct = float64(t.Seconds) / float64(total) * 100
		}
		c.Printf("  %-28s %s %5.1f%%  %s (%d)\n",
			Truncate(t.Type, 28), ProgressBar(pct, 20), pct, FormatSeconds(t.Seconds), t.Sessions)
	}
}

// PrintHeatmap prints heatmap cells as weekly columns, Monday on top.
func (c *CLIFormatter) PrintHeatmap(cells []stats.Cell) {
	if len(cells) == 0 {
		return
	}
	c.Printf("%s to %s\n", cells[0].Date, cells[len(cells)-1].Date)

	weeks := HeatmapGrid(cells)
	days := []string{"Mon", "   ", "Wed", "   ", "Fri", "   ", "Sun"}
	for row := 0; row < 7; row++ {
		var sb strings.Builder
		sb.WriteString(days[row])
		sb.WriteString(" ")
		for _, week := range weeks {
			cell := week[row]
			if cell == nil {
				sb.WriteString("  ")
				continue
			}
			sb.WriteString(c.dayGlyph(cell))
			sb.WriteString(" ")
		}
		c.Println(strings.TrimRight(sb.String(), " "))
	}

	var legend strings.Builder
	legend.WriteString("    less ")
	for level := stats.LevelNone; level <= stats.LevelFull; level++ {
		legend.WriteString(c.heat(level))
		legend.WriteString(" ")
	}
	legend.WriteString("more")
	c.Println(legend.String())

	moons := stats.MoonDays(cells[0].Date, cells[len(cells)-1].Date)
	if len(moons) == 0 {
		return
	}
	parts := make([]string, 0, len(moons))
	for _, m := range moons {
		parts = append(parts, c.moon(m.Phase)+" "+m.Date+" "+m.Phase)
	}
	c.Println("Moon days: " + strings.Join(parts, ", "))
}

// dayGlyph draws a practiced day by intensity and an unpracticed moon day
// by its phase.
func (c *CLIFormatter) dayGlyph(cell *stats.Cell) string {
	if cell.Level == stats.LevelNone && cell.Moon != "" {
		return c.moon(cell.Moon)
	}
	return c.heat(cell.Level)
}

func (c *CLIFormatter) moon(phase string) string {
	if !c.IsColorEnabled() {
		if phase == stats.MoonFull {
			return "O"
		}
		return "o"
	}
	if phase == stats.MoonFull {
		return styleMoon.Render("●")
	}
	return styleMoon.Render("○")
}

func (c *CLIFormatter) heat(level int) string {
	if !c.IsColorEnabled() {
		return string(" .:*#"[level])
	}
	return lipgloss.NewStyle().Foreground(heatColors[level]).Render(heatGlyph)
}

// HeatmapGrid lays cells out as weeks of seven days starting on Monday.
// Days outside the range are nil.
func HeatmapGrid(cells []stats.Cell) [][7]*stats.Cell {
	var weeks [][7]*stats.Cell
	var week [7]*stats.Cell
	started := false
	for i := range cells {
		row := weekdayRow(cells[i].Date)
		if started && row == 0 {
			weeks = append(weeks, week)
			week = [7]*stats.Cell{}
		}
		week[row] = &cells[i]
		started = true
	}
	if started {
		weeks = append(weeks, week)
	}
	return weeks
}

// weekdayRow maps a YYYY-MM-DD day to its row, Monday = 0.
func weekdayRow(date string) int {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return 0
	}
	return (int(t.Weekday()) + 6) % 7
}

// ProgressBar creates a simple progress bar.
func ProgressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	return strings.Repeat("█", filled) + strings.Repeat("░", empty)
}

// ShortID returns the first eight characters of an id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Truncate shortens s to max runes, ending with an ellipsis.
func Truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// Table helpers for CLI output.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && lipgloss.Width(col) > widths[i] {
				widths[i] = lipgloss.Width(col)
			}
		}
	}

	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(pad(h, widths[i]))
	}
	c.Println(c.render(styleBold, strings.TrimRight(headerLine.String(), " ")))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var rowLine strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				rowLine.WriteString(pad(col, widths[i]))
			}
		}
		c.Println(strings.TrimRight(rowLine.String(), " "))
	}
}

// pad left-aligns s in a column of width w plus a two-space gutter.
func pad(s string, w int) string {
	return s + strings.Repeat(" ", w-lipgloss.Width(s)+2)
}
