package timer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// Display renders a session as text for the live view.
type Display struct {
	UseColor bool
	// Target is the session length the progress bar fills toward. Zero hides the bar.
	Target time.Duration
}

// NewDisplay creates a display with color enabled and a 90 minute target.
func NewDisplay() *Display {
	return &Display{
		UseColor: true,
		Target:   90 * time.Minute,
	}
}

// Styles for the session display.
var (
	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")) // Purple

	runningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981")) // Green

	pausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B")) // Yellow

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")) // Blue

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")) // Gray

	hintStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6B7280")) // Gray
)

// FormatDuration formats a duration as MM:SS or HH:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatSeconds formats whole seconds like FormatDuration.
func FormatSeconds(s int) string {
	return FormatDuration(time.Duration(s) * time.Second)
}

func (d *Display) style(s lipgloss.Style, text string) string {
	if d.UseColor {
		return s.Render(text)
	}
	return text
}

func phaseHeader(phase model.TimerPhase) (string, lipgloss.Style) {
	switch phase {
	case model.PhaseRunning:
		return "PRACTICING", runningStyle
	case model.PhasePaused:
		return "PAUSED", pausedStyle
	case model.PhaseCompletionPending:
		return "COMPLETE", doneStyle
	default:
		return "IDLE", dimStyle
	}
}

// Render renders the state with the given elapsed seconds.
func (d *Display) Render(state model.TimerState, elapsed int) string {
	var b strings.Builder

	phase := state.Phase()
	header, hs := phaseHeader(phase)
	b.WriteString(d.style(hs, header))

	typeLabel := state.TypeLabel
	if state.Pending != nil {
		typeLabel = state.Pending.TypeLabel
	}
	if typeLabel != "" {
		b.WriteString(d.style(dimStyle, " "+typeLabel))
	}
	b.WriteString("\n\n")

	b.WriteString(d.style(clockStyle, FormatSeconds(elapsed)))
	b.WriteString("\n\n")

	if d.Target > 0 && phase != model.PhaseIdle {
		progress := float64(time.Duration(elapsed)*time.Second) / float64(d.Target)
		b.WriteString(d.style(dimStyle, renderProgressBar(progress, 30)))
		b.WriteString("\n\n")
	}

	var hint string
	switch phase {
	case model.PhaseRunning:
		hint = "Press SPACE to pause, E to end, Q to leave running"
	case model.PhasePaused:
		hint = "[PAUSED] Press SPACE to resume, E to end, Q to leave paused"
	case model.PhaseCompletionPending:
		hint = "Run 'ashtanga save' to log this practice or 'ashtanga discard' to drop it"
	default:
		hint = "Run 'ashtanga start' to begin"
	}
	b.WriteString(d.style(hintStyle, hint))
	return b.String()
}

// renderProgressBar creates a progress bar string.
func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("[%s] %d%%", bar, int(progress*100))
}

// RenderSaved renders the confirmation shown after a save.
func (d *Display) RenderSaved(rec *model.PracticeRecord) string {
	msg := fmt.Sprintf("Saved %s on %s (%s)", rec.Type, rec.Date, FormatSeconds(rec.Duration))
	out := d.style(doneStyle, msg)
	if rec.HasBreakthrough() {
		out += "\n" + d.style(runningStyle, "Breakthrough: "+rec.Breakthrough)
	}
	return out
}
