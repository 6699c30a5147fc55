package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
	"github.com/ashtangalog/ashtanga/internal/timer"
)

// SessionComponent displays the live session clock.
type SessionComponent struct {
	State   model.TimerState
	Elapsed int
	Width   int
	Display *timer.Display
}

// View renders the session component.
func (sc *SessionComponent) View() string {
	d := sc.Display
	if d == nil {
		d = timer.NewDisplay()
	}
	box := sessionBox(sc.State.Phase())
	if sc.Width > 4 {
		box = box.Width(sc.Width - 4)
	}
	return box.Render(d.Render(sc.State, sc.Elapsed))
}

func sessionBox(phase model.TimerPhase) lipgloss.Style {
	switch phase {
	case model.PhaseRunning:
		return StyleActiveSessionBox
	case model.PhasePaused:
		return StylePausedSessionBox
	default:
		return StyleSessionBox
	}
}

// TodayComponent lists the sessions already saved today.
type TodayComponent struct {
	Records []*model.PracticeRecord
	Width   int
}

// View renders today's sessions.
func (tc *TodayComponent) View() string {
	var content strings.Builder
	content.WriteString(StyleTitle.Render("Today"))
	content.WriteString("\n\n")

	if len(tc.Records) == 0 {
		content.WriteString(StyleSubtitle.Render("No sessions saved today"))
	} else {
		total := 0
		for _, r := range tc.Records {
			content.WriteString(fmt.Sprintf("%s  %s\n",
				StyleType.Render(r.Type),
				StyleDuration.Render(output.FormatSeconds(r.Duration))))
			total += r.Duration
		}
		content.WriteString("\n")
		content.WriteString(StyleSubtitle.Render(fmt.Sprintf("%d sessions, %s", len(tc.Records), output.FormatSeconds(total))))
	}

	box := StyleTodayBox
	if tc.Width > 4 {
		box = box.Width(tc.Width - 4)
	}
	return box.Render(content.String())
}

// HelpBar renders the keyboard shortcuts.
func HelpBar(phase model.TimerPhase) string {
	type key struct {
		key  string
		desc string
	}
	var keys []key
	switch phase {
	case model.PhaseRunning:
		keys = []key{{"space", "pause"}, {"e", "end"}}
	case model.PhasePaused:
		keys = []key{{"space", "resume"}, {"e", "end"}}
	}
	keys = append(keys, key{"r", "refresh"}, key{"q", "quit"})

	var parts []string
	for _, k := range keys {
		part := StyleHelpKey.Render(k.key) + " " + StyleHelpDesc.Render(k.desc)
		parts = append(parts, part)
	}

	return StyleHelp.Render(strings.Join(parts, "  •  "))
}
