package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/timer"
)

type fakeSession struct {
	state   model.TimerState
	elapsed int
	err     error
}

func (f *fakeSession) State() model.TimerState { return f.state }
func (f *fakeSession) Elapsed() int            { return f.elapsed }

func (f *fakeSession) Pause() error {
	if f.err != nil {
		return f.err
	}
	f.state.IsPaused = true
	return nil
}

func (f *fakeSession) Resume() error {
	f.state.IsPaused = false
	return nil
}

func (f *fakeSession) Finish() (*model.Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &model.Completion{Elapsed: f.elapsed, OptionID: f.state.OptionID, TypeLabel: f.state.TypeLabel}
	f.state = model.TimerState{Pending: c}
	return c, nil
}

func running() *fakeSession {
	start := int64(1)
	return &fakeSession{
		state:   model.TimerState{IsPracticing: true, StartTime: &start, OptionID: "1", TypeLabel: "Primary Mysore"},
		elapsed: 125,
	}
}

var fixedNow = func() time.Time { return time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC) }

func newModel(s Controller) *WatchModel {
	return NewWatchModel(WatchConfig{
		Session: s,
		Display: &timer.Display{},
		Now:     fixedNow,
		Today: func() ([]*model.PracticeRecord, error) {
			return []*model.PracticeRecord{{Type: "Half Standing+Rest", Duration: 1800}}, nil
		},
	})
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWatchSamplesOnCreate(t *testing.T) {
	m := newModel(running())
	assert.Equal(t, model.PhaseRunning, m.state.Phase())
	assert.Equal(t, 125, m.elapsed)
}

func TestWatchTogglePause(t *testing.T) {
	s := running()
	m := newModel(s)

	m.Update(key(" "))
	assert.Equal(t, model.PhasePaused, m.state.Phase())

	m.Update(key(" "))
	assert.Equal(t, model.PhaseRunning, m.state.Phase())
}

func TestWatchPauseErrorShown(t *testing.T) {
	s := running()
	s.err = errors.New("disk full")
	m := newModel(s)

	m.Update(key("p"))
	assert.Contains(t, m.View(), "Error: disk full")
}

func TestWatchEndQuits(t *testing.T) {
	s := running()
	m := newModel(s)

	_, cmd := m.Update(key("e"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	c := m.Completion()
	require.NotNil(t, c)
	assert.Equal(t, 125, c.Elapsed)
	assert.Equal(t, model.PhaseCompletionPending, m.state.Phase())
}

func TestWatchQuitLeavesSession(t *testing.T) {
	s := running()
	m := newModel(s)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Nil(t, m.Completion())
	assert.Equal(t, model.PhaseRunning, s.state.Phase())
}

func TestWatchIdleSpaceShowsMessage(t *testing.T) {
	m := newModel(&fakeSession{})
	m.Update(key(" "))
	assert.Contains(t, m.View(), "No session in progress")
}

func TestWatchTickResamples(t *testing.T) {
	s := running()
	m := newModel(s)
	s.elapsed = 200
	_, cmd := m.Update(tickMsg(fixedNow()))
	assert.NotNil(t, cmd)
	assert.Equal(t, 200, m.elapsed)
}

func TestWatchView(t *testing.T) {
	m := newModel(running())
	m.Update(refreshMsg{})
	view := m.View()

	assert.Contains(t, view, "Ashtanga Practice")
	assert.Contains(t, view, "PRACTICING")
	assert.Contains(t, view, "02:05")
	assert.Contains(t, view, "Half Standing+Rest")
	assert.Contains(t, view, "pause")
}

func TestHelpBar(t *testing.T) {
	assert.Contains(t, HelpBar(model.PhasePaused), "resume")
	assert.NotContains(t, HelpBar(model.PhaseIdle), "pause")
}

func TestTodayComponentEmpty(t *testing.T) {
	tc := &TodayComponent{Width: 60}
	assert.Contains(t, tc.View(), "No sessions saved today")
}
