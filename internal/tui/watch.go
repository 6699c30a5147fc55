package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/timer"
)

// tickMsg is sent when the clock ticks.
type tickMsg time.Time

// refreshMsg is sent when today's records need reloading.
type refreshMsg struct{}

// Controller is the part of the session timer the live view drives.
type Controller interface {
	State() model.TimerState
	Elapsed() int
	Pause() error
	Resume() error
	Finish() (*model.Completion, error)
}

// WatchConfig holds configuration for the live view.
type WatchConfig struct {
	Session Controller
	// Today loads the records saved today. Optional.
	Today           func() ([]*model.PracticeRecord, error)
	Display         *timer.Display
	RefreshInterval time.Duration
	Now             func() time.Time
}

// WatchModel is the bubbletea model for the live timer.
type WatchModel struct {
	session Controller
	today   func() ([]*model.PracticeRecord, error)
	display *timer.Display
	now     func() time.Time

	state   model.TimerState
	elapsed int
	records []*model.PracticeRecord

	// UI state
	width      int
	err        error
	message    string
	messageExp time.Time

	refreshInterval time.Duration
	completion      *model.Completion
}

// NewWatchModel creates a new live view model.
func NewWatchModel(config WatchConfig) *WatchModel {
	if config.RefreshInterval == 0 {
		config.RefreshInterval = time.Second
	}
	if config.Display == nil {
		config.Display = timer.NewDisplay()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	m := &WatchModel{
		session:         config.Session,
		today:           config.Today,
		display:         config.Display,
		now:             config.Now,
		refreshInterval: config.RefreshInterval,
	}
	m.sample()
	return m
}

// Completion returns the finished session when the user ended it from the view.
func (m *WatchModel) Completion() *model.Completion {
	return m.completion
}

// Init initializes the model.
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.refreshCmd())
}

// Update handles messages and updates the model.
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && m.now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		m.sample()
		return m, m.tickCmd()

	case refreshMsg:
		m.loadToday()
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input.
func (m *WatchModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case " ", "p":
		var err error
		switch m.state.Phase() {
		case model.PhaseRunning:
			err = m.session.Pause()
		case model.PhasePaused:
			err = m.session.Resume()
		default:
			m.setMessage("No session in progress", 2*time.Second)
			return m, nil
		}
		m.err = err
		m.sample()
		return m, nil

	case "e":
		c, err := m.session.Finish()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.completion = c
		m.sample()
		return m, tea.Quit

	case "r":
		m.loadToday()
		m.setMessage("Refreshed", time.Second)
		return m, nil
	}

	return m, nil
}

// View renders the live view.
func (m *WatchModel) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())

	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	session := &SessionComponent{State: m.state, Elapsed: m.elapsed, Width: m.width, Display: m.display}
	sections = append(sections, session.View())

	if m.today != nil {
		today := &TodayComponent{Records: m.records, Width: m.width}
		sections = append(sections, today.View())
	}

	sections = append(sections, HelpBar(m.state.Phase()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the view header.
func (m *WatchModel) renderHeader() string {
	title := StyleTitle.Render("Ashtanga Practice")
	now := StyleSubtitle.Render(m.now().Format("Mon Jan 2, 15:04:05"))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", now) + "\n"
}

// sample reads the session state and elapsed seconds.
func (m *WatchModel) sample() {
	m.state = m.session.State()
	if m.state.Pending != nil {
		m.elapsed = m.state.Pending.Elapsed
		return
	}
	m.elapsed = m.session.Elapsed()
}

func (m *WatchModel) loadToday() {
	if m.today == nil {
		return
	}
	recs, err := m.today()
	if err != nil {
		m.err = err
		return
	}
	m.records = recs
	m.err = nil
}

// setMessage sets a temporary message.
func (m *WatchModel) setMessage(msg string, duration time.Duration) {
	m.message = msg
	m.messageExp = m.now().Add(duration)
}

// tickCmd returns a command that sends a tick message.
func (m *WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd returns a command that sends a refresh message.
func (m *WatchModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshMsg{}
	}
}

// Run starts the live view and returns the completion if the user ended the
// session from it.
func Run(config WatchConfig) (*model.Completion, error) {
	m := NewWatchModel(config)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return nil, err
	}
	return m.Completion(), nil
}
