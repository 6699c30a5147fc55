// Package timer implements the practice session timer.
//
// Elapsed time is derived from wall-clock timestamps rather than counted
// ticks, so a session survives process restarts, sleep and throttled ticks:
// restoring the persisted fields reproduces the same arithmetic.
package timer

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
)

// Store persists timer state. storage.TimerRepo implements it.
type Store interface {
	Load() (*model.TimerState, error)
	Save(state *model.TimerState) error
}

// RecordSaver stores the record produced by a finished session.
// journal.Journal implements it.
type RecordSaver interface {
	AddRecord(in journal.RecordInput) (*model.PracticeRecord, error)
}

// SaveInput holds the fields entered on the save form.
type SaveInput struct {
	Notes        string
	Breakthrough string
	Photos       []string
}

// Session is the session timer state machine:
//
//	idle -> running <-> paused -> completion pending -> idle
//
// Every transition is persisted before it becomes visible.
type Session struct {
	mu    sync.Mutex
	state *model.TimerState

	store Store
	saver RecordSaver
	now   func() time.Time
	loc   *time.Location

	saving atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLocation sets the location used to derive a record's practice day.
func WithLocation(loc *time.Location) Option {
	return func(s *Session) { s.loc = loc }
}

// New creates an idle session. Call Restore to resume persisted state.
func New(store Store, saver RecordSaver, opts ...Option) *Session {
	s := &Session{
		state: model.NewTimerState(),
		store: store,
		saver: saver,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads persisted state. Corrupt or partial state restores as idle.
func (s *Session) Restore() error {
	state, err := s.store.Load()
	if err != nil {
		return errors.NewStorageError("load timer", err)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	logging.DebugLog("timer restored", logging.KeyStatus, string(state.Phase()))
	return nil
}

// State returns a copy of the current state.
func (s *Session) State() model.TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Phase returns the current phase.
func (s *Session) Phase() model.TimerPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase()
}

func copyState(st *model.TimerState) model.TimerState {
	c := *st
	if st.StartTime != nil {
		v := *st.StartTime
		c.StartTime = &v
	}
	if st.PauseStartTime != nil {
		v := *st.PauseStartTime
		c.PauseStartTime = &v
	}
	if st.Pending != nil {
		p := *st.Pending
		c.Pending = &p
	}
	return c
}

func (s *Session) nowMillis() int64 {
	return s.now().UnixMilli()
}

// ElapsedAt computes logical elapsed seconds for state at the given unix
// millisecond instant: wall time since start minus paused time, floored and
// clamped to zero. An ongoing pause is excluded.
func ElapsedAt(st *model.TimerState, nowMs int64) int {
	if st.Pending != nil {
		return st.Pending.Elapsed
	}
	if !st.IsPracticing || st.StartTime == nil {
		return 0
	}
	paused := st.TotalPausedTime
	if st.IsPaused && st.PauseStartTime != nil {
		paused += nowMs - *st.PauseStartTime
	}
	ms := nowMs - *st.StartTime - paused
	if ms < 0 {
		return 0
	}
	return int(ms / 1000)
}

// Elapsed returns the logical elapsed seconds of the session.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ElapsedAt(s.state, s.nowMillis())
}

// transition applies fn to a copy of the state, persists it and only then
// makes it current. Must be called with mu held.
func (s *Session) transition(fn func(st *model.TimerState)) error {
	next := copyState(s.state)
	fn(&next)
	if err := s.store.Save(&next); err != nil {
		return errors.NewStorageError("save timer", err)
	}
	s.state = &next
	return nil
}

// Start begins a session for opt. It requires an idle timer and a selected option.
func (s *Session) Start(opt *model.PracticeOption) error {
	if opt == nil || opt.ID == "" || opt.ID == model.CustomOptionID {
		return errors.Refusal(errors.ErrNoOptionSelected)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase() != model.PhaseIdle {
		return errors.Refusal(errors.ErrTimerNotIdle)
	}
	now := s.nowMillis()
	err := s.transition(func(st *model.TimerState) {
		st.Reset()
		st.IsPracticing = true
		st.StartTime = &now
		st.OptionID = opt.ID
		st.TypeLabel = opt.TypeLabel()
	})
	if err != nil {
		return err
	}
	logging.Info("practice started", logging.KeyOptionID, opt.ID, "type", opt.TypeLabel())
	return nil
}

// Pause freezes logical accrual. It requires a running session.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase() != model.PhaseRunning {
		return errors.Refusal(errors.ErrTimerNotRunning)
	}
	now := s.nowMillis()
	return s.transition(func(st *model.TimerState) {
		st.IsPaused = true
		st.PauseStartTime = &now
	})
}

// Resume continues a paused session, adding the pause to the paused total.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase() != model.PhasePaused {
		return errors.Refusal(errors.ErrTimerNotPaused)
	}
	now := s.nowMillis()
	return s.transition(func(st *model.TimerState) {
		if d := now - *st.PauseStartTime; d > 0 {
			st.TotalPausedTime += d
		}
		st.IsPaused = false
		st.PauseStartTime = nil
	})
}

// Finish ends a running or paused session. The elapsed time and type are
// frozen into a pending completion awaiting Save.
func (s *Session) Finish() (*model.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	phase := s.state.Phase()
	if phase != model.PhaseRunning && phase != model.PhasePaused {
		return nil, errors.Refusal(errors.ErrTimerNotRunning)
	}
	now := s.now()
	c := &model.Completion{
		Elapsed:   ElapsedAt(s.state, now.UnixMilli()),
		OptionID:  s.state.OptionID,
		TypeLabel: s.state.TypeLabel,
		EndedAt:   now,
	}
	err := s.transition(func(st *model.TimerState) {
		st.Reset()
		pending := *c
		st.Pending = &pending
	})
	if err != nil {
		return nil, err
	}
	logging.Info("practice finished", "elapsed", c.Elapsed, "type", c.TypeLabel)
	return c, nil
}

// Pending returns the completion awaiting save, or nil.
func (s *Session) Pending() *model.Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Pending == nil {
		return nil
	}
	c := *s.state.Pending
	return &c
}

// Discard drops the current session or pending completion without saving.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase() == model.PhaseIdle {
		return errors.Refusal(errors.ErrTimerNotRunning)
	}
	if err := s.transition(func(st *model.TimerState) { st.Reset() }); err != nil {
		return err
	}
	logging.Info("practice discarded")
	return nil
}

// Save stores the pending completion as a record and returns the timer to
// idle. Empty notes become model.DefaultNotes. A save issued while another
// is in flight is dropped with ErrSaveInProgress; the first one wins.
func (s *Session) Save(in SaveInput) (*model.PracticeRecord, error) {
	if !s.saving.CompareAndSwap(false, true) {
		return nil, errors.Refusal(errors.ErrSaveInProgress)
	}
	defer s.saving.Store(false)

	pending := s.Pending()
	if pending == nil {
		return nil, errors.Refusal(errors.ErrNoPendingCompletion)
	}

	notes := in.Notes
	if strings.TrimSpace(notes) == "" {
		notes = model.DefaultNotes
	}
	rec, err := s.saver.AddRecord(journal.RecordInput{
		Date:         pending.EndedAt.In(s.loc).Format(model.DateLayout),
		Type:         pending.TypeLabel,
		Duration:     pending.Elapsed,
		Notes:        notes,
		Breakthrough: in.Breakthrough,
		Photos:       in.Photos,
	})
	if err != nil {
		// The completion stays pending so the user can correct and retry.
		return nil, err
	}

	s.mu.Lock()
	err = s.transition(func(st *model.TimerState) { st.Reset() })
	s.mu.Unlock()
	if err != nil {
		logging.Warn("record saved but timer state not cleared", logging.KeyRecordID, rec.ID, logging.KeyError, err)
	}
	return rec, nil
}
