package model

import "time"

// TimerPhase is the derived phase of the session timer.
type TimerPhase string

// Timer phases.
const (
	PhaseIdle              TimerPhase = "idle"
	PhaseRunning           TimerPhase = "running"
	PhasePaused            TimerPhase = "paused"
	PhaseCompletionPending TimerPhase = "completion_pending"
)

// Completion is the frozen result of a finished session awaiting save.
type Completion struct {
	Elapsed   int       `json:"elapsed"`
	OptionID  string    `json:"option_id"`
	TypeLabel string    `json:"type_label"`
	EndedAt   time.Time `json:"ended_at"`
}

// TimerState is the persisted state of the session timer.
// Timestamps are unix milliseconds so a reload reproduces the same arithmetic.
type TimerState struct {
	Key             string      `json:"-"`
	IsPracticing    bool        `json:"is_practicing"`
	IsPaused        bool        `json:"is_paused"`
	StartTime       *int64      `json:"start_time"`
	PauseStartTime  *int64      `json:"pause_start_time"`
	TotalPausedTime int64       `json:"total_paused_time"`
	OptionID        string      `json:"option_id,omitempty"`
	TypeLabel       string      `json:"type_label,omitempty"`
	Pending         *Completion `json:"pending,omitempty"`
}

// SetKey sets the database key for this timer state.
func (t *TimerState) SetKey(key string) {
	t.Key = key
}

// GetKey returns the database key for this timer state.
func (t *TimerState) GetKey() string {
	return t.Key
}

// NewTimerState returns an idle timer state.
func NewTimerState() *TimerState {
	return &TimerState{Key: KeyTimer}
}

// Phase derives the current phase from the stored fields.
func (t *TimerState) Phase() TimerPhase {
	switch {
	case t.Pending != nil:
		return PhaseCompletionPending
	case t.IsPracticing && t.IsPaused:
		return PhasePaused
	case t.IsPracticing:
		return PhaseRunning
	default:
		return PhaseIdle
	}
}

// Consistent reports whether the fields describe a reachable state.
// Inconsistent state is treated as idle on restore.
func (t *TimerState) Consistent() bool {
	if t.IsPaused && !t.IsPracticing {
		return false
	}
	if t.IsPracticing {
		if t.StartTime == nil || *t.StartTime <= 0 {
			return false
		}
		if t.Pending != nil {
			return false
		}
	} else if t.StartTime != nil || t.PauseStartTime != nil {
		return false
	}
	if t.IsPaused && t.PauseStartTime == nil {
		return false
	}
	if !t.IsPaused && t.PauseStartTime != nil {
		return false
	}
	if t.TotalPausedTime < 0 {
		return false
	}
	if t.Pending != nil && t.Pending.Elapsed < 0 {
		return false
	}
	return true
}

// Reset clears the timer fields back to idle, dropping any pending completion.
func (t *TimerState) Reset() {
	t.IsPracticing = false
	t.IsPaused = false
	t.StartTime = nil
	t.PauseStartTime = nil
	t.TotalPausedTime = 0
	t.OptionID = ""
	t.TypeLabel = ""
	t.Pending = nil
}
