package storage

import (
	"encoding/json"

	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
)

// TimerRepo provides operations for the persisted timer state.
type TimerRepo struct {
	db *DB
}

// NewTimerRepo creates a new timer repository.
func NewTimerRepo(db *DB) *TimerRepo {
	return &TimerRepo{db: db}
}

// Load returns the persisted timer state. Missing, undecodable or
// inconsistent state loads as idle; only storage failures are returned.
func (r *TimerRepo) Load() (*model.TimerState, error) {
	data, err := r.db.GetBytes(model.KeyTimer)
	if err != nil {
		if IsErrKeyNotFound(err) {
			return model.NewTimerState(), nil
		}
		return nil, err
	}

	state := model.NewTimerState()
	if err := json.Unmarshal(data, state); err != nil {
		logging.Warn("discarding unreadable timer state", logging.KeyError, err)
		return model.NewTimerState(), nil
	}
	if !state.Consistent() {
		logging.Warn("discarding inconsistent timer state",
			"is_practicing", state.IsPracticing, "is_paused", state.IsPaused)
		return model.NewTimerState(), nil
	}
	state.Key = model.KeyTimer
	return state, nil
}

// Save persists the timer state.
func (r *TimerRepo) Save(state *model.TimerState) error {
	state.Key = model.KeyTimer
	return r.db.Set(state)
}

// Clear removes the persisted timer state.
func (r *TimerRepo) Clear() error {
	return r.db.Delete(model.KeyTimer)
}
