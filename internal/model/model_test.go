package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// PracticeRecord Tests
// =============================================================================

func TestRecordSetGetKey(t *testing.T) {
	r := &PracticeRecord{}
	r.SetKey(RecordKey("abc"))
	assert.Equal(t, "ashtanga_record:abc", r.GetKey())
	assert.Equal(t, "abc", RecordIDFromKey(r.GetKey()))
}

func TestRecordLastModified(t *testing.T) {
	created := time.Date(2026, 1, 18, 7, 0, 0, 0, time.UTC)

	// No update time falls back to creation
	r := &PracticeRecord{CreatedAt: created}
	assert.Equal(t, created, r.LastModified())

	r.UpdatedAt = created.Add(time.Hour)
	assert.Equal(t, created.Add(time.Hour), r.LastModified())
}

func TestRecordHasBreakthrough(t *testing.T) {
	assert.False(t, (&PracticeRecord{}).HasBreakthrough())
	assert.False(t, (&PracticeRecord{Breakthrough: "   "}).HasBreakthrough())
	assert.True(t, (&PracticeRecord{Breakthrough: "Bound in Mari D"}).HasBreakthrough())
}

func TestRecordCloneIsDeep(t *testing.T) {
	r := &PracticeRecord{ID: "a", Photos: []string{"one"}}
	c := r.Clone()
	c.Photos[0] = "two"
	assert.Equal(t, "one", r.Photos[0])
	assert.True(t, r.Equal(r.Clone()))
	assert.False(t, r.Equal(c))
}

// =============================================================================
// PracticeOption Tests
// =============================================================================

func TestOptionTypeLabel(t *testing.T) {
	tests := []struct {
		name     string
		opt      PracticeOption
		expected string
	}{
		{"label only", PracticeOption{Label: "Primary"}, "Primary"},
		{"label and notes", PracticeOption{Label: "Primary", Notes: "Mysore"}, "Primary Mysore"},
		{"whitespace trimmed", PracticeOption{Label: " Second ", Notes: "  "}, "Second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.opt.TypeLabel())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	now := time.Now()
	opts := DefaultOptions(now)

	assert.Len(t, opts, 6)
	assert.Equal(t, "1", opts[0].ID)
	assert.Equal(t, "6", opts[5].ID)
	assert.Equal(t, "Primary Mysore", opts[0].TypeLabel())
	assert.Equal(t, OptionKey("3"), opts[2].Key)
	for _, o := range opts {
		assert.False(t, o.IsCustom)
		assert.LessOrEqual(t, len(o.Label), 10)
	}
}

func TestSyntheticOptions(t *testing.T) {
	custom := CustomButton()
	assert.True(t, custom.IsSynthetic())
	assert.True(t, (&PracticeOption{ID: EphemeralOptionID}).IsSynthetic())
	assert.False(t, (&PracticeOption{ID: "1"}).IsSynthetic())
}

// =============================================================================
// TimerState Tests
// =============================================================================

func ms(v int64) *int64 { return &v }

func TestTimerStatePhase(t *testing.T) {
	assert.Equal(t, PhaseIdle, NewTimerState().Phase())
	assert.Equal(t, PhaseRunning, (&TimerState{IsPracticing: true, StartTime: ms(1)}).Phase())
	assert.Equal(t, PhasePaused, (&TimerState{IsPracticing: true, IsPaused: true}).Phase())
	assert.Equal(t, PhaseCompletionPending, (&TimerState{Pending: &Completion{}}).Phase())
}

func TestTimerStateConsistent(t *testing.T) {
	tests := []struct {
		name  string
		state TimerState
		ok    bool
	}{
		{"idle", TimerState{}, true},
		{"running", TimerState{IsPracticing: true, StartTime: ms(1000)}, true},
		{"paused", TimerState{IsPracticing: true, IsPaused: true, StartTime: ms(1000), PauseStartTime: ms(2000)}, true},
		{"pending", TimerState{Pending: &Completion{Elapsed: 60}}, true},
		{"practicing without start", TimerState{IsPracticing: true}, false},
		{"paused without practicing", TimerState{IsPaused: true}, false},
		{"paused without pause start", TimerState{IsPracticing: true, IsPaused: true, StartTime: ms(1)}, false},
		{"idle with stale start", TimerState{StartTime: ms(1)}, false},
		{"negative paused total", TimerState{IsPracticing: true, StartTime: ms(1), TotalPausedTime: -5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.state.Consistent())
		})
	}
}

func TestTimerStateReset(t *testing.T) {
	s := &TimerState{IsPracticing: true, IsPaused: true, StartTime: ms(1), PauseStartTime: ms(2),
		TotalPausedTime: 5, OptionID: "1", Pending: &Completion{}}
	s.Reset()
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.True(t, s.Consistent())
	assert.Empty(t, s.OptionID)
}

// =============================================================================
// Sync Tests
// =============================================================================

func TestParseConflictChoice(t *testing.T) {
	c, ok := ParseConflictChoice("merge")
	assert.True(t, ok)
	assert.Equal(t, ChoiceMerge, c)

	c, ok = ParseConflictChoice("remote")
	assert.True(t, ok)
	assert.Equal(t, ChoiceUseRemote, c)

	_, ok = ParseConflictChoice("both")
	assert.False(t, ok)
}

func TestSyncMetaFailedIDs(t *testing.T) {
	m := &SyncMeta{}
	m.AddFailedID("a", 2)
	m.AddFailedID("a", 2)
	assert.Equal(t, []string{"a"}, m.FailedIDs)

	m.AddFailedID("b", 2)
	m.AddFailedID("c", 2)
	assert.Equal(t, []string{"b", "c"}, m.FailedIDs)

	m.RemoveFailedID("b")
	assert.Equal(t, []string{"c"}, m.FailedIDs)
}

func TestSnapshotRecordIDs(t *testing.T) {
	s := &Snapshot{Records: []PracticeRecord{{ID: "a"}, {ID: "b"}}}
	ids := s.RecordIDs()
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "a")
	assert.False(t, s.Empty())
	assert.True(t, (&Snapshot{}).Empty())
}
