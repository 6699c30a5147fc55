package model

import "time"

// SyncStatus is the observable state of the reconciler.
type SyncStatus string

// Sync statuses.
const (
	SyncIdle     SyncStatus = "idle"
	SyncSyncing  SyncStatus = "syncing"
	SyncSuccess  SyncStatus = "success"
	SyncError    SyncStatus = "error"
	SyncConflict SyncStatus = "conflict"
)

// ConflictChoice is the user's resolution of a sync conflict.
type ConflictChoice string

// Conflict choices.
const (
	ChoiceUseRemote ConflictChoice = "use-remote"
	ChoiceUseLocal  ConflictChoice = "use-local"
	ChoiceMerge     ConflictChoice = "merge"
)

// ParseConflictChoice parses a user-supplied resolution.
func ParseConflictChoice(s string) (ConflictChoice, bool) {
	switch ConflictChoice(s) {
	case ChoiceUseRemote, ChoiceUseLocal, ChoiceMerge:
		return ConflictChoice(s), true
	}
	switch s {
	case "remote":
		return ChoiceUseRemote, true
	case "local":
		return ChoiceUseLocal, true
	}
	return "", false
}

// PendingConflict is a detected divergence awaiting the user's choice.
type PendingConflict struct {
	LocalCount  int       `json:"local_count"`
	RemoteCount int       `json:"remote_count"`
	DetectedAt  time.Time `json:"detected_at"`
}

// StoredCookie is a session cookie persisted between CLI invocations.
type StoredCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// SyncMeta is the persisted state of the account and sync engine.
type SyncMeta struct {
	Key          string           `json:"-"`
	UserID       string           `json:"user_id,omitempty"`
	Email        string           `json:"email,omitempty"`
	Status       SyncStatus       `json:"status"`
	LastSyncedAt *time.Time       `json:"last_synced_at,omitempty"`
	LastError    string           `json:"last_error,omitempty"`
	FailedIDs    []string         `json:"failed_sync_ids"`
	Conflict     *PendingConflict `json:"conflict,omitempty"`
	Cookies      []StoredCookie   `json:"cookies,omitempty"`
}

// SetKey sets the database key for sync meta.
func (m *SyncMeta) SetKey(key string) {
	m.Key = key
}

// GetKey returns the database key for sync meta.
func (m *SyncMeta) GetKey() string {
	return m.Key
}

// SignedIn reports whether an account is attached.
func (m *SyncMeta) SignedIn() bool {
	return m.UserID != ""
}

// AddFailedID appends id unless present, keeping at most max ids (newest kept).
func (m *SyncMeta) AddFailedID(id string, max int) {
	for _, f := range m.FailedIDs {
		if f == id {
			return
		}
	}
	m.FailedIDs = append(m.FailedIDs, id)
	if max > 0 && len(m.FailedIDs) > max {
		m.FailedIDs = append([]string(nil), m.FailedIDs[len(m.FailedIDs)-max:]...)
	}
}

// RemoveFailedID drops id from the failed list.
func (m *SyncMeta) RemoveFailedID(id string) {
	out := m.FailedIDs[:0]
	for _, f := range m.FailedIDs {
		if f != id {
			out = append(out, f)
		}
	}
	m.FailedIDs = out
}

// SyncLogEntry is one line of the bounded sync diagnostic log. The log is
// stored newest first.
type SyncLogEntry struct {
	At       time.Time `json:"timestamp"`
	Action   string    `json:"action"`
	Success  bool      `json:"success"`
	RecordID string    `json:"record_id,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// PendingOp is the kind of mirror write awaiting confirmation.
type PendingOp string

// Pending operations.
const (
	PendingUpsert  PendingOp = "upsert"
	PendingDelete  PendingOp = "delete"
	PendingProfile PendingOp = "profile"
	PendingOptions PendingOp = "options"
)

// Pending targets for the singleton documents. Record markers use the record id.
const (
	PendingProfileTarget = "profile"
	PendingOptionsTarget = "options"
)

// PendingChange marks a local mutation not yet confirmed by the remote.
type PendingChange struct {
	Key      string    `json:"-"`
	TargetID string    `json:"target_id"`
	Op       PendingOp `json:"op"`
	MarkedAt time.Time `json:"marked_at"`
	Attempts int       `json:"attempts"`
}

// SetKey sets the database key for this marker.
func (p *PendingChange) SetKey(key string) {
	p.Key = key
}

// GetKey returns the database key for this marker.
func (p *PendingChange) GetKey() string {
	return p.Key
}

// PendingKey returns the database key for a pending marker.
func PendingKey(targetID string) string {
	return PrefixPending + targetID
}
