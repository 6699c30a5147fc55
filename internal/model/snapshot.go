package model

import "time"

// SnapshotVersion is the current export format version.
const SnapshotVersion = 1

// Snapshot is the exported bundle of all local data.
type Snapshot struct {
	Version    int              `json:"version"`
	Records    []PracticeRecord `json:"records"`
	Options    []PracticeOption `json:"options"`
	Profile    *UserProfile     `json:"profile"`
	ExportedAt time.Time        `json:"exported_at"`
}

// Empty reports whether the snapshot holds no records.
func (s *Snapshot) Empty() bool {
	return len(s.Records) == 0
}

// RecordIDs returns the set of record ids in the snapshot.
func (s *Snapshot) RecordIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Records))
	for _, r := range s.Records {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// ExportLogEntry records one export attempt.
type ExportLogEntry struct {
	At          time.Time `json:"at"`
	Format      string    `json:"format"`
	Destination string    `json:"destination"`
	Records     int       `json:"records"`
	Bytes       int       `json:"bytes"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

// Settings holds per-install values that are never synced.
type Settings struct {
	Key        string `json:"-"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

// SetKey sets the database key for settings.
func (s *Settings) SetKey(key string) {
	s.Key = key
}

// GetKey returns the database key for settings.
func (s *Settings) GetKey() string {
	return s.Key
}
