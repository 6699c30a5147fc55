package model

import (
	"strings"
	"time"
)

// DateLayout is the layout of a practice day (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// DefaultNotes replaces empty notes when a finished session is saved.
const DefaultNotes = "Practice complete"

// PracticeRecord is one logged practice session.
type PracticeRecord struct {
	Key          string    `json:"-"`
	ID           string    `json:"id"`
	Date         string    `json:"date"`
	Type         string    `json:"type"`
	Duration     int       `json:"duration"`
	Notes        string    `json:"notes"`
	Breakthrough string    `json:"breakthrough,omitempty"`
	Photos       []string  `json:"photos"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetKey sets the database key for this record.
func (r *PracticeRecord) SetKey(key string) {
	r.Key = key
}

// GetKey returns the database key for this record.
func (r *PracticeRecord) GetKey() string {
	return r.Key
}

// RecordKey returns the database key for a record id.
func RecordKey(id string) string {
	return PrefixRecord + id
}

// RecordIDFromKey strips the record prefix from a database key.
func RecordIDFromKey(key string) string {
	return strings.TrimPrefix(key, PrefixRecord)
}

// LastModified returns the most recent mutation time of the record.
// Records imported from older snapshots may carry no update time.
func (r *PracticeRecord) LastModified() time.Time {
	if r.UpdatedAt.After(r.CreatedAt) {
		return r.UpdatedAt
	}
	return r.CreatedAt
}

// HasBreakthrough reports whether the record marks a milestone.
func (r *PracticeRecord) HasBreakthrough() bool {
	return strings.TrimSpace(r.Breakthrough) != ""
}

// Day parses the practice day in the given location.
func (r *PracticeRecord) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, r.Date, loc)
}

// Clone returns a deep copy of the record.
func (r *PracticeRecord) Clone() *PracticeRecord {
	c := *r
	if r.Photos != nil {
		c.Photos = append([]string(nil), r.Photos...)
	}
	return &c
}

// Equal reports whether two records carry the same user-visible content.
func (r *PracticeRecord) Equal(o *PracticeRecord) bool {
	if r.ID != o.ID || r.Date != o.Date || r.Type != o.Type || r.Duration != o.Duration ||
		r.Notes != o.Notes || r.Breakthrough != o.Breakthrough || len(r.Photos) != len(o.Photos) {
		return false
	}
	for i := range r.Photos {
		if r.Photos[i] != o.Photos[i] {
			return false
		}
	}
	return true
}
