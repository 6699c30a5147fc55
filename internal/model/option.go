package model

import (
	"strings"
	"time"
)

// Option invariants.
const (
	// MinOptions is the number of options that must always remain.
	MinOptions = 2
	// MaxOptions is the number of persisted options after which new custom
	// options fall back to an ephemeral type.
	MaxOptions = 8

	// CustomOptionID identifies the synthetic "custom" button. It is never persisted.
	CustomOptionID = "custom"
	// EphemeralOptionID identifies an unsaved custom type used when options are full.
	EphemeralOptionID = "custom-temp"
)

// PracticeOption is a reusable practice type.
type PracticeOption struct {
	Key       string    `json:"-"`
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Notes     string    `json:"notes,omitempty"`
	IsCustom  bool      `json:"is_custom"`
	CreatedAt time.Time `json:"created_at"`
}

// SetKey sets the database key for this option.
func (o *PracticeOption) SetKey(key string) {
	o.Key = key
}

// GetKey returns the database key for this option.
func (o *PracticeOption) GetKey() string {
	return o.Key
}

// OptionKey returns the database key for an option id.
func OptionKey(id string) string {
	return PrefixOption + id
}

// TypeLabel is the text stored in a record's type field. The notes suffix
// disambiguates options that share a label.
func (o *PracticeOption) TypeLabel() string {
	label := strings.TrimSpace(o.Label)
	notes := strings.TrimSpace(o.Notes)
	if notes == "" {
		return label
	}
	return label + " " + notes
}

// IsSynthetic reports whether the option is the UI-only custom button or an
// ephemeral unsaved type.
func (o *PracticeOption) IsSynthetic() bool {
	return o.ID == CustomOptionID || o.ID == EphemeralOptionID
}

// CustomButton returns the synthetic option appended for display.
func CustomButton() PracticeOption {
	return PracticeOption{ID: CustomOptionID, Label: "Custom", IsCustom: true}
}

// DefaultOptions returns the options seeded on first run.
func DefaultOptions(now time.Time) []PracticeOption {
	defaults := []struct{ label, notes string }{
		{"Primary", "Mysore"},
		{"Primary", "Led Class"},
		{"Second", "Mysore"},
		{"Second", "Led Class"},
		{"Half", "Standing+Rest"},
		{"Rest Day", "Moon Day"},
	}
	opts := make([]PracticeOption, 0, len(defaults))
	for i, d := range defaults {
		id := string(rune('1' + i))
		opts = append(opts, PracticeOption{
			Key:       OptionKey(id),
			ID:        id,
			Label:     d.label,
			Notes:     d.notes,
			CreatedAt: now,
		})
	}
	return opts
}
