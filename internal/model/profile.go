package model

import "time"

// Profile defaults for a fresh install.
const (
	DefaultProfileName      = "Ashtanga Practitioner"
	DefaultProfileSignature = "Practice is a journey"
)

// UserProfile is the singleton profile of a local install or signed-in account.
type UserProfile struct {
	Key       string    `json:"-"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Signature string    `json:"signature"`
	Avatar    string    `json:"avatar,omitempty"`
	Email     string    `json:"email,omitempty"`
	IsPro     bool      `json:"is_pro,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SetKey sets the database key for this profile.
func (p *UserProfile) SetKey(key string) {
	p.Key = key
}

// GetKey returns the database key for this profile.
func (p *UserProfile) GetKey() string {
	return p.Key
}

// NewProfile creates a profile with default values.
func NewProfile(id string, now time.Time) *UserProfile {
	return &UserProfile{
		Key:       KeyProfile,
		ID:        id,
		Name:      DefaultProfileName,
		Signature: DefaultProfileSignature,
		CreatedAt: now,
	}
}
