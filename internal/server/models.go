package server

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// User is an account.
type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsPro        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VerificationCode is a single-use e-mail code.
type VerificationCode struct {
	gorm.Model
	Email      string `gorm:"index;not null"`
	Code       string `gorm:"not null"`
	Purpose    string `gorm:"index;not null"`
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	UsedAt     *time.Time
}

// Device is the install a user is signed in from. A user has at most one.
type Device struct {
	gorm.Model
	UserID   string `gorm:"index;not null"`
	DeviceID string `gorm:"not null"`
	Name     string
	LastSeen time.Time
}

// RecordRow is a practice record. Deletes are soft.
type RecordRow struct {
	UserID          string `gorm:"primaryKey"`
	ID              string `gorm:"primaryKey"`
	Date            string `gorm:"index"`
	Type            string
	Duration        int
	Notes           string
	Breakthrough    string
	Photos          string // JSON array of URLs
	ClientCreatedAt time.Time
	ClientUpdatedAt time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// OptionRow is a practice option.
type OptionRow struct {
	UserID          string `gorm:"primaryKey"`
	ID              string `gorm:"primaryKey"`
	Position        int
	Label           string
	Notes           string
	IsCustom        bool
	ClientCreatedAt time.Time
}

// ProfileRow is a user's profile. The avatar is never stored.
type ProfileRow struct {
	UserID          string `gorm:"primaryKey"`
	ProfileID       string
	Name            string
	Signature       string
	ClientCreatedAt time.Time
}

// PhotoRow tracks an uploaded photo file.
type PhotoRow struct {
	gorm.Model
	UserID string `gorm:"index;not null"`
	Path   string `gorm:"uniqueIndex;not null"` // relative to the user's upload dir
	URL    string `gorm:"index"`
	Size   int64
}

func allModels() []any {
	return []any{
		&User{}, &VerificationCode{}, &Device{},
		&RecordRow{}, &OptionRow{}, &ProfileRow{}, &PhotoRow{},
	}
}

func recordRow(userID string, r *model.PracticeRecord) RecordRow {
	photos := r.Photos
	if photos == nil {
		photos = []string{}
	}
	data, _ := json.Marshal(photos)
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = r.CreatedAt
	}
	return RecordRow{
		UserID:          userID,
		ID:              r.ID,
		Date:            r.Date,
		Type:            r.Type,
		Duration:        r.Duration,
		Notes:           r.Notes,
		Breakthrough:    r.Breakthrough,
		Photos:          string(data),
		ClientCreatedAt: r.CreatedAt.UTC(),
		ClientUpdatedAt: updated.UTC(),
	}
}

func (row *RecordRow) toModel() model.PracticeRecord {
	photos := []string{}
	if row.Photos != "" {
		_ = json.Unmarshal([]byte(row.Photos), &photos)
	}
	return model.PracticeRecord{
		ID:           row.ID,
		Date:         row.Date,
		Type:         row.Type,
		Duration:     row.Duration,
		Notes:        row.Notes,
		Breakthrough: row.Breakthrough,
		Photos:       photos,
		CreatedAt:    row.ClientCreatedAt,
		UpdatedAt:    row.ClientUpdatedAt,
	}
}

func optionRow(userID string, pos int, o *model.PracticeOption) OptionRow {
	return OptionRow{
		UserID:          userID,
		ID:              o.ID,
		Position:        pos,
		Label:           o.Label,
		Notes:           o.Notes,
		IsCustom:        o.IsCustom,
		ClientCreatedAt: o.CreatedAt.UTC(),
	}
}

func (row *OptionRow) toModel() model.PracticeOption {
	return model.PracticeOption{
		ID:        row.ID,
		Label:     row.Label,
		Notes:     row.Notes,
		IsCustom:  row.IsCustom,
		CreatedAt: row.ClientCreatedAt,
	}
}

func profileRow(userID string, p *model.UserProfile) ProfileRow {
	return ProfileRow{
		UserID:          userID,
		ProfileID:       p.ID,
		Name:            p.Name,
		Signature:       p.Signature,
		ClientCreatedAt: p.CreatedAt.UTC(),
	}
}

func (row *ProfileRow) toModel(u *User) *model.UserProfile {
	return &model.UserProfile{
		ID:        row.ProfileID,
		Name:      row.Name,
		Signature: row.Signature,
		Email:     u.Email,
		IsPro:     u.IsPro,
		CreatedAt: row.ClientCreatedAt,
	}
}

// TableName overrides.
func (RecordRow) TableName() string  { return "records" }
func (OptionRow) TableName() string  { return "options" }
func (ProfileRow) TableName() string { return "profiles" }
func (PhotoRow) TableName() string   { return "photos" }
