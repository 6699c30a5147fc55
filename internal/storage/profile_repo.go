package storage

import (
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// ProfileRepo provides operations for the UserProfile singleton.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new profile repository.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Get retrieves the profile, creating it with defaults if it doesn't exist.
func (r *ProfileRepo) Get() (*model.UserProfile, error) {
	profile := &model.UserProfile{}
	err := r.db.Get(model.KeyProfile, profile)
	if err == nil {
		return profile, nil
	}

	if !IsErrKeyNotFound(err) {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	profile = model.NewProfile(id.String(), time.Now())
	if err := r.db.Set(profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// Save persists the profile.
func (r *ProfileRepo) Save(profile *model.UserProfile) error {
	profile.Key = model.KeyProfile
	return r.db.Set(profile)
}

// SettingsRepo provides operations for the per-install Settings singleton.
type SettingsRepo struct {
	db *DB
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get retrieves the settings, generating a device identity on first use.
func (r *SettingsRepo) Get() (*model.Settings, error) {
	settings := &model.Settings{}
	err := r.db.Get(model.KeySettings, settings)
	if err == nil {
		return settings, nil
	}

	if !IsErrKeyNotFound(err) {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	name, _ := os.Hostname()
	if name == "" {
		name = "unknown device"
	}

	settings = &model.Settings{Key: model.KeySettings, DeviceID: id.String(), DeviceName: name}
	if err := r.db.Set(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save persists the settings.
func (r *SettingsRepo) Save(settings *model.Settings) error {
	settings.Key = model.KeySettings
	return r.db.Set(settings)
}
