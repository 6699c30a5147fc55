package journal

import (
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// ProfilePatch holds profile edits. Nil fields are left unchanged.
type ProfilePatch struct {
	Name      *string
	Signature *string
	Avatar    *string
	Email     *string
	IsPro     *bool
}

// Profile returns the profile, creating the default one on first use.
func (j *Journal) Profile() (*model.UserProfile, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	p, err := j.profiles.Get()
	if err != nil {
		return nil, storageErr("read profile", err)
	}
	return p, nil
}

// UpdateProfile applies patch to the profile.
func (j *Journal) UpdateProfile(patch ProfilePatch) (*model.UserProfile, error) {
	if patch.Name != nil {
		name := validate.SanitizeLabel(*patch.Name)
		if err := validate.ProfileName(name); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if patch.Signature != nil {
		sig := validate.SanitizeLabel(*patch.Signature)
		if err := validate.Signature(sig); err != nil {
			return nil, err
		}
		patch.Signature = &sig
	}

	j.mu.Lock()
	p, err := j.profiles.Get()
	if err != nil {
		j.mu.Unlock()
		return nil, storageErr("read profile", err)
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Signature != nil {
		p.Signature = *patch.Signature
	}
	if patch.Avatar != nil {
		p.Avatar = *patch.Avatar
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.IsPro != nil {
		p.IsPro = *patch.IsPro
	}
	err = j.profiles.Save(p)
	j.mu.Unlock()
	if err != nil {
		return nil, storageErr("save profile", err)
	}

	logging.DebugLog("profile updated", "name", p.Name)
	j.emit(Change{Kind: ProfileChanged})
	return p, nil
}
