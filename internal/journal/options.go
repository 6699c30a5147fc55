package journal

import (
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// Options returns the persisted practice options in display order.
func (j *Journal) Options() ([]*model.PracticeOption, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	opts, err := j.options.List()
	if err != nil {
		return nil, storageErr("list options", err)
	}
	return opts, nil
}

// DisplayOptions returns the persisted options followed by the synthetic
// custom button.
func (j *Journal) DisplayOptions() ([]*model.PracticeOption, error) {
	opts, err := j.Options()
	if err != nil {
		return nil, err
	}
	custom := model.CustomButton()
	return append(opts, &custom), nil
}

// Option returns a persisted option by id.
func (j *Journal) Option(id string) (*model.PracticeOption, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	opt, err := j.options.Get(id)
	if storage.IsErrKeyNotFound(err) {
		return nil, errors.NewNotFoundError("option", id)
	}
	if err != nil {
		return nil, storageErr("read option", err)
	}
	return opt, nil
}

// OptionsFull reports whether no further options can be persisted.
func (j *Journal) OptionsFull() (bool, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	n, err := j.options.Count()
	if err != nil {
		return false, storageErr("count options", err)
	}
	return n >= model.MaxOptions, nil
}

func cleanOption(label, notes string) (string, string, error) {
	label = validate.SanitizeLabel(label)
	notes = validate.SanitizeLabel(notes)
	if err := validate.Label(label); err != nil {
		return "", "", err
	}
	if err := validate.OptionNotes(notes); err != nil {
		return "", "", err
	}
	return label, notes, nil
}

// duplicate reports whether another option already produces the same record type.
func duplicate(opts []*model.PracticeOption, skipID string, candidate *model.PracticeOption) bool {
	for _, o := range opts {
		if o.ID != skipID && validate.SameLabel(o.TypeLabel(), candidate.TypeLabel()) {
			return true
		}
	}
	return false
}

// AddOption persists a new practice option. It is refused with
// ErrOptionsFull once MaxOptions options exist, and with
// ErrDuplicateOption when an option with the same type label exists.
func (j *Journal) AddOption(label, notes string) (*model.PracticeOption, error) {
	label, notes, err := cleanOption(label, notes)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	opts, err := j.options.List()
	if err != nil {
		j.mu.Unlock()
		return nil, storageErr("list options", err)
	}
	if len(opts) >= model.MaxOptions {
		j.mu.Unlock()
		return nil, errors.Refusal(errors.ErrOptionsFull)
	}
	opt := &model.PracticeOption{ID: j.newID(), Label: label, Notes: notes, CreatedAt: j.now()}
	if duplicate(opts, "", opt) {
		j.mu.Unlock()
		return nil, errors.Refusal(errors.ErrDuplicateOption)
	}
	err = j.options.Save(opt)
	j.mu.Unlock()
	if err != nil {
		return nil, storageErr("add option", err)
	}

	logging.Info("option added", logging.KeyOptionID, opt.ID, "label", opt.TypeLabel())
	j.emit(Change{Kind: OptionsChanged})
	return opt, nil
}

// EphemeralOption returns an unsaved custom type. It is used when the option
// list is full and the user still wants to practice under a new name.
func EphemeralOption(label, notes string) (*model.PracticeOption, error) {
	label, notes, err := cleanOption(label, notes)
	if err != nil {
		return nil, err
	}
	return &model.PracticeOption{
		ID:       model.EphemeralOptionID,
		Label:    label,
		Notes:    notes,
		IsCustom: true,
	}, nil
}

// AddOrEphemeral returns the option for a custom type. An option that
// already produces the same type is reused; otherwise a new one is saved,
// falling back to an ephemeral option when the list is full. The bool
// reports whether the returned option is persisted.
func (j *Journal) AddOrEphemeral(label, notes string) (*model.PracticeOption, bool, error) {
	label, notes, err := cleanOption(label, notes)
	if err != nil {
		return nil, false, err
	}
	if existing, err := j.optionByType(label, notes); err != nil || existing != nil {
		return existing, existing != nil, err
	}

	opt, err := j.AddOption(label, notes)
	switch {
	case err == nil:
		return opt, true, nil
	case errors.Is(err, errors.ErrDuplicateOption):
		// added concurrently
		existing, ferr := j.optionByType(label, notes)
		return existing, existing != nil, ferr
	case errors.Is(err, errors.ErrOptionsFull):
		eph, eerr := EphemeralOption(label, notes)
		return eph, false, eerr
	}
	return nil, false, err
}

// optionByType finds the persisted option producing the same record type,
// or nil.
func (j *Journal) optionByType(label, notes string) (*model.PracticeOption, error) {
	opts, err := j.Options()
	if err != nil {
		return nil, err
	}
	candidate := &model.PracticeOption{Label: label, Notes: notes}
	for _, o := range opts {
		if validate.SameLabel(o.TypeLabel(), candidate.TypeLabel()) {
			return o, nil
		}
	}
	return nil, nil
}

// UpdateOption renames an option. Existing records keep the type they were
// saved with.
func (j *Journal) UpdateOption(id, label, notes string) (*model.PracticeOption, error) {
	label, notes, err := cleanOption(label, notes)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	opts, err := j.options.List()
	if err != nil {
		j.mu.Unlock()
		return nil, storageErr("list options", err)
	}
	var opt *model.PracticeOption
	for _, o := range opts {
		if o.ID == id {
			opt = o
			break
		}
	}
	if opt == nil {
		j.mu.Unlock()
		return nil, errors.NewNotFoundError("option", id)
	}
	opt.Label, opt.Notes = label, notes
	if duplicate(opts, id, opt) {
		j.mu.Unlock()
		return nil, errors.Refusal(errors.ErrDuplicateOption)
	}
	err = j.options.Save(opt)
	j.mu.Unlock()
	if err != nil {
		return nil, storageErr("update option", err)
	}

	logging.DebugLog("option updated", logging.KeyOptionID, id)
	j.emit(Change{Kind: OptionsChanged})
	return opt, nil
}

// DeleteOption removes an option. It is refused with ErrTooFewOptions when
// only MinOptions options remain.
func (j *Journal) DeleteOption(id string) error {
	j.mu.Lock()
	opts, err := j.options.List()
	if err != nil {
		j.mu.Unlock()
		return storageErr("list options", err)
	}
	found := false
	for _, o := range opts {
		if o.ID == id {
			found = true
			break
		}
	}
	if !found {
		j.mu.Unlock()
		return errors.NewNotFoundError("option", id)
	}
	if len(opts) <= model.MinOptions {
		j.mu.Unlock()
		return errors.Refusal(errors.ErrTooFewOptions)
	}
	err = j.options.Delete(id)
	j.mu.Unlock()
	if err != nil {
		return storageErr("delete option", err)
	}

	logging.Info("option deleted", logging.KeyOptionID, id)
	j.emit(Change{Kind: OptionsChanged})
	return nil
}

// ResolveOption finds an option by id, by type label or by bare label
// (case-insensitive). The bare label must be unambiguous.
func (j *Journal) ResolveOption(ref string) (*model.PracticeOption, error) {
	opts, err := j.Options()
	if err != nil {
		return nil, err
	}
	for _, o := range opts {
		if o.ID == ref {
			return o, nil
		}
	}
	for _, o := range opts {
		if validate.SameLabel(o.TypeLabel(), ref) {
			return o, nil
		}
	}
	var match *model.PracticeOption
	for _, o := range opts {
		if validate.SameLabel(o.Label, ref) {
			if match != nil {
				return nil, errors.NewValidationErrorWithValue("option", ref, "ambiguous option",
					"Use the full type, e.g. '"+match.TypeLabel()+"', or the option id")
			}
			match = o
		}
	}
	if match == nil {
		return nil, errors.NewNotFoundError("option", ref)
	}
	return match, nil
}
