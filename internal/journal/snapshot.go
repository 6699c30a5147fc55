package journal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// Snapshot returns the current records, options and profile as one
// consistent snapshot. Records are newest first.
func (j *Journal) Snapshot() (*model.Snapshot, error) {
	j.mu.RLock()
	ds, err := j.db.ReadDataset()
	j.mu.RUnlock()
	if err != nil {
		return nil, storageErr("read dataset", err)
	}
	SortRecords(ds.Records)

	snap := &model.Snapshot{
		Version:    model.SnapshotVersion,
		Records:    make([]model.PracticeRecord, 0, len(ds.Records)),
		Options:    make([]model.PracticeOption, 0, len(ds.Options)),
		Profile:    ds.Profile,
		ExportedAt: j.now().UTC(),
	}
	for _, r := range ds.Records {
		if r.Photos == nil {
			r.Photos = []string{}
		}
		snap.Records = append(snap.Records, *r)
	}
	for _, o := range ds.Options {
		snap.Options = append(snap.Options, *o)
	}
	return snap, nil
}

// ExportSnapshot serializes every record, option and the profile into a
// versioned JSON document.
func (j *Journal) ExportSnapshot() ([]byte, error) {
	snap, err := j.Snapshot()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	return data, nil
}

func invalidSnapshot(format string, args ...any) error {
	return &errors.ValidationError{
		Field:      "snapshot",
		Message:    fmt.Sprintf(format, args...),
		Suggestion: "Paste the complete text produced by 'ashtanga export'",
		Err:        errors.ErrInvalidSnapshot,
	}
}

// ParseSnapshot decodes and validates a snapshot document. Unknown fields
// are rejected so that unrelated JSON is not mistaken for a snapshot.
func ParseSnapshot(data []byte) (*model.Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, invalidSnapshot("empty snapshot")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var snap model.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, invalidSnapshot("malformed snapshot: %v", err)
	}
	if dec.More() {
		return nil, invalidSnapshot("trailing data after snapshot")
	}
	if err := ValidateSnapshot(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ValidateSnapshot checks the shape of a snapshot. A snapshot without options
// is accepted and gets the default options on import.
func ValidateSnapshot(s *model.Snapshot) error {
	if s.Version < 1 || s.Version > model.SnapshotVersion {
		return invalidSnapshot("unsupported snapshot version %d", s.Version)
	}
	if s.Records == nil {
		return invalidSnapshot("snapshot has no records list")
	}

	seen := make(map[string]struct{}, len(s.Records))
	for i := range s.Records {
		r := &s.Records[i]
		if r.ID == "" {
			return invalidSnapshot("record %d has no id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return invalidSnapshot("duplicate record id %s", r.ID)
		}
		seen[r.ID] = struct{}{}
		if err := validateRecord(r); err != nil {
			return invalidSnapshot("record %s: %v", r.ID, err)
		}
	}

	if len(s.Options) > 0 && len(s.Options) < model.MinOptions {
		return invalidSnapshot("snapshot must hold at least %d options", model.MinOptions)
	}
	if len(s.Options) > model.MaxOptions {
		return invalidSnapshot("snapshot holds more than %d options", model.MaxOptions)
	}
	optIDs := make(map[string]struct{}, len(s.Options))
	checked := make([]*model.PracticeOption, 0, len(s.Options))
	for i := range s.Options {
		o := &s.Options[i]
		if o.ID == "" || o.IsSynthetic() {
			return invalidSnapshot("option %d has an invalid id", i)
		}
		if _, dup := optIDs[o.ID]; dup {
			return invalidSnapshot("duplicate option id %s", o.ID)
		}
		optIDs[o.ID] = struct{}{}
		if err := validate.Label(o.Label); err != nil {
			return invalidSnapshot("option %s: %v", o.ID, err)
		}
		if err := validate.OptionNotes(o.Notes); err != nil {
			return invalidSnapshot("option %s: %v", o.ID, err)
		}
		if duplicate(checked, "", o) {
			return invalidSnapshot("duplicate option type %q", o.TypeLabel())
		}
		checked = append(checked, o)
	}

	if p := s.Profile; p != nil {
		if p.ID == "" {
			return invalidSnapshot("profile has no id")
		}
		if err := validate.ProfileName(p.Name); err != nil {
			return invalidSnapshot("profile: %v", err)
		}
		if err := validate.Signature(p.Signature); err != nil {
			return invalidSnapshot("profile: %v", err)
		}
	}
	return nil
}

func datasetFrom(s *model.Snapshot, j *Journal) *storage.Dataset {
	ds := &storage.Dataset{Profile: s.Profile}
	for i := range s.Records {
		r := s.Records[i].Clone()
		if r.Photos == nil {
			r.Photos = []string{}
		}
		ds.Records = append(ds.Records, r)
	}
	opts := s.Options
	if len(opts) == 0 {
		opts = model.DefaultOptions(j.now())
	}
	for i := range opts {
		o := opts[i]
		ds.Options = append(ds.Options, &o)
	}
	if ds.Profile != nil {
		p := *ds.Profile
		ds.Profile = &p
	}
	return ds
}

// Replace atomically swaps the local dataset for the snapshot's contents.
// A nil profile keeps the current one. The snapshot must already be valid.
func (j *Journal) Replace(s *model.Snapshot) error {
	ds := datasetFrom(s, j)

	j.mu.Lock()
	err := j.db.ReplaceDataset(ds)
	j.mu.Unlock()
	if err != nil {
		return storageErr("replace dataset", err)
	}

	j.emit(Change{Kind: Replaced})
	return nil
}

// ImportSnapshot parses data and, when it is a valid snapshot, replaces all
// local records and options with its contents. On any error local data is
// left untouched. Returns the number of imported records.
func (j *Journal) ImportSnapshot(data []byte) (int, error) {
	snap, err := ParseSnapshot(data)
	if err != nil {
		logging.Warn("snapshot import rejected", logging.KeyError, err)
		return 0, err
	}
	if err := j.checkSpace(); err != nil {
		return 0, err
	}
	if err := j.Replace(snap); err != nil {
		return 0, err
	}
	logging.Info("snapshot imported", logging.KeyCount, len(snap.Records))
	return len(snap.Records), nil
}

// ClearAll wipes every record, option, the profile, the timer state and the
// diagnostic logs, then reseeds the default options and profile.
func (j *Journal) ClearAll() error {
	j.mu.Lock()
	err := j.db.ClearUserData()
	if err == nil {
		_, err = j.options.EnsureDefaults(j.now())
	}
	if err == nil {
		_, err = j.profiles.Get()
	}
	j.mu.Unlock()
	if err != nil {
		return storageErr("clear data", err)
	}

	logging.Warn("all local data cleared")
	j.emit(Change{Kind: Cleared})
	return nil
}

// LogExport appends an export attempt to the bounded export log.
func (j *Journal) LogExport(entry model.ExportLogEntry) error {
	if entry.At.IsZero() {
		entry.At = j.now()
	}
	return storageErr("log export", storage.NewExportLogRepo(j.db).Append(entry, maxExportLog()))
}

// ExportLog returns recorded export attempts, newest first.
func (j *Journal) ExportLog() ([]model.ExportLogEntry, error) {
	entries, err := storage.NewExportLogRepo(j.db).List()
	return entries, storageErr("read export log", err)
}
