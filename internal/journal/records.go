package journal

import (
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
	"github.com/ashtangalog/ashtanga/internal/validate"
)

// RecordInput holds the user-supplied fields of a new record.
type RecordInput struct {
	Date         string
	Type         string
	Duration     int
	Notes        string
	Breakthrough string
	Photos       []string
}

// RecordPatch holds the fields of an edit. Nil fields are left unchanged.
type RecordPatch struct {
	Date         *string
	Type         *string
	Duration     *int
	Notes        *string
	Breakthrough *string
	Photos       []string // nil leaves photos unchanged, empty clears them
}

// Empty reports whether the patch changes nothing.
func (p RecordPatch) Empty() bool {
	return p.Date == nil && p.Type == nil && p.Duration == nil &&
		p.Notes == nil && p.Breakthrough == nil && p.Photos == nil
}

func validateRecord(r *model.PracticeRecord) error {
	if err := validate.Date(r.Date); err != nil {
		return err
	}
	if err := validate.NonEmpty("type", r.Type); err != nil {
		return err
	}
	if err := validate.Duration(r.Duration); err != nil {
		return err
	}
	if err := validate.Notes(r.Notes); err != nil {
		return err
	}
	return validate.Breakthrough(r.Breakthrough)
}

// AddRecord validates and stores a new record, assigning its id and
// creation time. The practice day is not checked against today here; the
// "log" flow does that with validate.PracticeDate.
func (j *Journal) AddRecord(in RecordInput) (*model.PracticeRecord, error) {
	now := j.now()
	rec := &model.PracticeRecord{
		ID:           j.newID(),
		Date:         in.Date,
		Type:         validate.SanitizeLabel(in.Type),
		Duration:     in.Duration,
		Notes:        validate.SanitizeNote(in.Notes),
		Breakthrough: validate.SanitizeLabel(in.Breakthrough),
		Photos:       append([]string{}, in.Photos...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	if err := j.checkSpace(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	err := j.records.Save(rec)
	j.mu.Unlock()
	if err != nil {
		return nil, storageErr("add record", err)
	}

	logging.Info("record added", logging.KeyRecordID, rec.ID, "date", rec.Date, "duration", rec.Duration)
	j.emit(Change{Kind: RecordSaved, RecordID: rec.ID, Record: rec.Clone()})
	return rec, nil
}

// UpdateRecord merges patch into the record with the given id. A missing id
// yields a nil record and a NotFoundError; nothing is written.
func (j *Journal) UpdateRecord(id string, patch RecordPatch) (*model.PracticeRecord, error) {
	j.mu.Lock()
	rec, err := j.records.Get(id)
	if err != nil {
		j.mu.Unlock()
		if storage.IsErrKeyNotFound(err) {
			return nil, errors.NewNotFoundError("record", id)
		}
		return nil, storageErr("read record", err)
	}

	if patch.Date != nil {
		rec.Date = *patch.Date
	}
	if patch.Type != nil {
		rec.Type = validate.SanitizeLabel(*patch.Type)
	}
	if patch.Duration != nil {
		rec.Duration = *patch.Duration
	}
	if patch.Notes != nil {
		rec.Notes = validate.SanitizeNote(*patch.Notes)
	}
	if patch.Breakthrough != nil {
		rec.Breakthrough = validate.SanitizeLabel(*patch.Breakthrough)
	}
	if patch.Photos != nil {
		rec.Photos = append([]string{}, patch.Photos...)
	}
	if err := validateRecord(rec); err != nil {
		j.mu.Unlock()
		return nil, err
	}
	if rec.Photos == nil {
		rec.Photos = []string{}
	}
	rec.UpdatedAt = j.now()

	err = j.records.Save(rec)
	j.mu.Unlock()
	if err != nil {
		return nil, storageErr("update record", err)
	}

	logging.DebugLog("record updated", logging.KeyRecordID, id)
	j.emit(Change{Kind: RecordSaved, RecordID: rec.ID, Record: rec.Clone()})
	return rec, nil
}

// DeleteRecord removes a record. Deleting a missing id is not an error and
// changes nothing.
func (j *Journal) DeleteRecord(id string) error {
	j.mu.Lock()
	exists, err := j.records.Exists(id)
	if err == nil && exists {
		err = j.records.Delete(id)
	}
	j.mu.Unlock()
	if err != nil {
		return storageErr("delete record", err)
	}
	if !exists {
		return nil
	}

	logging.Info("record deleted", logging.KeyRecordID, id)
	j.emit(Change{Kind: RecordDeleted, RecordID: id})
	return nil
}

// Record returns a record by id.
func (j *Journal) Record(id string) (*model.PracticeRecord, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	rec, err := j.records.Get(id)
	if storage.IsErrKeyNotFound(err) {
		return nil, errors.NewNotFoundError("record", id)
	}
	if err != nil {
		return nil, storageErr("read record", err)
	}
	return rec, nil
}

// Records returns every record, newest practice day first.
func (j *Journal) Records() ([]*model.PracticeRecord, error) {
	j.mu.RLock()
	recs, err := j.records.List()
	j.mu.RUnlock()
	if err != nil {
		return nil, storageErr("list records", err)
	}
	SortRecords(recs)
	return recs, nil
}

// RecordCount returns the number of stored records.
func (j *Journal) RecordCount() (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	n, err := j.records.Count()
	return n, storageErr("count records", err)
}

// FindRecords returns records whose id starts with prefix, newest first.
// The CLI accepts short id prefixes.
func (j *Journal) FindRecords(prefix string) ([]*model.PracticeRecord, error) {
	recs, err := j.Records()
	if err != nil {
		return nil, err
	}
	var out []*model.PracticeRecord
	for _, r := range recs {
		if len(r.ID) >= len(prefix) && r.ID[:len(prefix)] == prefix {
			out = append(out, r)
		}
	}
	return out, nil
}
