package storage

import (
	"github.com/ashtangalog/ashtanga/internal/model"
)

// RecordRepo provides CRUD operations for practice records.
type RecordRepo struct {
	db *DB
}

// NewRecordRepo creates a new record repository.
func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// Get retrieves a record by id.
func (r *RecordRepo) Get(id string) (*model.PracticeRecord, error) {
	rec := &model.PracticeRecord{}
	if err := r.db.Get(model.RecordKey(id), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save creates or overwrites a record.
func (r *RecordRepo) Save(rec *model.PracticeRecord) error {
	rec.Key = model.RecordKey(rec.ID)
	return r.db.Set(rec)
}

// Delete removes a record. Missing ids are ignored.
func (r *RecordRepo) Delete(id string) error {
	return r.db.Delete(model.RecordKey(id))
}

// Exists reports whether a record with id is stored.
func (r *RecordRepo) Exists(id string) (bool, error) {
	return r.db.Exists(model.RecordKey(id))
}

// List returns every stored record in key order.
func (r *RecordRepo) List() ([]*model.PracticeRecord, error) {
	return GetAllByPrefix(r.db, model.PrefixRecord, func() *model.PracticeRecord {
		return &model.PracticeRecord{}
	})
}

// Count returns the number of stored records.
func (r *RecordRepo) Count() (int, error) {
	return r.db.CountByPrefix(model.PrefixRecord)
}
