package storage

import (
	"encoding/json"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// ExportLogRepo keeps a bounded history of export attempts.
type ExportLogRepo struct {
	db *DB
}

// NewExportLogRepo creates a new export log repository.
func NewExportLogRepo(db *DB) *ExportLogRepo {
	return &ExportLogRepo{db: db}
}

// List returns the export log, newest first.
func (r *ExportLogRepo) List() ([]model.ExportLogEntry, error) {
	data, err := r.db.GetBytes(model.KeyExportLog)
	if err != nil {
		if IsErrKeyNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []model.ExportLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}

// Append prepends entry, keeping at most max entries.
func (r *ExportLogRepo) Append(entry model.ExportLogEntry, max int) error {
	entries, err := r.List()
	if err != nil {
		return err
	}
	entries = append([]model.ExportLogEntry{entry}, entries...)
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return r.db.SetBytes(model.KeyExportLog, data)
}
