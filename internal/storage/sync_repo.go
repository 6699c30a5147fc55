package storage

import (
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// LogBounds limits the size of the sync log.
type LogBounds struct {
	MaxEntries    int // newest entries kept
	MaxBytes      int // encoded size above which only TruncateTo entries survive
	TruncateTo    int
	ErrorTruncate int // longest stored error message, in characters
}

// SyncRepo stores account metadata, the sync log and pending-mirror markers.
type SyncRepo struct {
	db *DB
}

// NewSyncRepo creates a new sync repository.
func NewSyncRepo(db *DB) *SyncRepo {
	return &SyncRepo{db: db}
}

// Meta retrieves the sync metadata, returning an idle default if absent.
func (r *SyncRepo) Meta() (*model.SyncMeta, error) {
	meta := &model.SyncMeta{}
	err := r.db.Get(model.KeySyncMeta, meta)
	if err == nil {
		return meta, nil
	}
	if !IsErrKeyNotFound(err) {
		return nil, err
	}
	return &model.SyncMeta{Key: model.KeySyncMeta, Status: model.SyncIdle}, nil
}

// SaveMeta persists the sync metadata.
func (r *SyncRepo) SaveMeta(meta *model.SyncMeta) error {
	meta.Key = model.KeySyncMeta
	return r.db.Set(meta)
}

// UpdateMeta loads, mutates and saves the metadata in one call.
func (r *SyncRepo) UpdateMeta(fn func(meta *model.SyncMeta)) error {
	meta, err := r.Meta()
	if err != nil {
		return err
	}
	fn(meta)
	return r.SaveMeta(meta)
}

// Logs returns the sync log, newest first.
func (r *SyncRepo) Logs() ([]model.SyncLogEntry, error) {
	data, err := r.db.GetBytes(model.KeySyncLogs)
	if err != nil {
		if IsErrKeyNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var logs []model.SyncLogEntry
	if err := json.Unmarshal(data, &logs); err != nil {
		// A damaged diagnostic log is dropped rather than blocking sync.
		return nil, nil
	}
	return logs, nil
}

// AppendLog prepends entry to the sync log and enforces the bounds.
func (r *SyncRepo) AppendLog(entry model.SyncLogEntry, bounds LogBounds) error {
	logs, err := r.Logs()
	if err != nil {
		return err
	}
	entry.Error = TruncateMessage(entry.Error, bounds.ErrorTruncate)
	logs = append([]model.SyncLogEntry{entry}, logs...)

	data, err := BoundLog(logs, bounds)
	if err != nil {
		return err
	}
	return r.db.SetBytes(model.KeySyncLogs, data)
}

// ClearLogs removes the sync log.
func (r *SyncRepo) ClearLogs() error {
	return r.db.Delete(model.KeySyncLogs)
}

// BoundLog keeps the newest MaxEntries entries and, if the encoded result
// is larger than MaxBytes, only the newest TruncateTo. Returns the encoding.
func BoundLog(logs []model.SyncLogEntry, bounds LogBounds) ([]byte, error) {
	if bounds.MaxEntries > 0 && len(logs) > bounds.MaxEntries {
		logs = logs[:bounds.MaxEntries]
	}
	data, err := json.Marshal(logs)
	if err != nil {
		return nil, err
	}
	if bounds.MaxBytes > 0 && len(data) > bounds.MaxBytes && len(logs) > bounds.TruncateTo {
		return json.Marshal(logs[:bounds.TruncateTo])
	}
	return data, nil
}

// TruncateMessage cuts msg to max characters and marks the cut with "...".
func TruncateMessage(msg string, max int) string {
	if max <= 0 || utf8.RuneCountInString(msg) <= max {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:max]) + "..."
}

// MarkPending records that targetID has a local change not yet mirrored.
// Marking an already pending target keeps its attempt count.
func (r *SyncRepo) MarkPending(targetID string, op model.PendingOp, now time.Time) error {
	p := &model.PendingChange{}
	err := r.db.Get(model.PendingKey(targetID), p)
	if err != nil && !IsErrKeyNotFound(err) {
		return err
	}
	p.Key = model.PendingKey(targetID)
	p.TargetID = targetID
	p.Op = op
	p.MarkedAt = now
	return r.db.Set(p)
}

// RecordAttempt increments the attempt counter of a pending marker.
func (r *SyncRepo) RecordAttempt(targetID string) error {
	p := &model.PendingChange{}
	if err := r.db.Get(model.PendingKey(targetID), p); err != nil {
		if IsErrKeyNotFound(err) {
			return nil
		}
		return err
	}
	p.Attempts++
	return r.db.Set(p)
}

// ClearPending removes the marker for targetID.
func (r *SyncRepo) ClearPending(targetID string) error {
	return r.db.Delete(model.PendingKey(targetID))
}

// Pending lists every pending marker.
func (r *SyncRepo) Pending() ([]*model.PendingChange, error) {
	return GetAllByPrefix(r.db, model.PrefixPending, func() *model.PendingChange {
		return &model.PendingChange{}
	})
}

// ClearAllPending removes every pending marker.
func (r *SyncRepo) ClearAllPending() error {
	return r.db.Update(func(txn *Txn) error {
		return txn.DeletePrefix(model.PrefixPending)
	})
}
