package cloudsync

import (
	"sync"
	"time"

	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
)

// ledger records sync outcomes: the bounded sync log, the failed id list
// and the status. Mirror goroutines share it, so meta updates are serialized.
type ledger struct {
	mu   sync.Mutex
	repo *storage.SyncRepo
	cfg  config.SyncConfig
	now  func() time.Time

	subMu sync.RWMutex
	subs  []func(model.SyncStatus)
}

func (l *ledger) bounds() storage.LogBounds {
	return storage.LogBounds{
		MaxEntries:    l.cfg.MaxLogEntries,
		MaxBytes:      l.cfg.MaxLogBytes,
		TruncateTo:    l.cfg.TruncatedLogEntries,
		ErrorTruncate: l.cfg.ErrorTruncate,
	}
}

// log appends a sync log line. Failures to write the log are only logged.
func (l *ledger) log(action, recordID string, err error) {
	entry := model.SyncLogEntry{
		At:       l.now().UTC(),
		Action:   action,
		Success:  err == nil,
		RecordID: recordID,
	}
	if err != nil {
		entry.Error = logging.SanitizeLogMessage(err.Error())
	}

	l.mu.Lock()
	werr := l.repo.AppendLog(entry, l.bounds())
	l.mu.Unlock()
	if werr != nil {
		logging.Warn("sync log write failed", logging.KeyError, werr)
	}
}

func (l *ledger) update(fn func(meta *model.SyncMeta)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.UpdateMeta(fn)
}

func (l *ledger) meta() (*model.SyncMeta, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.Meta()
}

func (l *ledger) failed(id string) {
	err := l.update(func(m *model.SyncMeta) { m.AddFailedID(id, l.cfg.MaxFailedIDs) })
	if err != nil {
		logging.Warn("recording failed sync id", logging.KeyRecordID, id, logging.KeyError, err)
	}
}

func (l *ledger) succeeded(id string) {
	err := l.update(func(m *model.SyncMeta) { m.RemoveFailedID(id) })
	if err != nil {
		logging.Warn("clearing failed sync id", logging.KeyRecordID, id, logging.KeyError, err)
	}
}

// setStatus persists the status and notifies subscribers.
func (l *ledger) setStatus(status model.SyncStatus, cause error) {
	err := l.update(func(m *model.SyncMeta) {
		m.Status = status
		switch status {
		case model.SyncSuccess:
			now := l.now().UTC()
			m.LastSyncedAt = &now
			m.LastError = ""
		case model.SyncError:
			if cause != nil {
				m.LastError = storage.TruncateMessage(cause.Error(), l.cfg.ErrorTruncate)
			}
		}
	})
	if err != nil {
		logging.Warn("saving sync status", logging.KeyStatus, string(status), logging.KeyError, err)
	}

	l.subMu.RLock()
	subs := append([]func(model.SyncStatus){}, l.subs...)
	l.subMu.RUnlock()
	for _, fn := range subs {
		fn(status)
	}
}
