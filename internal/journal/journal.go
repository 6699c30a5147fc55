// Package journal is the local record store: validated CRUD over practice
// records, options and the profile, plus snapshot export and import.
//
// All mutations go through a Journal. A mutation is applied in a single
// storage transaction while the journal's write lock is held, so readers
// never observe a half-applied change.
package journal

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
)

// ChangeKind identifies a journal mutation.
type ChangeKind string

const (
	RecordSaved    ChangeKind = "record_saved"
	RecordDeleted  ChangeKind = "record_deleted"
	OptionsChanged ChangeKind = "options_changed"
	ProfileChanged ChangeKind = "profile_changed"
	// Replaced is emitted after an import or a sync pass swapped the whole dataset.
	Replaced ChangeKind = "replaced"
	Cleared  ChangeKind = "cleared"
)

// Change describes a committed mutation.
type Change struct {
	Kind     ChangeKind
	RecordID string
	Record   *model.PracticeRecord // copy of the saved record for RecordSaved
}

// Observer is notified after a mutation is committed. Observers run
// synchronously on the mutating goroutine and must not call back into
// mutating journal methods.
type Observer func(Change)

// Journal is the local record store.
type Journal struct {
	mu sync.RWMutex

	db       *storage.DB
	records  *storage.RecordRepo
	options  *storage.OptionRepo
	profiles *storage.ProfileRepo

	now   func() time.Time
	newID func() string

	obsMu     sync.RWMutex
	observers []Observer
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// WithIDGenerator overrides record and option id generation.
func WithIDGenerator(gen func() string) Option {
	return func(j *Journal) { j.newID = gen }
}

// New opens a journal over db and seeds the default options on first run.
func New(db *storage.DB, opts ...Option) (*Journal, error) {
	j := &Journal{
		db:       db,
		records:  storage.NewRecordRepo(db),
		options:  storage.NewOptionRepo(db),
		profiles: storage.NewProfileRepo(db),
		now:      time.Now,
		newID:    newUUID,
	}
	for _, opt := range opts {
		opt(j)
	}

	seeded, err := j.options.EnsureDefaults(j.now())
	if err != nil {
		return nil, errors.NewStorageError("seed options", err)
	}
	if seeded {
		logging.DebugLog("seeded default options")
	}
	return j, nil
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Subscribe registers an observer for committed mutations.
func (j *Journal) Subscribe(obs Observer) {
	j.obsMu.Lock()
	defer j.obsMu.Unlock()
	j.observers = append(j.observers, obs)
}

func (j *Journal) emit(c Change) {
	j.obsMu.RLock()
	observers := append([]Observer(nil), j.observers...)
	j.obsMu.RUnlock()
	for _, obs := range observers {
		obs(c)
	}
}

// Now returns the journal's current time.
func (j *Journal) Now() time.Time {
	return j.now()
}

// checkSpace refuses writes when the data directory is nearly full.
func (j *Journal) checkSpace() error {
	if j.db.Path() == "" {
		return nil
	}
	return storage.CheckDiskSpace(j.db.Path())
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *errors.StorageError
	if errors.As(err, &se) {
		return err
	}
	return errors.NewStorageError(op, err)
}

// SortRecords orders records newest practice day first. Equal days are
// ordered by creation time, most recent first, then by id.
func SortRecords(recs []*model.PracticeRecord) {
	sort.SliceStable(recs, func(a, b int) bool {
		ra, rb := recs[a], recs[b]
		if ra.Date != rb.Date {
			return ra.Date > rb.Date
		}
		if !ra.CreatedAt.Equal(rb.CreatedAt) {
			return ra.CreatedAt.After(rb.CreatedAt)
		}
		return ra.ID > rb.ID
	})
}

// maxExportLog is read from config so tests can shrink it.
func maxExportLog() int {
	return config.Global.Sync.MaxExportLogEntries
}
