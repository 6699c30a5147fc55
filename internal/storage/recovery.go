package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/logging"
)

// RecoveryStatus represents the result of a database health check.
type RecoveryStatus struct {
	Healthy    bool      `json:"healthy"`
	Corrupted  bool      `json:"corrupted"`
	LastCheck  time.Time `json:"last_check"`
	KeyCount   int       `json:"key_count"`
	ErrorCount int       `json:"error_count"`
	Errors     []string  `json:"errors,omitempty"`
}

// CheckDatabaseIntegrity reads every value in the namespace and reports keys
// whose value cannot be read or is not valid JSON.
func CheckDatabaseIntegrity(db *DB) *RecoveryStatus {
	status := &RecoveryStatus{
		LastCheck: time.Now(),
		Healthy:   true,
	}

	if db == nil || db.db == nil {
		status.Healthy = false
		status.Corrupted = true
		status.Errors = append(status.Errors, "database not initialized")
		return status
	}

	err := db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			status.KeyCount++
			err := item.Value(func(val []byte) error {
				if !json.Valid(val) {
					return fmt.Errorf("invalid JSON")
				}
				return nil
			})
			if err != nil {
				status.Errors = append(status.Errors, fmt.Sprintf("%s: %v", item.Key(), err))
				status.ErrorCount++
			}
		}
		return nil
	})

	if err != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("iteration error: %v", err))
		status.ErrorCount++
	}

	if status.ErrorCount > 0 {
		status.Healthy = false
		status.Corrupted = true
	}

	return status
}

// DumpRaw returns every readable key with its decoded value. Values that are
// not JSON are returned as strings; unreadable entries are skipped.
func DumpRaw(db *DB, prefix string) (map[string]any, error) {
	out := make(map[string]any)

	err := db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))

			err := item.Value(func(val []byte) error {
				var v any
				if json.Unmarshal(val, &v) == nil {
					out[key] = v
				} else {
					out[key] = string(val)
				}
				return nil
			})
			if err != nil {
				logging.Warn("skipping unreadable entry", "entry", key, logging.KeyError, err)
			}
		}
		return nil
	})

	return out, err
}

// IsDatabaseCorrupted checks if the given error indicates database corruption.
func IsDatabaseCorrupted(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, errors.ErrDatabaseCorrupted) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"checksum mismatch", "corrupt", "unexpected eof", "bad magic", "truncated"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
