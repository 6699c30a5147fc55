package storage

import (
	"encoding/json"
	stderrors "errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/model"
)

var (
	// ErrKeyNotFound is returned when a key is not found in the database.
	ErrKeyNotFound = stderrors.New("key not found")
)

// IsErrKeyNotFound returns true if the error is a key not found error.
func IsErrKeyNotFound(err error) bool {
	return stderrors.Is(err, ErrKeyNotFound) || stderrors.Is(err, badger.ErrKeyNotFound)
}

// Get retrieves a value by key and unmarshals it into v.
func (d *DB) Get(key string, v model.Model) error {
	return d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return errors.NewStorageError("read", err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, v); err != nil {
				return err
			}
			v.SetKey(key)
			return nil
		})
	})
}

// GetBytes retrieves raw bytes by key.
func (d *DB) GetBytes(key string) ([]byte, error) {
	var result []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return errors.NewStorageError("read", err)
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

// Set stores a model in the database.
func (d *DB) Set(v model.Model) error {
	return d.Update(func(txn *Txn) error {
		return txn.Set(v)
	})
}

// SetBytes stores raw bytes with the given key.
func (d *DB) SetBytes(key string, data []byte) error {
	return d.Update(func(txn *Txn) error {
		return txn.SetBytes(key, data)
	})
}

// Delete removes a key from the database. Deleting a missing key is a no-op.
func (d *DB) Delete(key string) error {
	return d.Update(func(txn *Txn) error {
		return txn.Delete(key)
	})
}

// Exists checks if a key exists in the database.
func (d *DB) Exists(key string) (bool, error) {
	var exists bool
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// ListByPrefix retrieves all keys with the given prefix.
func (d *DB) ListByPrefix(prefix string) ([]string, error) {
	var keys []string
	err := d.db.View(func(txn *badger.Txn) error {
		keys = keysWithPrefix(txn, prefix)
		return nil
	})
	return keys, err
}

// CountByPrefix counts the keys with the given prefix.
func (d *DB) CountByPrefix(prefix string) (int, error) {
	keys, err := d.ListByPrefix(prefix)
	return len(keys), err
}

// GetAllByPrefix retrieves all values with the given prefix.
func GetAllByPrefix[T model.Model](d *DB, prefix string, newFunc func() T) ([]T, error) {
	var results []T
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		results, err = scanPrefix(txn, prefix, newFunc)
		return err
	})
	return results, err
}

// DropAll removes every key of the database.
func (d *DB) DropAll() error {
	if err := d.db.DropAll(); err != nil {
		return errors.NewStorageError("drop all", err)
	}
	return nil
}

// Txn is a read-write transaction. All writes made through one Txn become
// visible together or not at all.
type Txn struct {
	txn *badger.Txn
}

// Update runs fn in a read-write transaction and commits it if fn returns nil.
// Errors from fn are returned unchanged; commit failures become StorageError.
func (d *DB) Update(fn func(txn *Txn) error) error {
	txn := d.db.NewTransaction(true)
	defer txn.Discard()

	if err := fn(&Txn{txn: txn}); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return errors.NewStorageError("commit", err)
	}
	return nil
}

// Set stores a model under its key.
func (t *Txn) Set(v model.Model) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.SetBytes(v.GetKey(), data)
}

// SetBytes stores raw bytes under key.
func (t *Txn) SetBytes(key string, data []byte) error {
	if err := t.txn.Set([]byte(key), data); err != nil {
		return errors.NewStorageError("write "+key, err)
	}
	return nil
}

// Delete removes key.
func (t *Txn) Delete(key string) error {
	if err := t.txn.Delete([]byte(key)); err != nil {
		return errors.NewStorageError("delete "+key, err)
	}
	return nil
}

// DeletePrefix removes every key with the given prefix.
func (t *Txn) DeletePrefix(prefix string) error {
	for _, key := range keysWithPrefix(t.txn, prefix) {
		if err := t.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func keysWithPrefix(txn *badger.Txn, prefix string) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys []string
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Item().KeyCopy(nil)))
	}
	return keys
}
