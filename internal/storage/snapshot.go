package storage

import (
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// Dataset is the user data that export, import and sync move as a unit.
type Dataset struct {
	Records []*model.PracticeRecord
	Options []*model.PracticeOption
	Profile *model.UserProfile
}

// ReadDataset reads records, options and profile from one consistent view.
// A missing profile is returned as nil.
func (d *DB) ReadDataset() (*Dataset, error) {
	ds := &Dataset{}
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		if ds.Records, err = scanPrefix(txn, model.PrefixRecord, func() *model.PracticeRecord {
			return &model.PracticeRecord{}
		}); err != nil {
			return err
		}
		if ds.Options, err = scanPrefix(txn, model.PrefixOption, func() *model.PracticeOption {
			return &model.PracticeOption{}
		}); err != nil {
			return err
		}

		item, err := txn.Get([]byte(model.KeyProfile))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			p := &model.UserProfile{}
			if err := json.Unmarshal(val, p); err != nil {
				return err
			}
			p.Key = model.KeyProfile
			ds.Profile = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	SortOptions(ds.Options)
	return ds, nil
}

// ReplaceDataset atomically swaps all records and options (and the profile,
// when non-nil) for the given ones. Either every write lands or none does.
func (d *DB) ReplaceDataset(ds *Dataset) error {
	return d.Update(func(txn *Txn) error {
		if err := txn.DeletePrefix(model.PrefixRecord); err != nil {
			return err
		}
		if err := txn.DeletePrefix(model.PrefixOption); err != nil {
			return err
		}
		for _, r := range ds.Records {
			r.Key = model.RecordKey(r.ID)
			if err := txn.Set(r); err != nil {
				return err
			}
		}
		for _, o := range ds.Options {
			o.Key = model.OptionKey(o.ID)
			if err := txn.Set(o); err != nil {
				return err
			}
		}
		if ds.Profile != nil {
			ds.Profile.Key = model.KeyProfile
			if err := txn.Set(ds.Profile); err != nil {
				return err
			}
		}
		return nil
	})
}

// ClearUserData removes every record, option, the profile, the timer state,
// pending markers and both diagnostic logs in one transaction. Device
// settings and account metadata survive.
func (d *DB) ClearUserData() error {
	return d.Update(func(txn *Txn) error {
		for _, prefix := range []string{model.PrefixRecord, model.PrefixOption, model.PrefixPending} {
			if err := txn.DeletePrefix(prefix); err != nil {
				return err
			}
		}
		for _, key := range []string{model.KeyProfile, model.KeyTimer, model.KeySyncLogs, model.KeyExportLog} {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanPrefix[T model.Model](txn *badger.Txn, prefix string, newFunc func() T) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var results []T
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		err := item.Value(func(val []byte) error {
			v := newFunc()
			if err := json.Unmarshal(val, v); err != nil {
				return err
			}
			v.SetKey(string(item.KeyCopy(nil)))
			results = append(results, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
