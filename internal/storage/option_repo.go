package storage

import (
	"sort"
	"time"

	"github.com/ashtangalog/ashtanga/internal/model"
)

// OptionRepo provides CRUD operations for practice options.
type OptionRepo struct {
	db *DB
}

// NewOptionRepo creates a new option repository.
func NewOptionRepo(db *DB) *OptionRepo {
	return &OptionRepo{db: db}
}

// Get retrieves an option by id.
func (r *OptionRepo) Get(id string) (*model.PracticeOption, error) {
	opt := &model.PracticeOption{}
	if err := r.db.Get(model.OptionKey(id), opt); err != nil {
		return nil, err
	}
	return opt, nil
}

// Save creates or overwrites an option.
func (r *OptionRepo) Save(opt *model.PracticeOption) error {
	opt.Key = model.OptionKey(opt.ID)
	return r.db.Set(opt)
}

// Delete removes an option.
func (r *OptionRepo) Delete(id string) error {
	return r.db.Delete(model.OptionKey(id))
}

// List returns every stored option ordered by creation time, then id.
func (r *OptionRepo) List() ([]*model.PracticeOption, error) {
	opts, err := GetAllByPrefix(r.db, model.PrefixOption, func() *model.PracticeOption {
		return &model.PracticeOption{}
	})
	if err != nil {
		return nil, err
	}
	SortOptions(opts)
	return opts, nil
}

// Count returns the number of stored options.
func (r *OptionRepo) Count() (int, error) {
	return r.db.CountByPrefix(model.PrefixOption)
}

// EnsureDefaults seeds the default options when none are stored.
// Returns true if defaults were written.
func (r *OptionRepo) EnsureDefaults(now time.Time) (bool, error) {
	n, err := r.Count()
	if err != nil || n > 0 {
		return false, err
	}
	err = r.db.Update(func(txn *Txn) error {
		for _, o := range model.DefaultOptions(now) {
			if err := txn.Set(&o); err != nil {
				return err
			}
		}
		return nil
	})
	return err == nil, err
}

// SortOptions orders options by creation time, then id.
func SortOptions(opts []*model.PracticeOption) {
	sort.SliceStable(opts, func(i, j int) bool {
		if !opts[i].CreatedAt.Equal(opts[j].CreatedAt) {
			return opts[i].CreatedAt.Before(opts[j].CreatedAt)
		}
		return opts[i].ID < opts[j].ID
	})
}
