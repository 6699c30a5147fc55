// Package cloudsync keeps the local journal and the cloud copy converged.
//
// A Reconciler runs explicit sync passes (first upload, pull, conflict
// detection and resolution) and mirrors each later local mutation to the
// backend best-effort. Mirror failures leave a pending marker and a failed
// id behind for the next pass; they never fail the local mutation.
package cloudsync

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
)

// Remote is the record database of the signed-in user.
type Remote interface {
	FetchAll(ctx context.Context) (*model.Snapshot, error)
	ReplaceAll(ctx context.Context, snap *model.Snapshot) error
	UpsertRecords(ctx context.Context, recs []model.PracticeRecord) error
	DeleteRecord(ctx context.Context, id string) error
	UploadProfile(ctx context.Context, p *model.UserProfile) error
	ReplaceOptions(ctx context.Context, opts []model.PracticeOption) error
}

// Outcome is what a sync pass did.
type Outcome string

const (
	OutcomeUploaded Outcome = "uploaded"
	OutcomePulled   Outcome = "pulled"
	OutcomeInSync   Outcome = "in_sync"
	OutcomeMerged   Outcome = "merged"
	OutcomeConflict Outcome = "conflict"
	OutcomeResolved Outcome = "resolved"
)

// Result summarizes a sync pass.
type Result struct {
	Outcome     Outcome `json:"outcome"`
	LocalCount  int     `json:"local_count"`
	RemoteCount int     `json:"remote_count"`
	Uploaded    int     `json:"uploaded"`
	Pulled      int     `json:"pulled"`
	Retried     int     `json:"retried"`
}

// mirrorQueueSize bounds queued mirror writes. Overflow stays pending.
const mirrorQueueSize = 64

// Reconciler owns sync passes and the mirror.
type Reconciler struct {
	journal *journal.Journal
	remote  Remote
	l       *ledger
	timeout time.Duration

	running atomic.Bool

	qMu    sync.Mutex
	queue  chan mirrorJob
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.l.now = now }
}

// New creates a reconciler between j and remote.
func New(j *journal.Journal, remote Remote, repo *storage.SyncRepo, cfg config.SyncConfig, opts ...Option) *Reconciler {
	r := &Reconciler{
		journal: j,
		remote:  remote,
		l:       &ledger{repo: repo, cfg: cfg, now: time.Now},
		timeout: cfg.MirrorTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.timeout <= 0 {
		r.timeout = 15 * time.Second
	}
	return r
}

// Subscribe registers fn for status changes.
func (r *Reconciler) Subscribe(fn func(model.SyncStatus)) {
	r.l.subMu.Lock()
	defer r.l.subMu.Unlock()
	r.l.subs = append(r.l.subs, fn)
}

// Meta returns the persisted account and sync state.
func (r *Reconciler) Meta() (*model.SyncMeta, error) {
	meta, err := r.l.meta()
	if err != nil {
		return nil, errors.NewStorageError("read sync state", err)
	}
	return meta, nil
}

// Logs returns the sync log, newest first.
func (r *Reconciler) Logs() ([]model.SyncLogEntry, error) {
	return r.l.repo.Logs()
}

// ClearLogs empties the sync log.
func (r *Reconciler) ClearLogs() error {
	return r.l.repo.ClearLogs()
}

// Pending lists local changes not yet confirmed by the backend.
func (r *Reconciler) Pending() ([]*model.PendingChange, error) {
	return r.l.repo.Pending()
}

// Running reports whether a pass is in progress.
func (r *Reconciler) Running() bool {
	return r.running.Load()
}

func (r *Reconciler) begin() (*model.SyncMeta, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, errors.Refusal(errors.ErrSyncInProgress)
	}
	meta, err := r.Meta()
	if err != nil {
		r.running.Store(false)
		return nil, err
	}
	if !meta.SignedIn() {
		r.running.Store(false)
		return nil, errors.Refusal(errors.ErrNotSignedIn)
	}
	return meta, nil
}

// Sync runs one pass. Pending mirror writes are retried first, then the
// remote snapshot decides what happens:
//   - remote empty: local is uploaded as-is
//   - local empty: remote is pulled
//   - both non-empty with different record ids: a conflict is stored and
//     returned as *errors.ConflictError; nothing is changed on either side
//   - same record ids: edits are exchanged using the Merge rule
//
// Failures set the status to error and leave local data untouched.
func (r *Reconciler) Sync(ctx context.Context) (*Result, error) {
	if _, err := r.begin(); err != nil {
		return nil, err
	}
	defer r.running.Store(false)

	ctx, log := logging.StartPass(ctx, "sync")
	start := time.Now()
	r.l.setStatus(model.SyncSyncing, nil)
	res, err := r.sync(ctx)
	r.finish(log, "sync", res, err)
	logging.LogOperation("cloudsync.sync", start, logging.KeyRequestID, logging.RequestIDFromContext(ctx))
	return res, err
}

func (r *Reconciler) sync(ctx context.Context) (*Result, error) {
	res := &Result{}

	retried, err := r.retryPending(ctx)
	res.Retried = retried
	if err != nil {
		return res, errors.NewSyncError("retry", err)
	}

	remote, err := r.remote.FetchAll(ctx)
	if err != nil {
		return res, errors.NewSyncError("fetch", err)
	}
	local, err := r.journal.Snapshot()
	if err != nil {
		return res, errors.NewSyncError("read local", err)
	}
	res.LocalCount = len(local.Records)
	res.RemoteCount = len(remote.Records)

	switch {
	case remote.Empty() && (!local.Empty() || remote.Profile == nil):
		if err := r.remote.ReplaceAll(ctx, local); err != nil {
			return res, errors.NewSyncError("upload", err)
		}
		res.Outcome = OutcomeUploaded
		res.Uploaded = len(local.Records)

	case local.Empty():
		if err := r.pull(withLocalAvatar(remote, local)); err != nil {
			return res, err
		}
		res.Outcome = OutcomePulled
		res.Pulled = len(remote.Records)

	case !sameIDs(local, remote):
		res.Outcome = OutcomeConflict
		return res, &errors.ConflictError{LocalCount: res.LocalCount, RemoteCount: res.RemoteCount}

	default:
		if err := r.converge(ctx, local, remote, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// converge exchanges edits between two snapshots holding the same ids.
func (r *Reconciler) converge(ctx context.Context, local, remote *model.Snapshot, res *Result) error {
	merged := Merge(local, remote)

	toRemote := changedRecords(remote, merged)
	if len(toRemote) > 0 {
		if err := r.remote.UpsertRecords(ctx, toRemote); err != nil {
			return errors.NewSyncError("upload", err)
		}
	}
	if !optionsEqual(remote.Options, merged.Options) {
		if err := r.remote.ReplaceOptions(ctx, merged.Options); err != nil {
			return errors.NewSyncError("upload", err)
		}
	}
	if merged.Profile != nil && !profileEqual(remote.Profile, merged.Profile) {
		if err := r.remote.UploadProfile(ctx, merged.Profile); err != nil {
			return errors.NewSyncError("upload", err)
		}
	}

	toLocal := changedRecords(local, merged)
	if len(toLocal) > 0 || !optionsEqual(local.Options, merged.Options) || !profileEqual(local.Profile, merged.Profile) {
		if err := r.pull(merged); err != nil {
			return err
		}
	}

	res.Uploaded = len(toRemote)
	res.Pulled = len(toLocal)
	res.Outcome = OutcomeInSync
	if res.Uploaded > 0 || res.Pulled > 0 {
		res.Outcome = OutcomeMerged
	}
	return nil
}

// pull replaces local data with snap after validating it.
func (r *Reconciler) pull(snap *model.Snapshot) error {
	if err := journal.ValidateSnapshot(snap); err != nil {
		return errors.NewSyncError("pull", err)
	}
	if err := r.journal.Replace(snap); err != nil {
		return errors.NewSyncError("pull", err)
	}
	return nil
}

// finish records the outcome of a pass.
func (r *Reconciler) finish(log *slog.Logger, action string, res *Result, err error) {
	if ce, ok := errors.AsConflictError(err); ok {
		conflict := &model.PendingConflict{
			LocalCount:  ce.LocalCount,
			RemoteCount: ce.RemoteCount,
			DetectedAt:  r.l.now().UTC(),
		}
		if uerr := r.l.update(func(m *model.SyncMeta) { m.Conflict = conflict }); uerr != nil {
			log.Warn("saving sync conflict", logging.KeyError, uerr)
		}
		r.l.log("conflict", "", nil)
		r.l.setStatus(model.SyncConflict, nil)
		log.Info("sync conflict detected", "local", ce.LocalCount, "remote", ce.RemoteCount)
		return
	}
	if err != nil {
		r.l.log(action, "", err)
		r.l.setStatus(model.SyncError, err)
		log.Warn("sync failed", "action", action, logging.KeyError, err)
		return
	}
	if uerr := r.l.update(func(m *model.SyncMeta) { m.Conflict = nil }); uerr != nil {
		log.Warn("clearing sync conflict", logging.KeyError, uerr)
	}
	r.l.log(action, "", nil)
	r.l.setStatus(model.SyncSuccess, nil)
	if res != nil {
		log.Info("sync complete", "outcome", string(res.Outcome),
			"uploaded", res.Uploaded, "pulled", res.Pulled)
	}
}

// Resolve settles a stored conflict with the user's choice:
//   - use-remote discards local records and pulls the remote ones
//   - use-local overwrites the remote copy with local data
//   - merge applies Merge and writes the result to both sides
func (r *Reconciler) Resolve(ctx context.Context, choice model.ConflictChoice) (*Result, error) {
	switch choice {
	case model.ChoiceUseRemote, model.ChoiceUseLocal, model.ChoiceMerge:
	default:
		return nil, errors.NewValidationErrorWithValue("choice", string(choice), "unknown resolution",
			"Use one of: use-remote, use-local, merge")
	}

	meta, err := r.begin()
	if err != nil {
		return nil, err
	}
	defer r.running.Store(false)
	if meta.Conflict == nil {
		return nil, errors.Refusal(errors.ErrNoConflict)
	}

	ctx, log := logging.StartPass(ctx, "resolve")
	r.l.setStatus(model.SyncSyncing, nil)
	res, err := r.resolve(ctx, choice)
	if err == nil {
		r.clearAfterResolve(log)
	}
	r.finish(log, "resolve:"+string(choice), res, err)
	return res, err
}

func (r *Reconciler) resolve(ctx context.Context, choice model.ConflictChoice) (*Result, error) {
	remote, err := r.remote.FetchAll(ctx)
	if err != nil {
		return nil, errors.NewSyncError("fetch", err)
	}
	local, err := r.journal.Snapshot()
	if err != nil {
		return nil, errors.NewSyncError("read local", err)
	}
	res := &Result{Outcome: OutcomeResolved, LocalCount: len(local.Records), RemoteCount: len(remote.Records)}

	switch choice {
	case model.ChoiceUseRemote:
		if err := r.pull(withLocalAvatar(remote, local)); err != nil {
			return res, err
		}
		res.Pulled = len(remote.Records)

	case model.ChoiceUseLocal:
		if err := r.remote.ReplaceAll(ctx, local); err != nil {
			return res, errors.NewSyncError("upload", err)
		}
		res.Uploaded = len(local.Records)

	case model.ChoiceMerge:
		merged := Merge(local, remote)
		if err := journal.ValidateSnapshot(merged); err != nil {
			return res, errors.NewSyncError("merge", err)
		}
		if err := r.remote.ReplaceAll(ctx, merged); err != nil {
			return res, errors.NewSyncError("upload", err)
		}
		if err := r.pull(merged); err != nil {
			return res, err
		}
		res.Uploaded = len(changedRecords(remote, merged))
		res.Pulled = len(changedRecords(local, merged))
	}
	return res, nil
}

// clearAfterResolve drops markers made obsolete by a full resolution.
func (r *Reconciler) clearAfterResolve(log *slog.Logger) {
	if err := r.l.repo.ClearAllPending(); err != nil {
		log.Warn("clearing pending changes", logging.KeyError, err)
	}
	if err := r.l.update(func(m *model.SyncMeta) { m.FailedIDs = nil }); err != nil {
		log.Warn("clearing failed ids", logging.KeyError, err)
	}
}

// RetryPending pushes every pending and failed change again.
func (r *Reconciler) RetryPending(ctx context.Context) (int, error) {
	if _, err := r.begin(); err != nil {
		return 0, err
	}
	defer r.running.Store(false)

	ctx, log := logging.StartPass(ctx, "retry")
	n, err := r.retryPending(ctx)
	if err != nil {
		log.Warn("retry failed", logging.KeyCount, n, logging.KeyError, err)
		r.l.log("retry", "", err)
		return n, errors.NewSyncError("retry", err)
	}
	r.l.log("retry", "", nil)
	return n, nil
}

// retryPending pushes pending markers and failed ids. Record upserts go
// out in one batch, deduplicated by id.
func (r *Reconciler) retryPending(ctx context.Context) (int, error) {
	pending, err := r.l.repo.Pending()
	if err != nil {
		return 0, errors.NewStorageError("read pending", err)
	}
	meta, err := r.l.meta()
	if err != nil {
		return 0, errors.NewStorageError("read sync state", err)
	}

	ops := make(map[string]model.PendingOp, len(pending)+len(meta.FailedIDs))
	var order []string
	for _, p := range pending {
		if _, seen := ops[p.TargetID]; !seen {
			order = append(order, p.TargetID)
		}
		ops[p.TargetID] = p.Op
	}
	for _, id := range meta.FailedIDs {
		if _, seen := ops[id]; !seen {
			ops[id] = model.PendingUpsert
			order = append(order, id)
		}
	}
	if len(order) == 0 {
		return 0, nil
	}

	var (
		done     int
		firstErr error
		upserts  []model.PracticeRecord
	)
	fail := func(target string, err error) {
		if firstErr == nil {
			firstErr = err
		}
		_ = r.l.repo.RecordAttempt(target)
		if target != model.PendingOptionsTarget && target != model.PendingProfileTarget {
			r.l.failed(target)
		}
	}
	ok := func(target string) {
		_ = r.l.repo.ClearPending(target)
		r.l.succeeded(target)
		done++
	}

	for _, target := range order {
		switch ops[target] {
		case model.PendingUpsert:
			rec, err := r.journal.Record(target)
			if errors.IsNotFoundError(err) {
				// deleted since; a delete marker would have replaced this one
				_ = r.l.repo.ClearPending(target)
				r.l.succeeded(target)
				continue
			}
			if err != nil {
				fail(target, err)
				continue
			}
			upserts = append(upserts, *rec)

		case model.PendingDelete:
			if err := r.remote.DeleteRecord(ctx, target); err != nil {
				fail(target, err)
				r.l.log("delete", target, err)
				continue
			}
			ok(target)

		case model.PendingOptions:
			opts, err := r.journal.Options()
			if err == nil {
				err = r.remote.ReplaceOptions(ctx, optionValues(opts))
			}
			if err != nil {
				fail(target, err)
				continue
			}
			ok(target)

		case model.PendingProfile:
			p, err := r.journal.Profile()
			if err == nil {
				err = r.remote.UploadProfile(ctx, p)
			}
			if err != nil {
				fail(target, err)
				continue
			}
			ok(target)
		}
	}

	if len(upserts) > 0 {
		if err := r.remote.UpsertRecords(ctx, upserts); err != nil {
			for _, rec := range upserts {
				fail(rec.ID, err)
			}
			r.l.log("upsert", "", err)
		} else {
			for _, rec := range upserts {
				ok(rec.ID)
			}
		}
	}

	if done > 0 {
		logging.FromContext(ctx).Info("pending changes pushed", logging.KeyCount, done)
	}
	return done, firstErr
}

func optionValues(opts []*model.PracticeOption) []model.PracticeOption {
	out := make([]model.PracticeOption, 0, len(opts))
	for _, o := range opts {
		out = append(out, *o)
	}
	return out
}

func optionsEqual(a, b []model.PracticeOption) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Label != b[i].Label || a[i].Notes != b[i].Notes {
			return false
		}
	}
	return true
}

// profileEqual compares the synced profile fields. The avatar never syncs.
func profileEqual(a, b *model.UserProfile) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Name == b.Name && a.Signature == b.Signature
}
