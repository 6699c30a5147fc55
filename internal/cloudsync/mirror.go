package cloudsync

import (
	"context"

	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
)

// mirrorJob is one best-effort remote write.
type mirrorJob struct {
	action string
	target string
	push   func(ctx context.Context) error
}

// Attach subscribes the mirror to journal mutations and starts its worker.
// Writes are applied one at a time in mutation order.
func (r *Reconciler) Attach() {
	r.qMu.Lock()
	if r.queue == nil {
		r.queue = make(chan mirrorJob, mirrorQueueSize)
		go r.worker(r.queue)
	}
	r.qMu.Unlock()
	r.journal.Subscribe(r.observe)
}

// Wait blocks until every queued mirror write has finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// Close waits for queued writes and stops the worker. Later mutations are
// only marked pending.
func (r *Reconciler) Close() {
	r.qMu.Lock()
	if r.closed || r.queue == nil {
		r.closed = true
		r.qMu.Unlock()
		return
	}
	r.closed = true
	r.qMu.Unlock()

	r.wg.Wait()
	close(r.queue)
}

func (r *Reconciler) worker(queue <-chan mirrorJob) {
	for job := range queue {
		r.run(job)
		r.wg.Done()
	}
}

// mirroring reports whether local changes should be pushed: an account is
// attached and no conflict is waiting for the user.
func (r *Reconciler) mirroring() bool {
	meta, err := r.l.meta()
	if err != nil {
		return false
	}
	return meta.SignedIn() && meta.Conflict == nil
}

// observe runs on the mutating goroutine, so it only marks the change
// pending and queues the write.
func (r *Reconciler) observe(c journal.Change) {
	var job mirrorJob
	var op model.PendingOp

	switch c.Kind {
	case journal.RecordSaved:
		if c.Record == nil {
			return
		}
		rec := *c.Record.Clone()
		op = model.PendingUpsert
		job = mirrorJob{action: "upsert", target: rec.ID, push: func(ctx context.Context) error {
			return r.remote.UpsertRecords(ctx, []model.PracticeRecord{rec})
		}}

	case journal.RecordDeleted:
		id := c.RecordID
		op = model.PendingDelete
		job = mirrorJob{action: "delete", target: id, push: func(ctx context.Context) error {
			return r.remote.DeleteRecord(ctx, id)
		}}

	case journal.OptionsChanged:
		op = model.PendingOptions
		job = mirrorJob{action: "options", target: model.PendingOptionsTarget, push: func(ctx context.Context) error {
			opts, err := r.journal.Options()
			if err != nil {
				return err
			}
			return r.remote.ReplaceOptions(ctx, optionValues(opts))
		}}

	case journal.ProfileChanged:
		op = model.PendingProfile
		job = mirrorJob{action: "profile", target: model.PendingProfileTarget, push: func(ctx context.Context) error {
			p, err := r.journal.Profile()
			if err != nil {
				return err
			}
			return r.remote.UploadProfile(ctx, p)
		}}

	default:
		// whole-dataset swaps come from sync passes, imports and clears,
		// which talk to the backend themselves
		return
	}

	if !r.mirroring() {
		return
	}
	if err := r.l.repo.MarkPending(job.target, op, r.l.now().UTC()); err != nil {
		logging.Warn("marking change pending", logging.KeyRecordID, job.target, logging.KeyError, err)
	}
	if r.running.Load() {
		// the running pass or the next one picks it up
		return
	}
	r.enqueue(job)
}

func (r *Reconciler) enqueue(job mirrorJob) {
	r.qMu.Lock()
	defer r.qMu.Unlock()
	if r.closed || r.queue == nil {
		return
	}
	r.wg.Add(1)
	select {
	case r.queue <- job:
	default:
		r.wg.Done()
		logging.Warn("mirror queue full, change left pending", logging.KeyRecordID, job.target)
	}
}

// run performs one write and settles its marker.
func (r *Reconciler) run(job mirrorJob) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	ctx, log := logging.StartPass(ctx, "mirror."+job.action)

	err := job.push(ctx)
	isRecord := job.target != model.PendingOptionsTarget && job.target != model.PendingProfileTarget
	recordID := ""
	if isRecord {
		recordID = job.target
	}
	r.l.log(job.action, recordID, err)

	if err != nil {
		log.Warn("mirror write failed", logging.KeyRecordID, job.target, logging.KeyError, err)
		if aerr := r.l.repo.RecordAttempt(job.target); aerr != nil {
			log.Warn("recording mirror attempt", logging.KeyError, aerr)
		}
		if isRecord {
			r.l.failed(job.target)
		}
		return
	}

	if cerr := r.l.repo.ClearPending(job.target); cerr != nil {
		log.Warn("clearing pending change", logging.KeyError, cerr)
	}
	if isRecord {
		r.l.succeeded(job.target)
	}
}
