package cloudsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
)

var errOffline = errors.NewNetworkError("test", 0, "", errors.ErrNetworkUnavailable)

// fakeRemote is an in-memory backend.
type fakeRemote struct {
	mu      sync.Mutex
	records map[string]model.PracticeRecord
	options []model.PracticeOption
	profile *model.UserProfile
	fail    bool
	calls   map[string]int
	block   chan struct{}
	reqIDs  []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{records: map[string]model.PracticeRecord{}, calls: map[string]int{}}
}

func (f *fakeRemote) enter(op string) error {
	f.mu.Lock()
	block := f.block
	f.calls[op]++
	fail := f.fail
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if fail {
		return errOffline
	}
	return nil
}

func (f *fakeRemote) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) put(recs ...model.PracticeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range recs {
		f.records[r.ID] = r
	}
}

func (f *fakeRemote) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id := range f.records {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (f *fakeRemote) FetchAll(ctx context.Context) (*model.Snapshot, error) {
	if err := f.enter("fetch"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqIDs = append(f.reqIDs, logging.RequestIDFromContext(ctx))
	snap := &model.Snapshot{Version: 1, Records: []model.PracticeRecord{}, Options: append([]model.PracticeOption{}, f.options...)}
	for _, r := range f.records {
		snap.Records = append(snap.Records, r)
	}
	if f.profile != nil {
		p := *f.profile
		snap.Profile = &p
	}
	return snap, nil
}

func (f *fakeRemote) ReplaceAll(ctx context.Context, snap *model.Snapshot) error {
	if err := f.enter("replaceAll"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = map[string]model.PracticeRecord{}
	for _, r := range snap.Records {
		f.records[r.ID] = r
	}
	f.options = append([]model.PracticeOption{}, snap.Options...)
	if snap.Profile != nil {
		p := *snap.Profile
		p.Avatar = ""
		f.profile = &p
	}
	return nil
}

func (f *fakeRemote) UpsertRecords(ctx context.Context, recs []model.PracticeRecord) error {
	if err := f.enter("upsert"); err != nil {
		return err
	}
	f.put(recs...)
	return nil
}

func (f *fakeRemote) DeleteRecord(ctx context.Context, id string) error {
	if err := f.enter("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.records, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) UploadProfile(ctx context.Context, p *model.UserProfile) error {
	if err := f.enter("profile"); err != nil {
		return err
	}
	f.mu.Lock()
	cp := *p
	cp.Avatar = ""
	f.profile = &cp
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) ReplaceOptions(ctx context.Context, opts []model.PracticeOption) error {
	if err := f.enter("options"); err != nil {
		return err
	}
	f.mu.Lock()
	f.options = append([]model.PracticeOption{}, opts...)
	f.mu.Unlock()
	return nil
}

type fixture struct {
	j      *journal.Journal
	remote *fakeRemote
	r      *Reconciler
	repo   *storage.SyncRepo
	db     *storage.DB
	now    time.Time
}

func setup(t *testing.T, signedIn bool) *fixture {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 2, 1, 7, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	n := 0
	j, err := journal.New(db, journal.WithClock(clock), journal.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("local-%02d", n)
	}))
	require.NoError(t, err)

	repo := storage.NewSyncRepo(db)
	if signedIn {
		require.NoError(t, repo.SaveMeta(&model.SyncMeta{UserID: "u1", Email: "a@example.com", Status: model.SyncIdle}))
	}
	remote := newFakeRemote()
	cfg := config.DefaultRuntimeConfig().Sync
	cfg.MirrorTimeout = time.Second
	r := New(j, remote, repo, cfg, WithClock(clock))
	t.Cleanup(r.Close)
	return &fixture{j: j, remote: remote, r: r, repo: repo, db: db, now: now}
}

func (f *fixture) add(t *testing.T, date, notes string) *model.PracticeRecord {
	t.Helper()
	rec, err := f.j.AddRecord(journal.RecordInput{Date: date, Type: "Primary Mysore", Duration: 3600, Notes: notes})
	require.NoError(t, err)
	return rec
}

func remoteRecord(id, date string, at time.Time) model.PracticeRecord {
	return model.PracticeRecord{ID: id, Date: date, Type: "Second Led Class", Duration: 4000, Notes: "remote", Photos: []string{}, CreatedAt: at}
}

func localIDs(t *testing.T, j *journal.Journal) []string {
	t.Helper()
	recs, err := j.Records()
	require.NoError(t, err)
	var out []string
	for _, r := range recs {
		out = append(out, r.ID)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// Sync passes
// =============================================================================

func TestSyncRequiresAccount(t *testing.T) {
	f := setup(t, false)
	_, err := f.r.Sync(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNotSignedIn))
}

func TestFirstSyncUploadsLocal(t *testing.T) {
	f := setup(t, true)
	f.add(t, "2026-01-30", "a")
	f.add(t, "2026-01-31", "b")

	var statuses []model.SyncStatus
	f.r.Subscribe(func(s model.SyncStatus) { statuses = append(statuses, s) })

	res, err := f.r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUploaded, res.Outcome)
	assert.Equal(t, 2, res.Uploaded)
	assert.Equal(t, []string{"local-01", "local-02"}, f.remote.ids())
	assert.Equal(t, []model.SyncStatus{model.SyncSyncing, model.SyncSuccess}, statuses)

	meta, err := f.r.Meta()
	require.NoError(t, err)
	assert.Equal(t, model.SyncSuccess, meta.Status)
	require.NotNil(t, meta.LastSyncedAt)
}

func TestSyncPassCarriesRequestID(t *testing.T) {
	f := setup(t, true)
	f.add(t, "2026-01-30", "a")

	_, err := f.r.Sync(context.Background())
	require.NoError(t, err)
	_, err = f.r.Sync(logging.WithRequestID(context.Background(), "cli-1"))
	require.NoError(t, err)

	f.remote.mu.Lock()
	defer f.remote.mu.Unlock()
	require.Len(t, f.remote.reqIDs, 2)
	assert.Len(t, f.remote.reqIDs[0], 16)
	assert.Equal(t, "cli-1", f.remote.reqIDs[1])
}

func TestEmptyLocalPullsRemote(t *testing.T) {
	f := setup(t, true)
	f.remote.put(remoteRecord("r1", "2026-01-10", f.now), remoteRecord("r2", "2026-01-11", f.now))
	f.remote.profile = &model.UserProfile{ID: "p-remote", Name: "Remote Name", Signature: "sig"}

	_, err := f.j.UpdateProfile(journal.ProfilePatch{Avatar: ptr("data:image/jpeg;base64,AAAA")})
	require.NoError(t, err)

	res, err := f.r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomePulled, res.Outcome)
	assert.Equal(t, []string{"r1", "r2"}, localIDs(t, f.j))

	p, err := f.j.Profile()
	require.NoError(t, err)
	assert.Equal(t, "Remote Name", p.Name)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", p.Avatar, "avatar stays local")

	opts, err := f.j.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 6, "a remote without options gets the defaults")
}

func TestDivergedDataIsAConflict(t *testing.T) {
	f := setup(t, true)
	f.add(t, "2026-01-30", "local")
	f.remote.put(remoteRecord("r1", "2026-01-10", f.now))

	res, err := f.r.Sync(context.Background())
	require.Error(t, err)
	ce, ok := errors.AsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, 1, ce.LocalCount)
	assert.Equal(t, 1, ce.RemoteCount)
	assert.Equal(t, OutcomeConflict, res.Outcome)

	assert.Equal(t, []string{"local-01"}, localIDs(t, f.j), "local untouched")
	assert.Equal(t, []string{"r1"}, f.remote.ids(), "remote untouched")
	assert.Zero(t, f.remote.count("replaceAll"))

	meta, err := f.r.Meta()
	require.NoError(t, err)
	assert.Equal(t, model.SyncConflict, meta.Status)
	require.NotNil(t, meta.Conflict)
}

func TestFetchFailureLeavesLocalUntouched(t *testing.T) {
	f := setup(t, true)
	f.add(t, "2026-01-30", "local")
	f.remote.setFail(true)

	_, err := f.r.Sync(context.Background())
	require.Error(t, err)
	var se *errors.SyncError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "fetch", se.Stage)
	assert.True(t, errors.Is(err, errors.ErrNetworkUnavailable))

	assert.Equal(t, []string{"local-01"}, localIDs(t, f.j))
	meta, err := f.r.Meta()
	require.NoError(t, err)
	assert.Equal(t, model.SyncError, meta.Status)
	assert.NotEmpty(t, meta.LastError)

	logs, err := f.r.Logs()
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.False(t, logs[0].Success)

	// retrying after recovery is safe and creates no duplicates
	f.remote.setFail(false)
	_, err = f.r.Sync(context.Background())
	require.NoError(t, err)
	_, err = f.r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"local-01"}, f.remote.ids())
}

func TestSameIDsExchangeEdits(t *testing.T) {
	f := setup(t, true)
	a := f.add(t, "2026-01-30", "a")
	b := f.add(t, "2026-01-31", "b")
	_, err := f.r.Sync(context.Background())
	require.NoError(t, err)

	// edited remotely later than the local copy
	ra := *a
	ra.Notes = "edited elsewhere"
	ra.UpdatedAt = f.now.Add(time.Hour)
	f.remote.put(ra)

	// edited locally later than the remote copy, without a mirror
	rb := *b
	rb.Notes = "stale remote"
	rb.CreatedAt = f.now.Add(-2 * time.Hour)
	rb.UpdatedAt = f.now.Add(-time.Hour)
	f.remote.put(rb)

	res, err := f.r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeMerged, res.Outcome)
	assert.Equal(t, 1, res.Pulled)
	assert.Equal(t, 1, res.Uploaded)

	got, err := f.j.Record(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited elsewhere", got.Notes)

	snap, err := f.remote.FetchAll(context.Background())
	require.NoError(t, err)
	for _, r := range snap.Records {
		if r.ID == b.ID {
			assert.Equal(t, "b", r.Notes)
		}
	}

	res, err = f.r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeInSync, res.Outcome)
}

func TestSyncIsNotReentrant(t *testing.T) {
	f := setup(t, true)
	f.remote.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.r.Sync(context.Background())
		done <- err
	}()
	require.Eventually(t, f.r.Running, time.Second, time.Millisecond)

	_, err := f.r.Sync(context.Background())
	assert.True(t, errors.Is(err, errors.ErrSyncInProgress))
	_, err = f.r.Resolve(context.Background(), model.ChoiceMerge)
	assert.True(t, errors.Is(err, errors.ErrSyncInProgress))

	close(f.remote.block)
	require.NoError(t, <-done)
}

// =============================================================================
// Resolution
// =============================================================================

func conflicted(t *testing.T) *fixture {
	t.Helper()
	f := setup(t, true)
	f.add(t, "2026-01-30", "local")
	f.remote.put(remoteRecord("r1", "2026-01-10", f.now))
	_, err := f.r.Sync(context.Background())
	require.True(t, errors.IsConflictError(err))
	return f
}

func TestResolveWithoutConflict(t *testing.T) {
	f := setup(t, true)
	_, err := f.r.Resolve(context.Background(), model.ChoiceMerge)
	assert.True(t, errors.Is(err, errors.ErrNoConflict))

	_, err = f.r.Resolve(context.Background(), "sideways")
	assert.True(t, errors.IsValidationError(err))
}

func TestResolveUseRemote(t *testing.T) {
	f := conflicted(t)
	res, err := f.r.Resolve(context.Background(), model.ChoiceUseRemote)
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, []string{"r1"}, localIDs(t, f.j))
	assert.Equal(t, []string{"r1"}, f.remote.ids())

	meta, err := f.r.Meta()
	require.NoError(t, err)
	assert.Nil(t, meta.Conflict)
	assert.Equal(t, model.SyncSuccess, meta.Status)
}

func TestResolveUseLocal(t *testing.T) {
	f := conflicted(t)
	_, err := f.r.Resolve(context.Background(), model.ChoiceUseLocal)
	require.NoError(t, err)
	assert.Equal(t, []string{"local-01"}, localIDs(t, f.j))
	assert.Equal(t, []string{"local-01"}, f.remote.ids())
}

func TestResolveMerge(t *testing.T) {
	f := conflicted(t)
	_, err := f.r.Resolve(context.Background(), model.ChoiceMerge)
	require.NoError(t, err)
	want := []string{"local-01", "r1"}
	assert.Equal(t, want, localIDs(t, f.j))
	assert.Equal(t, want, f.remote.ids())

	// resolved state is in sync
	res, err := f.r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeInSync, res.Outcome)
}

func TestResolveFailureKeepsConflict(t *testing.T) {
	f := conflicted(t)
	f.remote.setFail(true)
	_, err := f.r.Resolve(context.Background(), model.ChoiceMerge)
	require.Error(t, err)

	meta, err := f.r.Meta()
	require.NoError(t, err)
	assert.NotNil(t, meta.Conflict)
	assert.Equal(t, []string{"local-01"}, localIDs(t, f.j))
}

// =============================================================================
// Merge rule
// =============================================================================

func TestMergeRule(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	local := &model.Snapshot{
		Records: []model.PracticeRecord{
			{ID: "a", Date: "2026-01-01", Notes: "local newer", CreatedAt: t0, UpdatedAt: t0.Add(2 * time.Hour)},
			{ID: "b", Date: "2026-01-02", Notes: "local tie", CreatedAt: t0},
			{ID: "c", Date: "2026-01-03", Notes: "local only", CreatedAt: t0},
		},
		Options: []model.PracticeOption{
			{ID: "1", Label: "Primary", Notes: "Mysore"},
			{ID: "9", Label: "Yin"},
		},
		Profile: &model.UserProfile{ID: "p", Name: "Local", Avatar: "data:avatar"},
	}
	remote := &model.Snapshot{
		Records: []model.PracticeRecord{
			{ID: "a", Date: "2026-01-01", Notes: "remote older", CreatedAt: t0, UpdatedAt: t0.Add(time.Hour)},
			{ID: "b", Date: "2026-01-02", Notes: "remote tie", CreatedAt: t0},
			{ID: "d", Date: "2026-01-04", Notes: "remote only", CreatedAt: t0},
		},
		Options: []model.PracticeOption{
			{ID: "1", Label: "Primary", Notes: "Mysore"},
			{ID: "2", Label: "Second"},
		},
		Profile: &model.UserProfile{ID: "p", Name: "Remote"},
	}

	m := Merge(local, remote)
	notes := map[string]string{}
	var order []string
	for _, r := range m.Records {
		notes[r.ID] = r.Notes
		order = append(order, r.ID)
	}
	assert.Equal(t, []string{"d", "c", "b", "a"}, order, "newest date first")
	assert.Equal(t, "local newer", notes["a"])
	assert.Equal(t, "remote tie", notes["b"], "remote wins ties")
	assert.Equal(t, "local only", notes["c"])
	assert.Equal(t, "remote only", notes["d"])

	var optIDs []string
	for _, o := range m.Options {
		optIDs = append(optIDs, o.ID)
	}
	assert.Equal(t, []string{"1", "2", "9"}, optIDs)

	assert.Equal(t, "Remote", m.Profile.Name)
	assert.Equal(t, "data:avatar", m.Profile.Avatar)
}

func TestMergeOptionsCapped(t *testing.T) {
	var local, remote []model.PracticeOption
	for i := 0; i < 6; i++ {
		remote = append(remote, model.PracticeOption{ID: fmt.Sprintf("r%d", i), Label: fmt.Sprintf("R%d", i)})
		local = append(local, model.PracticeOption{ID: fmt.Sprintf("l%d", i), Label: fmt.Sprintf("L%d", i)})
	}
	local = append(local, model.PracticeOption{ID: "x", Label: "r0"})
	got := mergeOptions(local, remote)
	assert.Len(t, got, model.MaxOptions)
	assert.Equal(t, "r0", got[0].ID)
}

// =============================================================================
// Mirror
// =============================================================================

func TestMirrorPushesMutations(t *testing.T) {
	f := setup(t, true)
	f.r.Attach()

	rec := f.add(t, "2026-01-30", "mirrored")
	f.r.Wait()
	assert.Equal(t, []string{rec.ID}, f.remote.ids())

	require.NoError(t, f.j.DeleteRecord(rec.ID))
	f.r.Wait()
	assert.Empty(t, f.remote.ids())

	_, err := f.j.AddOption("Yin", "")
	require.NoError(t, err)
	_, err = f.j.UpdateProfile(journal.ProfilePatch{Name: ptr("New Name")})
	require.NoError(t, err)
	f.r.Wait()
	assert.Equal(t, 1, f.remote.count("options"))
	assert.Equal(t, 1, f.remote.count("profile"))

	pending, err := f.r.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMirrorFailureNeverBlocksLocal(t *testing.T) {
	f := setup(t, true)
	f.r.Attach()
	f.remote.setFail(true)

	rec := f.add(t, "2026-01-30", "offline")
	f.r.Wait()

	got, err := f.j.Record(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "offline", got.Notes)

	meta, err := f.r.Meta()
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, meta.FailedIDs)

	pending, err := f.r.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)

	f.remote.setFail(false)
	n, err := f.r.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{rec.ID}, f.remote.ids())

	meta, err = f.r.Meta()
	require.NoError(t, err)
	assert.Empty(t, meta.FailedIDs)
	pending, err = f.r.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOfflineDeleteDoesNotConflict(t *testing.T) {
	f := setup(t, true)
	f.r.Attach()
	a := f.add(t, "2026-01-30", "a")
	f.add(t, "2026-01-31", "b")
	f.r.Wait()

	f.remote.setFail(true)
	require.NoError(t, f.j.DeleteRecord(a.ID))
	f.r.Wait()
	f.remote.setFail(false)

	res, err := f.r.Sync(context.Background())
	require.NoError(t, err, "the pending delete is pushed before comparing")
	assert.Equal(t, OutcomeInSync, res.Outcome)
	assert.Equal(t, []string{"local-02"}, f.remote.ids())
}

func TestMirrorIdleWhenSignedOutOrConflicted(t *testing.T) {
	f := setup(t, false)
	f.r.Attach()
	f.add(t, "2026-01-30", "a")
	f.r.Wait()
	assert.Zero(t, f.remote.count("upsert"))

	c := conflicted(t)
	c.r.Attach()
	c.add(t, "2026-01-29", "during conflict")
	c.r.Wait()
	assert.Zero(t, c.remote.count("upsert"))
}

func TestFailedIDsAreBounded(t *testing.T) {
	f := setup(t, true)
	for i := 0; i < 120; i++ {
		f.r.l.failed(fmt.Sprintf("id-%03d", i))
	}
	f.r.l.failed("id-119")
	meta, err := f.r.Meta()
	require.NoError(t, err)
	assert.Len(t, meta.FailedIDs, 100)
	assert.Equal(t, "id-020", meta.FailedIDs[0])
}

// =============================================================================
// Account
// =============================================================================

type fakeAuth struct {
	signedOut bool
	device    cloud.Device
}

func (a *fakeAuth) SendVerificationCode(ctx context.Context, email, purpose string) (*cloud.SendCodeResponse, error) {
	return &cloud.SendCodeResponse{Sent: true}, nil
}

func (a *fakeAuth) SignUp(ctx context.Context, email, password, code string) (*cloud.AuthResponse, error) {
	return &cloud.AuthResponse{User: cloud.User{ID: "u-new", Email: email}}, nil
}

func (a *fakeAuth) SignIn(ctx context.Context, email, password string, device cloud.Device) (*cloud.AuthResponse, error) {
	a.device = device
	return &cloud.AuthResponse{
		User:            cloud.User{ID: "u1", Email: email},
		DisplacedDevice: &cloud.Device{ID: "old", Name: "Old Phone"},
	}, nil
}

func (a *fakeAuth) SignOut(ctx context.Context) error {
	a.signedOut = true
	return nil
}

func (a *fakeAuth) Cookies() []model.StoredCookie {
	return []model.StoredCookie{{Name: cloud.SessionCookieName, Value: "v"}}
}

func TestAccountSignInSyncsAndSignOutDetaches(t *testing.T) {
	f := setup(t, false)
	f.add(t, "2026-01-30", "a")
	auth := &fakeAuth{}
	acct := NewAccount(f.r, auth, storage.NewSettingsRepo(f.db))

	res, err := acct.SignIn(context.Background(), "a@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	require.NotNil(t, res.DisplacedDevice)
	require.NotNil(t, res.Sync)
	assert.Equal(t, OutcomeUploaded, res.Sync.Outcome)
	assert.NotEmpty(t, auth.device.ID)

	meta, err := f.r.Meta()
	require.NoError(t, err)
	assert.True(t, meta.SignedIn())
	assert.Len(t, meta.Cookies, 1)

	require.NoError(t, acct.SignOut(context.Background()))
	assert.True(t, auth.signedOut)
	meta, err = f.r.Meta()
	require.NoError(t, err)
	assert.False(t, meta.SignedIn())
	assert.Empty(t, meta.Cookies)
	assert.Equal(t, []string{"local-01"}, localIDs(t, f.j), "local data is kept")

	assert.True(t, errors.Is(acct.SignOut(context.Background()), errors.ErrNotSignedIn))
}

func TestAccountSignUpValidates(t *testing.T) {
	f := setup(t, false)
	acct := NewAccount(f.r, &fakeAuth{}, storage.NewSettingsRepo(f.db))

	_, err := acct.SignUp(context.Background(), "not-an-email", "secret123", "123456")
	assert.True(t, errors.IsValidationError(err))
	_, err = acct.SignUp(context.Background(), "a@example.com", "short", "123456")
	assert.True(t, errors.IsValidationError(err))
	_, err = acct.SignUp(context.Background(), "a@example.com", "secret123", "12")
	assert.True(t, errors.IsValidationError(err))

	res, err := acct.SignUp(context.Background(), "a@example.com", "secret123", "123456")
	require.NoError(t, err)
	assert.Equal(t, "u-new", res.User.ID)
}

func ptr[T any](v T) *T { return &v }
