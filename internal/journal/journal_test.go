package journal

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupJournal(t *testing.T) (*Journal, *fakeClock) {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := &fakeClock{now: time.Date(2026, 1, 18, 7, 0, 0, 0, time.UTC)}
	n := 0
	j, err := New(db,
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		}),
	)
	require.NoError(t, err)
	return j, clock
}

func ptr[T any](v T) *T { return &v }

// =============================================================================
// Records
// =============================================================================

func TestRecordLifecycleScenario(t *testing.T) {
	j, _ := setupJournal(t)

	rec, err := j.AddRecord(RecordInput{
		Date:     "2026-01-18",
		Type:     "Primary Mysore",
		Duration: 5400,
		Notes:    "felt light",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	recs, err := j.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "2026-01-18", recs[0].Date)
	assert.Equal(t, "Primary Mysore", recs[0].Type)
	assert.Equal(t, 5400, recs[0].Duration)
	assert.Equal(t, "felt light", recs[0].Notes)

	updated, err := j.UpdateRecord(rec.ID, RecordPatch{Duration: ptr(6000)})
	require.NoError(t, err)
	assert.Equal(t, 6000, updated.Duration)

	got, err := j.Record(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 6000, got.Duration)
	assert.Equal(t, rec.Date, got.Date)
	assert.Equal(t, rec.Type, got.Type)
	assert.Equal(t, rec.Notes, got.Notes)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, j.DeleteRecord(rec.ID))
	recs, err = j.Records()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAddRecordValidation(t *testing.T) {
	j, _ := setupJournal(t)

	tests := []struct {
		name string
		in   RecordInput
	}{
		{"bad_date", RecordInput{Date: "18-01-2026", Type: "Primary", Duration: 60}},
		{"negative_duration", RecordInput{Date: "2026-01-18", Type: "Primary", Duration: -1}},
		{"missing_type", RecordInput{Date: "2026-01-18", Duration: 60}},
		{"long_notes", RecordInput{Date: "2026-01-18", Type: "Primary", Notes: strings.Repeat("n", 2001)}},
		{"long_breakthrough", RecordInput{Date: "2026-01-18", Type: "Primary", Breakthrough: strings.Repeat("b", 21)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.AddRecord(tt.in)
			require.Error(t, err)
			assert.Equal(t, errors.CategoryValidation, errors.Classify(err))
		})
	}

	n, err := j.RecordCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateMissingRecord(t *testing.T) {
	j, _ := setupJournal(t)

	rec, err := j.UpdateRecord("nope", RecordPatch{Duration: ptr(10)})
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)

	n, err := j.RecordCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateRecordRejectsInvalidPatch(t *testing.T) {
	j, _ := setupJournal(t)
	rec, err := j.AddRecord(RecordInput{Date: "2026-01-18", Type: "Primary", Duration: 60})
	require.NoError(t, err)

	_, err = j.UpdateRecord(rec.ID, RecordPatch{Duration: ptr(-5)})
	assert.ErrorIs(t, err, errors.ErrInvalidDuration)

	got, err := j.Record(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Duration)
}

func TestUpdateRecordSetsUpdatedAt(t *testing.T) {
	j, clock := setupJournal(t)
	rec, err := j.AddRecord(RecordInput{Date: "2026-01-18", Type: "Primary", Duration: 60})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	updated, err := j.UpdateRecord(rec.ID, RecordPatch{Photos: []string{"https://x/a.jpg"}})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(rec.CreatedAt))
	assert.Equal(t, []string{"https://x/a.jpg"}, updated.Photos)
}

func TestDeleteIsIdempotent(t *testing.T) {
	j, _ := setupJournal(t)
	_, err := j.AddRecord(RecordInput{Date: "2026-01-18", Type: "Primary", Duration: 60})
	require.NoError(t, err)

	require.NoError(t, j.DeleteRecord("missing"))
	once, err := j.Snapshot()
	require.NoError(t, err)

	require.NoError(t, j.DeleteRecord("missing"))
	twice, err := j.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, once.Records, twice.Records)
	assert.Len(t, twice.Records, 1)
}

func TestRecordsOrdering(t *testing.T) {
	j, clock := setupJournal(t)

	add := func(date string) string {
		clock.Advance(time.Minute)
		rec, err := j.AddRecord(RecordInput{Date: date, Type: "Primary", Duration: 60})
		require.NoError(t, err)
		return rec.ID
	}
	a := add("2026-01-10")
	b := add("2026-01-12")
	c := add("2026-01-10")

	recs, err := j.Records()
	require.NoError(t, err)
	ids := []string{recs[0].ID, recs[1].ID, recs[2].ID}
	// Newest day first; same day ties go to the most recently created.
	assert.Equal(t, []string{b, c, a}, ids)
}

func TestFindRecords(t *testing.T) {
	j, _ := setupJournal(t)
	_, err := j.AddRecord(RecordInput{Date: "2026-01-10", Type: "Primary", Duration: 60})
	require.NoError(t, err)

	found, err := j.FindRecords("id-")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = j.FindRecords("zzz")
	require.NoError(t, err)
	assert.Empty(t, found)
}

// =============================================================================
// Options
// =============================================================================

func TestDefaultOptionsSeeded(t *testing.T) {
	j, _ := setupJournal(t)

	opts, err := j.Options()
	require.NoError(t, err)
	require.Len(t, opts, 6)
	assert.Equal(t, "Primary Mysore", opts[0].TypeLabel())

	display, err := j.DisplayOptions()
	require.NoError(t, err)
	require.Len(t, display, 7)
	assert.Equal(t, model.CustomOptionID, display[6].ID)
}

func fillOptions(t *testing.T, j *Journal) {
	t.Helper()
	for i := 0; ; i++ {
		full, err := j.OptionsFull()
		require.NoError(t, err)
		if full {
			return
		}
		_, err = j.AddOption(fmt.Sprintf("Extra%d", i), "")
		require.NoError(t, err)
	}
}

func TestAddOptionRefusedWhenFull(t *testing.T) {
	j, _ := setupJournal(t)
	fillOptions(t, j)

	before, err := j.Options()
	require.NoError(t, err)
	require.Len(t, before, model.MaxOptions)

	_, err = j.AddOption("Yin", "")
	assert.ErrorIs(t, err, errors.ErrOptionsFull)
	assert.True(t, errors.IsValidationError(err))

	opt, saved, err := j.AddOrEphemeral("Yin", "")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, model.EphemeralOptionID, opt.ID)
	assert.True(t, opt.IsCustom)

	after, err := j.Options()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAddOrEphemeralReusesExistingType(t *testing.T) {
	j, _ := setupJournal(t)
	yin, err := j.AddOption("Yin", "Evening")
	require.NoError(t, err)

	opt, saved, err := j.AddOrEphemeral("yin", "evening")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, yin.ID, opt.ID)

	fillOptions(t, j)
	opt, saved, err = j.AddOrEphemeral("Yin", "Evening")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, yin.ID, opt.ID)

	opts, err := j.Options()
	require.NoError(t, err)
	assert.Len(t, opts, model.MaxOptions)
}

func TestDeleteOptionRefusedAtMinimum(t *testing.T) {
	j, _ := setupJournal(t)
	opts, err := j.Options()
	require.NoError(t, err)
	for _, o := range opts[2:] {
		require.NoError(t, j.DeleteOption(o.ID))
	}

	remaining, err := j.Options()
	require.NoError(t, err)
	require.Len(t, remaining, model.MinOptions)

	for _, o := range remaining {
		err := j.DeleteOption(o.ID)
		assert.ErrorIs(t, err, errors.ErrTooFewOptions)
		assert.True(t, errors.IsValidationError(err))
	}

	after, err := j.Options()
	require.NoError(t, err)
	assert.Equal(t, remaining, after)
}

func TestDeleteMissingOption(t *testing.T) {
	j, _ := setupJournal(t)
	assert.ErrorIs(t, j.DeleteOption("nope"), errors.ErrOptionNotFound)
}

func TestAddOptionValidation(t *testing.T) {
	j, _ := setupJournal(t)

	_, err := j.AddOption("Much too long label", "")
	assert.True(t, errors.IsValidationError(err))

	_, err = j.AddOption("Primary", "MYSORE")
	assert.ErrorIs(t, err, errors.ErrDuplicateOption)

	opt, err := j.AddOption("Primary", "Half")
	require.NoError(t, err)
	assert.Equal(t, "Primary Half", opt.TypeLabel())
	assert.False(t, opt.IsCustom)
}

func TestUpdateOption(t *testing.T) {
	j, _ := setupJournal(t)
	opts, err := j.Options()
	require.NoError(t, err)

	updated, err := j.UpdateOption(opts[0].ID, "Primary", "Self")
	require.NoError(t, err)
	assert.Equal(t, "Primary Self", updated.TypeLabel())

	_, err = j.UpdateOption(opts[0].ID, "Second", "Mysore")
	assert.ErrorIs(t, err, errors.ErrDuplicateOption)

	_, err = j.UpdateOption("nope", "X", "")
	assert.ErrorIs(t, err, errors.ErrOptionNotFound)
}

func TestResolveOption(t *testing.T) {
	j, _ := setupJournal(t)

	opt, err := j.ResolveOption("1")
	require.NoError(t, err)
	assert.Equal(t, "Primary Mysore", opt.TypeLabel())

	opt, err = j.ResolveOption("second led class")
	require.NoError(t, err)
	assert.Equal(t, "4", opt.ID)

	opt, err = j.ResolveOption("half")
	require.NoError(t, err)
	assert.Equal(t, "5", opt.ID)

	_, err = j.ResolveOption("primary")
	assert.True(t, errors.IsValidationError(err))

	_, err = j.ResolveOption("vinyasa")
	assert.ErrorIs(t, err, errors.ErrOptionNotFound)
}

// =============================================================================
// Profile
// =============================================================================

func TestProfileDefaultsAndUpdate(t *testing.T) {
	j, _ := setupJournal(t)

	p, err := j.Profile()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultProfileName, p.Name)
	assert.Equal(t, model.DefaultProfileSignature, p.Signature)

	p, err = j.UpdateProfile(ProfilePatch{Name: ptr("  Sharath "), Signature: ptr("Do your practice")})
	require.NoError(t, err)
	assert.Equal(t, "Sharath", p.Name)

	_, err = j.UpdateProfile(ProfilePatch{Name: ptr("")})
	assert.True(t, errors.IsValidationError(err))

	again, err := j.Profile()
	require.NoError(t, err)
	assert.Equal(t, "Sharath", again.Name)
	assert.Equal(t, "Do your practice", again.Signature)
}

// =============================================================================
// Snapshot export and import
// =============================================================================

func TestExportImportRoundTrip(t *testing.T) {
	j, clock := setupJournal(t)
	_, err := j.AddRecord(RecordInput{Date: "2026-01-17", Type: "Primary Mysore", Duration: 5400, Notes: "felt light"})
	require.NoError(t, err)
	_, err = j.AddRecord(RecordInput{Date: "2026-01-18", Type: "Second Mysore", Duration: 4800,
		Breakthrough: "Kapotasana heels", Photos: []string{"https://p/1.jpg"}})
	require.NoError(t, err)
	_, err = j.AddOption("Yin", "")
	require.NoError(t, err)
	_, err = j.UpdateProfile(ProfilePatch{Name: ptr("Yogi")})
	require.NoError(t, err)

	before, err := j.Snapshot()
	require.NoError(t, err)
	data, err := j.ExportSnapshot()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"exported_at"`)

	// Diverge, then restore.
	require.NoError(t, j.DeleteRecord(before.Records[0].ID))
	_, err = j.AddRecord(RecordInput{Date: "2026-01-01", Type: "Primary", Duration: 1})
	require.NoError(t, err)
	clock.Advance(time.Hour)

	n, err := j.ImportSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	after, err := j.Snapshot()
	require.NoError(t, err)
	require.Len(t, after.Records, len(before.Records))
	for i := range before.Records {
		assert.True(t, before.Records[i].Equal(&after.Records[i]), "record %d", i)
		assert.True(t, before.Records[i].CreatedAt.Equal(after.Records[i].CreatedAt))
	}
	require.Len(t, after.Options, len(before.Options))
	for i := range before.Options {
		assert.Equal(t, before.Options[i].ID, after.Options[i].ID)
		assert.Equal(t, before.Options[i].TypeLabel(), after.Options[i].TypeLabel())
	}
	assert.Equal(t, before.Profile.Name, after.Profile.Name)
	assert.Equal(t, before.Profile.ID, after.Profile.ID)
}

func TestImportRejectsBadInputWithoutChanges(t *testing.T) {
	j, _ := setupJournal(t)
	_, err := j.AddRecord(RecordInput{Date: "2026-01-18", Type: "Primary", Duration: 60})
	require.NoError(t, err)
	before, err := j.Snapshot()
	require.NoError(t, err)

	inputs := map[string]string{
		"empty":         "",
		"not_json":      "practice",
		"truncated":     `{"version":1,"records":[`,
		"wrong_version": `{"version":9,"records":[]}`,
		"no_records":    `{"version":1}`,
		"unknown_field": `{"version":1,"records":[],"todos":[]}`,
		"bad_record":    `{"version":1,"records":[{"id":"a","date":"yesterday","type":"P","duration":1}]}`,
		"dup_ids": `{"version":1,"records":[
			{"id":"a","date":"2026-01-01","type":"P","duration":1},
			{"id":"a","date":"2026-01-02","type":"P","duration":1}]}`,
		"one_option": `{"version":1,"records":[],"options":[{"id":"1","label":"Primary"}]}`,
		"long_option_notes": `{"version":1,"records":[],"options":[
			{"id":"1","label":"Primary","notes":"this descriptor is far longer than fifteen"},
			{"id":"2","label":"Second"}]}`,
		"dup_option_types": `{"version":1,"records":[],"options":[
			{"id":"1","label":"Primary","notes":"Mysore"},
			{"id":"2","label":"primary","notes":"mysore"}]}`,
		"long_profile_name": `{"version":1,"records":[],"profile":{"id":"p","name":"` + strings.Repeat("n", 31) + `"}}`,
		"long_signature":    `{"version":1,"records":[],"profile":{"id":"p","name":"Yogi","signature":"` + strings.Repeat("s", 61) + `"}}`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			n, err := j.ImportSnapshot([]byte(input))
			assert.Zero(t, n)
			assert.ErrorIs(t, err, errors.ErrInvalidSnapshot)

			after, err := j.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, before.Records, after.Records)
			assert.Equal(t, before.Options, after.Options)
		})
	}
}

func TestImportAcceptsRecordLongerThanADay(t *testing.T) {
	j, _ := setupJournal(t)
	n, err := j.ImportSnapshot([]byte(`{"version":1,"records":[{"id":"a","date":"2026-01-01","type":"Primary","duration":90000}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := j.Record("a")
	require.NoError(t, err)
	assert.Equal(t, 90000, rec.Duration)
}

func TestImportWithoutOptionsSeedsDefaults(t *testing.T) {
	j, _ := setupJournal(t)
	_, err := j.AddOption("Yin", "")
	require.NoError(t, err)

	n, err := j.ImportSnapshot([]byte(`{"version":1,"records":[{"id":"a","date":"2026-01-01","type":"Primary","duration":60}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	opts, err := j.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 6)

	rec, err := j.Record("a")
	require.NoError(t, err)
	assert.NotNil(t, rec.Photos)
}

func TestClearAll(t *testing.T) {
	j, _ := setupJournal(t)
	_, err := j.AddRecord(RecordInput{Date: "2026-01-18", Type: "Primary", Duration: 60})
	require.NoError(t, err)
	_, err = j.AddOption("Yin", "")
	require.NoError(t, err)
	_, err = j.UpdateProfile(ProfilePatch{Name: ptr("Yogi")})
	require.NoError(t, err)

	require.NoError(t, j.ClearAll())

	n, err := j.RecordCount()
	require.NoError(t, err)
	assert.Zero(t, n)
	opts, err := j.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 6)
	p, err := j.Profile()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultProfileName, p.Name)
}

func TestExportLog(t *testing.T) {
	j, _ := setupJournal(t)
	require.NoError(t, j.LogExport(model.ExportLogEntry{Format: "json", Destination: "stdout", Success: true}))
	require.NoError(t, j.LogExport(model.ExportLogEntry{Format: "html", Destination: "out.html", Success: true}))

	entries, err := j.ExportLog()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "html", entries[0].Format)
	assert.False(t, entries[0].At.IsZero())
}

// =============================================================================
// Observers
// =============================================================================

func TestObserversSeeCommittedChanges(t *testing.T) {
	j, _ := setupJournal(t)

	var changes []Change
	j.Subscribe(func(c Change) {
		// The mutation is visible to readers when observers run.
		if c.Kind == RecordSaved {
			_, err := j.Record(c.RecordID)
			assert.NoError(t, err)
		}
		changes = append(changes, c)
	})

	rec, err := j.AddRecord(RecordInput{Date: "2026-01-18", Type: "Primary", Duration: 60})
	require.NoError(t, err)
	_, err = j.UpdateRecord(rec.ID, RecordPatch{Notes: ptr("edited")})
	require.NoError(t, err)
	require.NoError(t, j.DeleteRecord(rec.ID))
	require.NoError(t, j.DeleteRecord(rec.ID))
	_, err = j.AddOption("Yin", "")
	require.NoError(t, err)

	kinds := make([]ChangeKind, 0, len(changes))
	for _, c := range changes {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []ChangeKind{RecordSaved, RecordSaved, RecordDeleted, OptionsChanged}, kinds)
	assert.Equal(t, "edited", changes[1].Record.Notes)
}

func TestConcurrentAdds(t *testing.T) {
	db, err := storage.Open(storage.Options{InMemory: true})
	require.NoError(t, err)
	defer db.Close()
	j, err := New(db)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := j.AddRecord(RecordInput{Date: "2026-01-18", Type: "Primary", Duration: 60})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := j.RecordCount()
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
