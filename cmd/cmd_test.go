package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
	"github.com/ashtangalog/ashtanga/internal/stats"
)

// resetFlags restores every flag to its default between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type cli struct {
	t      *testing.T
	dbPath string
	cfg    string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ASHTANGA_CLOUD_URL", "")
	return &cli{t: t, dbPath: filepath.Join(dir, "db"), cfg: filepath.Join(dir, "config.yaml")}
}

// run executes the CLI with JSON output and returns what it wrote to stdout.
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)

	r, w, err := os.Pipe()
	require.NoError(c.t, err)
	stdout := os.Stdout
	os.Stdout = w
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	full := append([]string{"--db", c.dbPath, "--config", c.cfg, "--format", "json", "--color", "never"}, args...)
	rootCmd.SetArgs(full)
	runErr := rootCmd.Execute()
	if ctx != nil {
		ctx.Close()
		ctx = nil
	}

	w.Close()
	os.Stdout = stdout
	out := <-done
	return string(out), runErr
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "ashtanga %v", args)
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestStatusDefaultsToIdle(t *testing.T) {
	c := newCLI(t)
	resp := decode[output.TimerResponse](t, c.mustRun())
	assert.Equal(t, model.PhaseIdle, resp.Phase)
}

func TestOptionsSeeded(t *testing.T) {
	c := newCLI(t)
	resp := decode[output.OptionsResponse](t, c.mustRun("options"))
	assert.Len(t, resp.Options, 6)
	assert.Equal(t, model.MaxOptions, resp.Max)
	assert.False(t, resp.Full)
	assert.Equal(t, "Primary Mysore", resp.Options[0].TypeLabel())
}

func TestOptionsAddAndDelete(t *testing.T) {
	c := newCLI(t)
	resp := decode[output.OptionsResponse](t, c.mustRun("options", "add", "Intermediate", "--notes", "Led"))
	require.Len(t, resp.Options, 7)

	var added *model.PracticeOption
	for _, o := range resp.Options {
		if o.TypeLabel() == "Intermediate Led" {
			added = o
		}
	}
	require.NotNil(t, added)
	assert.True(t, added.IsCustom)

	resp = decode[output.OptionsResponse](t, c.mustRun("options", "delete", added.ID))
	assert.Len(t, resp.Options, 6)
}

func TestSessionLifecycle(t *testing.T) {
	c := newCLI(t)

	st := decode[output.TimerResponse](t, c.mustRun("start", "1"))
	assert.Equal(t, model.PhaseRunning, st.Phase)
	assert.Equal(t, "Primary Mysore", st.Type)

	_, err := c.run("start", "2")
	assert.ErrorIs(t, err, errors.ErrTimerNotIdle)

	st = decode[output.TimerResponse](t, c.mustRun("pause"))
	assert.Equal(t, model.PhasePaused, st.Phase)

	st = decode[output.TimerResponse](t, c.mustRun("resume"))
	assert.Equal(t, model.PhaseRunning, st.Phase)

	st = decode[output.TimerResponse](t, c.mustRun("end"))
	assert.Equal(t, model.PhaseCompletionPending, st.Phase)

	saved := decode[output.RecordResponse](t, c.mustRun("save", "--breakthrough", "Bound in Mari D"))
	assert.Equal(t, "saved", saved.Status)
	assert.Equal(t, "Primary Mysore", saved.Record.Type)
	assert.Equal(t, model.DefaultNotes, saved.Record.Notes)
	assert.Equal(t, "Bound in Mari D", saved.Record.Breakthrough)

	st = decode[output.TimerResponse](t, c.mustRun("status"))
	assert.Equal(t, model.PhaseIdle, st.Phase)

	list := decode[output.RecordsResponse](t, c.mustRun("records"))
	assert.Equal(t, 1, list.TotalCount)
}

func TestStartRequiresOption(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("start")
	assert.ErrorIs(t, err, errors.ErrNoOptionSelected)

	_, err = c.run("start", "no-such-option")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStartCustom(t *testing.T) {
	c := newCLI(t)
	c.mustRun("start", "1")

	_, err := c.run("start", "--custom", "Yin")
	assert.ErrorIs(t, err, errors.ErrTimerNotIdle)
	opts := decode[output.OptionsResponse](t, c.mustRun("options"))
	assert.Len(t, opts.Options, 6)

	c.mustRun("end")
	c.mustRun("discard")

	st := decode[output.TimerResponse](t, c.mustRun("start", "--custom", "primary", "--notes", "mysore"))
	assert.Equal(t, "1", st.OptionID)
	opts = decode[output.OptionsResponse](t, c.mustRun("options"))
	assert.Len(t, opts.Options, 6)
}

func TestDiscard(t *testing.T) {
	c := newCLI(t)
	c.mustRun("start", "--custom", "Yin")
	c.mustRun("end")
	c.mustRun("discard")

	list := decode[output.RecordsResponse](t, c.mustRun("records"))
	assert.Equal(t, 0, list.TotalCount)

	_, err := c.run("save")
	assert.ErrorIs(t, err, errors.ErrNoPendingCompletion)
}

func TestLogRecord(t *testing.T) {
	c := newCLI(t)
	resp := decode[output.RecordResponse](t, c.mustRun(
		"log", "--date", "2026-01-05", "--type", "1", "--duration", "90", "--notes", "Steady"))
	assert.Equal(t, "2026-01-05", resp.Record.Date)
	assert.Equal(t, "Primary Mysore", resp.Record.Type)
	assert.Equal(t, 90*60, resp.Record.Duration)

	free := decode[output.RecordResponse](t, c.mustRun(
		"log", "--date", "2026-01-06", "--type", "Pranayama", "--duration", "0:20"))
	assert.Equal(t, "Pranayama", free.Record.Type)
	assert.Equal(t, 20*60, free.Record.Duration)

	list := decode[output.RecordsResponse](t, c.mustRun("records", "--from", "2026-01-06"))
	require.Equal(t, 1, list.TotalCount)
	assert.Equal(t, "Pranayama", list.Records[0].Type)
}

func TestLogRejectsFutureDate(t *testing.T) {
	c := newCLI(t)
	future := time.Now().AddDate(0, 0, 3).Format(model.DateLayout)
	_, err := c.run("log", "--date", future, "--type", "1", "--duration", "60")
	assert.ErrorIs(t, err, errors.ErrFutureDate)

	_, err = c.run("log", "--type", "1", "--duration", "soon")
	assert.ErrorIs(t, err, errors.ErrInvalidDuration)
}

func TestRecordsEditAndDelete(t *testing.T) {
	c := newCLI(t)
	rec := decode[output.RecordResponse](t, c.mustRun(
		"log", "--date", "2026-02-01", "--type", "2", "--duration", "75")).Record

	edited := decode[output.RecordResponse](t, c.mustRun(
		"records", "edit", rec.ID[:12], "--notes", "Knee fine", "--duration", "80"))
	assert.Equal(t, "Knee fine", edited.Record.Notes)
	assert.Equal(t, 80*60, edited.Record.Duration)
	assert.Equal(t, rec.Type, edited.Record.Type)

	_, err := c.run("records", "edit", rec.ID)
	assert.True(t, errors.IsValidationError(err))

	c.mustRun("records", "delete", rec.ID, "--yes")
	_, err = c.run("records", "show", rec.ID)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStats(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "--date", "2026-01-05", "--type", "1", "--duration", "90")
	c.mustRun("log", "--date", "2026-01-06", "--type", "1", "--duration", "60", "--breakthrough", "Drop back")

	s := decode[stats.Summary](t, c.mustRun("stats"))
	assert.Equal(t, 2, s.Total.Sessions)
	assert.Equal(t, 150, s.Total.TotalMinutes)
	assert.Equal(t, 1, s.Breakthroughs)
	assert.Equal(t, 2, s.LongestStreak)

	hm := decode[struct {
		Cells []stats.Cell `json:"cells"`
	}](t, c.mustRun("stats", "--heatmap", "--from", "2026-01-05", "--to", "2026-01-07"))
	require.Len(t, hm.Cells, 3)
	assert.Equal(t, stats.LevelFull, hm.Cells[0].Level)
	assert.Equal(t, stats.LevelNone, hm.Cells[2].Level)

	moons := decode[struct {
		Cells    []stats.Cell    `json:"cells"`
		MoonDays []stats.MoonDay `json:"moon_days"`
	}](t, c.mustRun("stats", "--heatmap", "--from", "2026-01-01", "--to", "2026-01-31"))
	require.Len(t, moons.Cells, 31)
	assert.Equal(t, stats.MoonFull, moons.Cells[2].Moon)
	assert.Equal(t, []stats.MoonDay{
		{Date: "2026-01-03", Phase: stats.MoonFull},
		{Date: "2026-01-19", Phase: stats.MoonNew},
	}, moons.MoonDays)
}

func TestExportImport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "--date", "2026-01-05", "--type", "1", "--duration", "90")
	file := filepath.Join(t.TempDir(), "backup.json")
	c.mustRun("export", "-o", file)

	other := newCLI(t)
	dry := decode[map[string]any](t, other.mustRun("import", file, "--dry-run"))
	assert.Equal(t, "valid", dry["status"])
	assert.EqualValues(t, 1, dry["records"])

	other.mustRun("import", file)
	list := decode[output.RecordsResponse](t, other.mustRun("records"))
	assert.Equal(t, 1, list.TotalCount)

	dump := decode[debugDump](t, c.mustRun("debug"))
	assert.Equal(t, 1, dump.ExportAttempts)
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	c := newCLI(t)
	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"records": "nope"}`), 0o600))
	_, err := c.run("import", file, "--yes")
	assert.ErrorIs(t, err, errors.ErrInvalidSnapshot)
}

func TestExportHTML(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "--date", "2026-01-05", "--type", "1", "--duration", "90", "--notes", "**strong** breath")
	file := filepath.Join(t.TempDir(), "journal.html")
	c.mustRun("export", "--format", "html", "-o", file)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<strong>strong</strong>")
}

func TestClear(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "--date", "2026-01-05", "--type", "1", "--duration", "90")

	_, err := c.run("clear", "--confirm", "yes")
	assert.True(t, errors.IsValidationError(err))

	c.mustRun("clear", "--confirm", clearPhrase)
	list := decode[output.RecordsResponse](t, c.mustRun("records"))
	assert.Equal(t, 0, list.TotalCount)
	opts := decode[output.OptionsResponse](t, c.mustRun("options"))
	assert.Len(t, opts.Options, 6)
}

func TestAccountRequiresBackend(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("account", "status")
	assert.True(t, errors.IsValidationError(err))
	_, err = c.run("sync")
	assert.True(t, errors.IsValidationError(err))
}

func TestDebugDump(t *testing.T) {
	c := newCLI(t)
	c.mustRun("log", "--date", "2026-01-05", "--type", "1", "--duration", "90")
	dump := decode[debugDump](t, c.mustRun("debug"))
	assert.Equal(t, 1, dump.Records)
	assert.Equal(t, 6, dump.Options)
	assert.False(t, dump.OptionsFull)
	require.NotNil(t, dump.Timer)
	assert.Equal(t, model.PhaseIdle, dump.Timer.Phase)
	require.NotNil(t, dump.Sync)
	assert.False(t, dump.Sync.SignedIn)
}

func TestProfileSet(t *testing.T) {
	c := newCLI(t)
	p := decode[model.UserProfile](t, c.mustRun("profile"))
	assert.Equal(t, model.DefaultProfileName, p.Name)

	p = decode[model.UserProfile](t, c.mustRun("profile", "set", "--name", "Ana"))
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, model.DefaultProfileSignature, p.Signature)
}
