package cmd

import (
	goruntime "runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
	"github.com/ashtangalog/ashtanga/internal/storage"
)

// debugLogEntries is how many recent sync log entries the dump carries.
const debugLogEntries = 10

var debugFlagRaw bool

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Print diagnostic information for support",
	Long: `Print a diagnostic JSON document: data counts, timer state, sync state
with failed ids and recent log entries, and option fullness. Passwords,
session cookies and avatars are never included.

--raw adds the stored record entries exactly as they sit in the database.`,
	Args: cobra.NoArgs,
	RunE: runDebug,
}

func init() {
	debugCmd.Flags().BoolVar(&debugFlagRaw, "raw", false, "include raw stored record entries")
	rootCmd.AddCommand(debugCmd)
}

type debugDump struct {
	Version     string    `json:"version"`
	Commit      string    `json:"commit"`
	GeneratedAt time.Time `json:"generated_at"`
	Platform    string    `json:"platform"`
	Database    string    `json:"database"`
	Backend     string    `json:"backend,omitempty"`
	DeviceID    string    `json:"device_id,omitempty"`

	Records        int  `json:"records"`
	Options        int  `json:"options"`
	OptionsFull    bool `json:"options_full"`
	HasAvatar      bool `json:"has_avatar"`
	ExportAttempts int  `json:"export_attempts"`

	Timer *output.TimerResponse      `json:"timer"`
	Sync  *output.SyncStatusResponse `json:"sync"`

	RecentSyncLog []model.SyncLogEntry `json:"recent_sync_log"`

	Integrity   *storage.RecoveryStatus `json:"integrity"`
	DiskWarning string                  `json:"disk_warning,omitempty"`
	RawRecords  map[string]any          `json:"raw_records,omitempty"`
}

func runDebug(cmd *cobra.Command, args []string) error {
	dump := debugDump{
		Version:       Version,
		Commit:        Commit,
		GeneratedAt:   ctx.Now().UTC(),
		Platform:      goruntime.GOOS + "/" + goruntime.GOARCH,
		Database:      ctx.DB.Path(),
		Timer:         output.NewTimerResponse(ctx.Timer.State(), ctx.Timer.Elapsed()),
		RecentSyncLog: []model.SyncLogEntry{},
	}
	if ctx.Cloud != nil {
		dump.Backend = ctx.Cloud.BaseURL()
	}
	if settings, err := ctx.Settings.Get(); err == nil {
		dump.DeviceID = settings.DeviceID
	}

	var err error
	if dump.Records, err = ctx.Journal.RecordCount(); err != nil {
		return err
	}
	opts, err := ctx.Journal.Options()
	if err != nil {
		return err
	}
	dump.Options = len(opts)
	dump.OptionsFull = len(opts) >= model.MaxOptions

	profile, err := ctx.Journal.Profile()
	if err != nil {
		return err
	}
	dump.HasAvatar = profile.Avatar != ""

	exports, err := ctx.Journal.ExportLog()
	if err != nil {
		return err
	}
	dump.ExportAttempts = len(exports)

	meta, err := ctx.SyncRepo.Meta()
	if err != nil {
		return err
	}
	pending, err := ctx.SyncRepo.Pending()
	if err != nil {
		return err
	}
	dump.Sync = output.NewSyncStatusResponse(meta, len(pending))

	logs, err := ctx.SyncRepo.Logs()
	if err != nil {
		return err
	}
	if len(logs) > debugLogEntries {
		logs = logs[:debugLogEntries]
	}
	dump.RecentSyncLog = append(dump.RecentSyncLog, logs...)

	dump.Integrity = storage.CheckDatabaseIntegrity(ctx.DB)
	if path := ctx.DB.Path(); path != "" {
		dump.DiskWarning = storage.CheckDiskSpaceWarning(path)
	}
	if debugFlagRaw {
		if dump.RawRecords, err = storage.DumpRaw(ctx.DB, model.PrefixRecord); err != nil {
			return err
		}
	}

	return ctx.Formatter.PrintJSON(dump)
}
