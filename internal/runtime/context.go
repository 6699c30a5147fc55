// Package runtime wires the journal, timer and sync engine into one context
// per CLI invocation.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/cloudsync"
	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/errors"
	"github.com/ashtangalog/ashtanga/internal/journal"
	"github.com/ashtangalog/ashtanga/internal/logging"
	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/output"
	"github.com/ashtangalog/ashtanga/internal/storage"
	"github.com/ashtangalog/ashtanga/internal/timer"
)

// Context holds the application runtime context.
type Context struct {
	Config    *config.RuntimeConfig
	DB        *storage.DB
	Formatter *output.Formatter

	Journal  *journal.Journal
	Timer    *timer.Session
	SyncRepo *storage.SyncRepo
	Settings *storage.SettingsRepo

	// Nil unless a sync backend is configured.
	Cloud      *cloud.Client
	Reconciler *cloudsync.Reconciler
	Account    *cloudsync.Account

	// Debug mode
	Debug bool

	reqCtx context.Context
	now    func() time.Time
}

// Options configures the runtime context.
type Options struct {
	// Config overrides config.Global.
	Config    *config.RuntimeConfig
	DBPath    string
	InMemory  bool
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		DBPath:    storage.DefaultPath(),
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// New creates a new runtime context.
func New(opts Options) (*Context, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Global
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// Configuration overrides the default path, the --db flag overrides both.
	if cfg.Storage.DatabasePath != "" && opts.DBPath == storage.DefaultPath() {
		opts.DBPath = cfg.Storage.DatabasePath
	}
	if opts.DBPath == config.InMemoryDatabase {
		opts.InMemory = true
	}

	db, err := storage.Open(storage.Options{
		Path:     opts.DBPath,
		InMemory: opts.InMemory,
	})
	if err != nil {
		return nil, err
	}

	j, err := journal.New(db, journal.WithClock(opts.Now))
	if err != nil {
		db.Close()
		return nil, err
	}

	session := timer.New(storage.NewTimerRepo(db), j, timer.WithClock(opts.Now))
	if err := session.Restore(); err != nil {
		db.Close()
		return nil, err
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	c := &Context{
		Config:    cfg,
		DB:        db,
		Formatter: formatter,
		Journal:   j,
		Timer:     session,
		SyncRepo:  storage.NewSyncRepo(db),
		Settings:  storage.NewSettingsRepo(db),
		Debug:     opts.Debug,
		reqCtx:    logging.NewRequestContext(),
		now:       opts.Now,
	}

	if cfg.CloudEnabled() {
		if err := c.attachCloud(); err != nil {
			db.Close()
			return nil, err
		}
	}
	return c, nil
}

// attachCloud builds the client and sync engine, restoring the session
// cookies saved by the last sign-in.
func (c *Context) attachCloud() error {
	client, err := cloud.New(cloud.OptionsFromConfig(c.Config.Cloud))
	if err != nil {
		return err
	}
	meta, err := c.SyncRepo.Meta()
	if err != nil {
		return err
	}
	if meta.SignedIn() {
		client.SetCookies(meta.Cookies)
	}

	c.Cloud = client
	c.Reconciler = cloudsync.New(c.Journal, client, c.SyncRepo, c.Config.Sync, cloudsync.WithClock(c.now))
	c.Reconciler.Attach()
	c.Account = cloudsync.NewAccount(c.Reconciler, client, c.Settings)
	return nil
}

// Close waits for mirror writes, saves the session cookies and closes the
// database.
func (c *Context) Close() error {
	if c.Reconciler != nil {
		c.Reconciler.Close()
		if err := c.saveCookies(); err != nil {
			logging.Warn("failed to save session cookies", logging.KeyError, err)
		}
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

func (c *Context) saveCookies() error {
	if !c.Cloud.HasSession() {
		return nil
	}
	return c.SyncRepo.UpdateMeta(func(m *model.SyncMeta) {
		if m.SignedIn() {
			m.Cookies = c.Cloud.Cookies()
		}
	})
}

// Ctx returns the request-scoped context of this invocation.
func (c *Context) Ctx() context.Context {
	return c.reqCtx
}

// Now returns the current time from the context's clock.
func (c *Context) Now() time.Time {
	return c.now()
}

// Today returns the current practice day.
func (c *Context) Today() string {
	return c.now().Format(model.DateLayout)
}

// RequireCloud refuses account and sync commands when no backend is configured.
func (c *Context) RequireCloud() error {
	if c.Reconciler == nil {
		return errors.NewValidationError("cloud", "no sync backend configured",
			"Set ASHTANGA_CLOUD_URL or cloud.base_url in "+config.DefaultFilePath())
	}
	return nil
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// IsCLI returns true if output format is CLI.
func (c *Context) IsCLI() bool {
	return c.Formatter.Format == output.FormatCLI
}

// Debugf logs debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...any) {
	if c.Debug {
		logging.FromContext(c.reqCtx).Debug(fmt.Sprintf(format, args...))
	}
}
