// Package server is a self-hostable sync backend: e-mail/password accounts
// with verification codes, a per-user record document and photo storage.
// It speaks the API in internal/cloud.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashtangalog/ashtanga/internal/cloud"
	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/logging"
)

// Mailer delivers verification codes.
type Mailer interface {
	SendCode(email, purpose, code string) error
}

// WriterMailer writes codes to an io.Writer. It stands in for a mail
// service on a self-hosted backend.
type WriterMailer struct {
	W io.Writer
}

// SendCode writes the code.
func (m WriterMailer) SendCode(email, purpose, code string) error {
	_, err := fmt.Fprintf(m.W, "verification code for %s (%s): %s\n", email, purpose, code)
	return err
}

// Server is the sync backend.
type Server struct {
	db        *gorm.DB
	cfg       config.ServerConfig
	photo     config.PhotoConfig
	uploadDir string
	mailer    Mailer
	now       func() time.Time
	engine    *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithMailer overrides code delivery.
func WithMailer(m Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// DefaultDatabasePath returns the sqlite path under the XDG data dir.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, config.AppName, "server.db")
}

// DefaultUploadDir returns the photo directory under the XDG data dir.
func DefaultUploadDir() string {
	return filepath.Join(xdg.DataHome, config.AppName, "photos")
}

// OpenDatabase opens the sqlite database and migrates the schema.
func OpenDatabase(path string) (*gorm.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultDatabasePath()
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite has a single writer
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}

// New creates a server over db.
func New(db *gorm.DB, cfg config.ServerConfig, photo config.PhotoConfig, opts ...Option) (*Server, error) {
	s := &Server{
		db:        db,
		cfg:       cfg,
		photo:     photo,
		uploadDir: cfg.UploadDir,
		mailer:    WriterMailer{W: os.Stderr},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	clock := s.now
	s.now = func() time.Time { return clock().UTC() }
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	}
	if s.uploadDir == "" {
		s.uploadDir = DefaultUploadDir()
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, err
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		logging.Warn("no session secret configured, sessions end when the server restarts")
	}

	s.engine = s.setupRouter(secret)
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.ListenAddr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("sync backend listening", "addr", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logging.Info("sync backend shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setupRouter(secret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	store := cookie.NewStore(secret)
	maxAge := int(s.cfg.SessionMaxAge / time.Second)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cloud.SessionCookieName, store))
	r.MaxMultipartMemory = s.photo.MaxBytes + 1<<20

	r.GET(cloud.PathPing, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.Static("/photos", s.uploadDir)

	auth := r.Group("/api/auth")
	{
		auth.POST("/send-verification-code", s.SendVerificationCode)
		auth.POST("/verify-code", s.VerifyCode)
		auth.POST("/register", s.Register)
		auth.POST("/login", s.Login)
		auth.POST("/logout", s.Logout)
		auth.POST("/reset-password", s.ResetPassword)
		auth.POST("/password", s.AuthRequired(), s.UpdatePassword)
	}

	api := r.Group("/api")
	api.Use(s.AuthRequired())
	{
		api.GET("/sync/snapshot", s.GetSnapshot)
		api.PUT("/sync/snapshot", s.PutSnapshot)
		api.POST("/sync/records", s.UpsertRecords)
		api.POST("/sync/delete-record", s.DeleteRecord)
		api.POST("/sync/upload-profile", s.UploadProfile)
		api.PUT("/sync/options", s.ReplaceOptions)
		api.DELETE("/account/data", s.DeleteAccountData)
		api.POST("/storage/photos", s.UploadPhoto)
		api.DELETE("/storage/photos", s.DeletePhoto)
	}

	return r
}

// requestLogger logs each request through the structured logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(cloud.HeaderRequestID)
		if reqID == "" || len(reqID) > 64 {
			reqID = logging.GenerateRequestID()
		}
		c.Header(cloud.HeaderRequestID, reqID)
		c.Set(logging.KeyRequestID, reqID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), reqID))
		c.Next()
		logging.FromContext(c.Request.Context()).Debug("http request",
			"method", c.Request.Method,
			logging.KeyPath, c.FullPath(),
			logging.KeyStatus, c.Writer.Status(),
			logging.KeyDuration, time.Since(start).Milliseconds(),
		)
	}
}
