package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ashtangalog/ashtanga/internal/config"
	"github.com/ashtangalog/ashtanga/internal/server"
)

// Serve command flags.
var (
	serveFlagAddr        string
	serveFlagDatabase    string
	serveFlagUploadDir   string
	serveFlagPublicURL   string
	serveFlagExposeCodes bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference sync backend",
	Long: `Run a self-hosted sync backend: accounts with mailed verification codes,
record storage and photo uploads, over JSON/HTTP with cookie sessions.

Verification codes are written to stderr. For local development
--expose-codes also returns them in the API response.

Examples:
  ashtanga serve
  ashtanga serve --addr :8787 --database /srv/ashtanga/server.db
  ASHTANGA_SESSION_SECRET=... ashtanga serve --public-url https://sync.example.com`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlagAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveFlagDatabase, "database", "", "sqlite database file (default "+server.DefaultDatabasePath()+")")
	serveCmd.Flags().StringVar(&serveFlagUploadDir, "upload-dir", "", "Photo directory (default "+server.DefaultUploadDir()+")")
	serveCmd.Flags().StringVar(&serveFlagPublicURL, "public-url", "", "Base URL used in returned photo links")
	serveCmd.Flags().BoolVar(&serveFlagExposeCodes, "expose-codes", false, "Return verification codes in API responses")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Global.Server
	if serveFlagAddr != "" {
		cfg.ListenAddr = serveFlagAddr
	}
	if serveFlagDatabase != "" {
		cfg.DatabasePath = serveFlagDatabase
	}
	if serveFlagUploadDir != "" {
		cfg.UploadDir = serveFlagUploadDir
	}
	if serveFlagPublicURL != "" {
		cfg.PublicBaseURL = serveFlagPublicURL
	}
	if cmd.Flags().Changed("expose-codes") {
		cfg.ExposeCodes = serveFlagExposeCodes
	}

	db, err := server.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	srv, err := server.New(db, cfg, config.Global.Photo, server.WithMailer(server.WriterMailer{W: os.Stderr}))
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(runCtx)
}
