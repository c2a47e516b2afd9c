// student-register is the entry point of the student register.
//
// COMMANDS:
//
//	student-register          open the terminal form (default)
//	student-register serve    run the JSON HTTP API
//	student-register list     print every registered student
//
// STARTUP SEQUENCE (shared by every command):
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open (and migrate) the SQLite database
//  4. Connect the change-event publisher, if one is configured
//  5. Wrap the store in a feed so every front-end sees every change
//
// RUNNING:
//
//	go run ./cmd/student-register --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/student-register serve
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-register/internal/config"
	"github.com/aanand-mishra/student-register/internal/events"
	"github.com/aanand-mishra/student-register/internal/feed"
	"github.com/aanand-mishra/student-register/internal/storage/sqlite"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "student-register",
	Short:         "Register students with a name/email form",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration YAML file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is everything a command needs once startup has finished.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	logFile *os.File
	store   *sqlite.SQLite
	pub     events.Publisher
	feed    *feed.Feed
}

// open runs the shared startup sequence. Logs go to stdout, or to
// cfg.LogPath when logToFile is set.
func open(logToFile bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var (
		logOut  io.Writer = os.Stdout
		logFile *os.File
	)
	if logToFile {
		if err := ensureDir(cfg.LogPath); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		logFile, err = os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		logOut = logFile
	}

	log := setupLogger(cfg.Env, logOut)
	log.Info("starting student-register",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	closeLog := func() {
		if logFile != nil {
			logFile.Close()
		}
	}

	if err := ensureDir(cfg.StoragePath); err != nil {
		closeLog()
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	store, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		closeLog()
		return nil, err
	}
	log.Info("storage initialised", slog.String("path", cfg.StoragePath))

	var pub events.Publisher
	if cfg.Events.NATSURL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.Events.NATSURL)
		if err != nil {
			store.Close()
			closeLog()
			return nil, err
		}
		pub = natsPub
		log.Info("events enabled", slog.String("nats_url", cfg.Events.NATSURL))
	} else {
		pub = &events.NoopPublisher{}
		log.Info("events disabled (events.nats_url not set)")
	}

	return &app{
		cfg:     cfg,
		log:     log,
		logFile: logFile,
		store:   store,
		pub:     pub,
		feed:    feed.New(store, pub, log),
	}, nil
}

// ensureDir creates the parent directory of path if it has one.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// startFeed runs the feed's refresher until ctx is done.
func (a *app) startFeed(ctx context.Context) {
	go func() {
		if err := a.feed.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("feed stopped", slog.String("error", err.Error()))
		}
	}()
}

func (a *app) Close() {
	if err := a.pub.Close(); err != nil {
		a.log.Warn("closing event publisher", slog.String("error", err.Error()))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing storage", slog.String("error", err.Error()))
	}
	a.log.Info("stopped")
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string, w io.Writer) *slog.Logger {
	var log *slog.Logger
	switch env {
	case "prod":
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case "staging":
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default: // "dev" and anything unrecognised
		log = slog.New(
			slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}
	// Package-level slog calls (the HTTP handlers) use the same handler.
	slog.SetDefault(log)
	return log
}
