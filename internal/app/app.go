// Package app assembles the store, domain services and HTTP surface from a
// Config. cmd/server and internal/testserver both build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phil-jonesQ/app-ruuner/internal/config"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/build"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
	"github.com/phil-jonesQ/app-ruuner/internal/mcp"
	"github.com/phil-jonesQ/app-ruuner/internal/realtime"
	"github.com/phil-jonesQ/app-ruuner/internal/sqlite"
	"github.com/phil-jonesQ/app-ruuner/internal/transport"
)

// Options carries collaborators that are not part of Config.
type Options struct {
	Logger  *slog.Logger
	Version string
	// Pipeline replaces the npm pipeline; tests use it to avoid npm.
	Pipeline build.Pipeline
}

// App is a fully wired dashboard.
type App struct {
	Config   config.Config
	DB       *sqlite.DB
	Notifier *stats.Notifier
	Projects *project.Registry
	Activity *activity.Service
	Sessions *session.Service
	Stats    *stats.Service
	Builds   *build.Service
	Realtime *realtime.Broadcaster
	MCP      *sdkmcp.Server
	Handler  http.Handler

	logger  *slog.Logger
	watcher *project.Watcher
}

// New opens and migrates the store and wires every service. A store that
// cannot be opened or migrated is returned as an error.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.Open(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	notifier := stats.NewNotifier()

	statsRepo := sqlite.NewStatsRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	kvRepo := sqlite.NewKVRepository(db)

	registry := project.NewRegistry(cfg.Projects.Root, cfg.Projects.DistDir, logger)
	activitySvc := activity.NewService(activityRepo, logger)
	sessionSvc := session.NewService(sessionRepo, activitySvc, func() {
		notifier.Publish(stats.Change{Kind: stats.KindSession})
	}, logger)
	statsSvc := stats.NewService(statsRepo, sessionSvc, kvRepo, activitySvc, notifier, logger)

	pipeline := opts.Pipeline
	if pipeline == nil {
		pipeline = build.NPMPipeline{Command: cfg.Build.NPMCommand}
	}
	buildSvc := build.NewService(registry, pipeline, activitySvc, notifier, build.Options{
		Timeout:   cfg.Build.Timeout,
		MaxOutput: cfg.Build.MaxOutput,
	}, logger)

	broadcaster := realtime.New(statsSvc, sessionSvc, registry, notifier, realtime.Options{
		PingInterval:   cfg.Realtime.PingInterval,
		WriteTimeout:   cfg.Realtime.WriteTimeout,
		SendBuffer:     cfg.Realtime.SendBuffer,
		OriginPatterns: cfg.Realtime.OriginPatterns,
	}, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: registry,
			Builds:   buildSvc,
			Stats:    statsSvc,
			Sessions: sessionSvc,
			Activity: activitySvc,
		},
		Version: opts.Version,
		Logger:  logger,
	})

	services := transport.Services{
		Projects: registry,
		Builds:   buildSvc,
		Stats:    statsSvc,
		Sessions: sessionSvc,
		Activity: activitySvc,
		Realtime: broadcaster,
	}
	if cfg.MCP.Enabled {
		services.MCP = mcp.NewHTTPHandler(mcpServer)
	}

	return &App{
		Config:   cfg,
		DB:       db,
		Notifier: notifier,
		Projects: registry,
		Activity: activitySvc,
		Sessions: sessionSvc,
		Stats:    statsSvc,
		Builds:   buildSvc,
		Realtime: broadcaster,
		MCP:      mcpServer,
		Handler:  transport.NewServer(services, logger),
		logger:   logger,
	}, nil
}

// Prepare runs the startup steps that must finish before clients connect:
// the stale-session sweep and the one-time legacy import.
func (a *App) Prepare(ctx context.Context) error {
	if a.Config.Sessions.SweepOnStart {
		closed, err := a.Sessions.Sweep(ctx)
		if err != nil {
			return fmt.Errorf("sweep sessions: %w", err)
		}
		if closed > 0 {
			a.logger.Info("closed stale sessions", "count", closed)
		}
	}

	if _, err := a.Stats.ImportLegacy(ctx, a.Config.Legacy.StatsPath); err != nil {
		return fmt.Errorf("import legacy stats: %w", err)
	}
	return nil
}

// StartWatcher watches the projects root until ctx is done. A missing root
// is logged and skipped.
func (a *App) StartWatcher(ctx context.Context) error {
	if !a.Config.Projects.Watch {
		return nil
	}
	w, err := project.NewWatcher(a.Config.Projects.Root, a.Config.Projects.Debounce, func() {
		a.Notifier.Publish(stats.Change{Kind: stats.KindProjects})
	}, a.logger)
	if errors.Is(err, os.ErrNotExist) {
		a.logger.Warn("projects root does not exist, not watching", "root", a.Config.Projects.Root)
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch projects root: %w", err)
	}
	a.watcher = w
	go w.Run(ctx)
	return nil
}

// Close stops the realtime hub and watcher, then closes the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Realtime.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown realtime: %w", err))
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close watcher: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
