package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/build"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context) ([]project.Project, error)
}

// BuildService defines build operations needed by MCP.
type BuildService interface {
	Build(ctx context.Context, projectID string) (*build.Result, error)
}

// StatsService defines stats operations needed by MCP.
type StatsService interface {
	RecordLaunch(ctx context.Context, projectID string) (uint64, error)
	RecordRating(ctx context.Context, projectID string, value float64) (uint64, error)
	Snapshot(ctx context.Context) (*stats.Snapshot, error)
}

// SessionService defines session operations needed by MCP.
type SessionService interface {
	List(ctx context.Context, limit int) ([]session.Session, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Builds   BuildService
	Stats    StatsService
	Sessions SessionService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "app-runner",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	server.AddReceivingMiddleware(toolCallLogging(logger))

	h := &handlers{svc: cfg.Services, logger: logger}
	registerTools(server, h)
	registerResources(server, h)

	return server
}
