package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
)

// DefaultTimeout bounds a whole build attempt.
const DefaultTimeout = 10 * time.Minute

// Resolver maps a project id to its directory.
type Resolver interface {
	Resolve(id string) (string, error)
}

// ActivityLogger records finished attempts.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}

// Options tunes the orchestrator.
type Options struct {
	Timeout   time.Duration
	MaxOutput int
}

// Service runs project builds, at most one per project id at a time.
type Service struct {
	projects  Resolver
	pipeline  Pipeline
	activity  ActivityLogger
	publisher stats.Publisher
	opts      Options
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a build orchestrator. activityLog and publisher may be nil.
func NewService(
	projects Resolver,
	pipeline Pipeline,
	activityLog ActivityLogger,
	publisher stats.Publisher,
	opts Options,
	logger *slog.Logger,
) *Service {
	if pipeline == nil {
		pipeline = NPMPipeline{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxOutput <= 0 {
		opts.MaxOutput = DefaultMaxOutput
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		projects:  projects,
		pipeline:  pipeline,
		activity:  activityLog,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// Build installs and compiles a project. It returns *Failure (matching
// ErrBuildFailed) when a step fails. Cancelling ctx does not stop a build
// that has already started.
func (s *Service) Build(ctx context.Context, projectID string) (*Result, error) {
	if err := project.ValidateID(projectID); err != nil {
		return nil, err
	}
	dir, err := s.projects.Resolve(projectID)
	if err != nil {
		return nil, err
	}

	if !s.acquire(projectID) {
		return nil, ErrBuildInProgress
	}
	defer s.release(projectID)

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	s.logger.Info("build started", "project", projectID)

	logs, runErr := s.run(ctx, dir)
	elapsed := time.Since(start)

	if runErr != nil {
		failure := &Failure{Logs: logs, Cause: runErr}
		s.logger.Warn("build failed", "project", projectID, "duration", elapsed, "error", runErr)
		s.finished(ctx, projectID, false, runErr.Error())
		return nil, failure
	}

	s.logger.Info("build succeeded", "project", projectID, "duration", elapsed)
	s.finished(ctx, projectID, true, "")
	return &Result{ProjectID: projectID, OK: true, Logs: logs, Duration: elapsed}, nil
}

// Running reports whether a build for projectID is in flight.
func (s *Service) Running(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[projectID]
	return ok
}

func (s *Service) acquire(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[projectID]; ok {
		return false
	}
	s.inFlight[projectID] = struct{}{}
	return true
}

func (s *Service) release(projectID string) {
	s.mu.Lock()
	delete(s.inFlight, projectID)
	s.mu.Unlock()
}

func (s *Service) run(ctx context.Context, dir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	logs := newLogBuffer(s.opts.MaxOutput, cancel)

	steps, err := s.pipeline.Steps(dir)
	if err != nil {
		fmt.Fprintf(logs, "%v\n", err)
		return logs.String(), err
	}

	for _, step := range steps {
		logs.Announce(step)

		cmd := exec.CommandContext(ctx, step.Name, step.Args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), step.Env...)
		cmd.Stdout = logs
		cmd.Stderr = logs
		cmd.WaitDelay = 5 * time.Second
		killGroup(cmd)

		err := cmd.Run()
		switch {
		case logs.Overflowed():
			return logs.String(), fmt.Errorf("%w (%d bytes)", ErrOutputExceeded, s.opts.MaxOutput)
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return logs.String(), fmt.Errorf("%s: timed out after %s", step, s.opts.Timeout)
		case errors.Is(err, exec.ErrNotFound):
			fmt.Fprintf(logs, "%s: command not found\n", step.Name)
			return logs.String(), fmt.Errorf("%s: %w", step.Name, err)
		case err != nil:
			return logs.String(), fmt.Errorf("%s: %w", step, err)
		}
	}
	return logs.String(), nil
}

func (s *Service) finished(ctx context.Context, projectID string, ok bool, details string) {
	if s.activity != nil {
		entry := &activity.ActivityEntry{
			ProjectID:    projectID,
			ActivityType: activity.TypeBuildSucceeded,
			Summary:      "build succeeded",
		}
		if !ok {
			entry.ActivityType = activity.TypeBuildFailed
			entry.Summary = "build failed"
			entry.Details = details
		}
		if err := s.activity.LogActivity(ctx, entry); err != nil {
			s.logger.Warn("failed to log build", "project", projectID, "error", err)
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(stats.Change{Kind: stats.KindBuild, ProjectID: projectID, OK: ok})
	}
}
