package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/repository"
)

const (
	// DefaultListLimit is used when List is called with a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps List results.
	MaxListLimit = 500
)

// Service tracks realtime session lifecycles.
type Service struct {
	sessions Repository
	activity ActivityLogger
	notify   Notify
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new session service. notify may be nil.
func NewService(sessions Repository, activityLog ActivityLogger, notify Notify, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		sessions: sessions,
		activity: activityLog,
		notify:   notify,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Connect opens (or reopens) a session.
func (s *Service) Connect(ctx context.Context, id string, meta map[string]string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	sess := &Session{
		ID:          id,
		ConnectedAt: s.now(),
		Meta:        meta,
	}
	if err := s.sessions.Upsert(ctx, sess); err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	s.logger.Debug("session connected", "session_id", id)
	s.changed()
	return sess, nil
}

// Join replaces the metadata of an existing session.
func (s *Service) Join(ctx context.Context, id string, meta map[string]string) error {
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.UpdateMeta(ctx, id, meta); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("updating session meta: %w", err)
	}
	return nil
}

// Disconnect soft-closes a session. Closing an already closed or unknown
// session is a no-op.
func (s *Service) Disconnect(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}

	err := s.sessions.Close(ctx, id, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("closing session: %w", err)
	}

	s.logger.Debug("session disconnected", "session_id", id)
	s.changed()
	return nil
}

// OnlineCount returns the number of open sessions, counted from the table.
func (s *Service) OnlineCount(ctx context.Context) (uint64, error) {
	count, err := s.sessions.CountOpen(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting open sessions: %w", err)
	}
	return count, nil
}

// Sweep closes every session left open by a previous process. It must run
// before the realtime endpoint accepts connections.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	closed, err := s.sessions.CloseAllOpen(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	if closed == 0 {
		return 0, nil
	}

	s.logger.Info("closed stale sessions", "count", closed)
	if s.activity != nil {
		entry := &activity.ActivityEntry{
			ActivityType: activity.TypeSessionSweep,
			Summary:      fmt.Sprintf("closed %d stale sessions", closed),
			CreatedAt:    now,
		}
		if err := s.activity.LogActivity(ctx, entry); err != nil {
			s.logger.Warn("failed to log session sweep", "error", err)
		}
	}
	s.changed()
	return closed, nil
}

// List returns sessions most recent first.
func (s *Service) List(ctx context.Context, limit int) ([]Session, error) {
	limit = ClampLimit(limit)
	list, err := s.sessions.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if list == nil {
		list = []Session{}
	}
	return list, nil
}

// ClampLimit applies the default and maximum list sizes.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func (s *Service) changed() {
	if s.notify != nil {
		s.notify()
	}
}
