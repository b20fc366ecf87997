package session

import (
	"context"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
)

// Repository provides persistence for sessions.
type Repository interface {
	Upsert(ctx context.Context, sess *Session) error
	UpdateMeta(ctx context.Context, id string, meta map[string]string) error
	Close(ctx context.Context, id string, at time.Time) error
	CountOpen(ctx context.Context) (uint64, error)
	CloseAllOpen(ctx context.Context, at time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]Session, error)
}

// ActivityLogger records notable session events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}

// Notify is called after a session mutation has been committed.
type Notify func()
