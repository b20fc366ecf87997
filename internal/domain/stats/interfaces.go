package stats

import (
	"context"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
)

// Repository provides persistence for launch counters and rating samples.
type Repository interface {
	IncrementLaunch(ctx context.Context, projectID string) (uint64, error)
	SetLaunchCount(ctx context.Context, projectID string, count uint64) error
	AppendRating(ctx context.Context, projectID string, value float64) (uint64, error)
	LaunchCounts(ctx context.Context) (map[string]uint64, error)
	RatingSummaries(ctx context.Context) (map[string]RatingSummary, error)
}

// KVStore stores small schema markers.
type KVStore interface {
	SetValue(ctx context.Context, key, value string) error
}

// OnlineCounter reports the number of open realtime sessions.
type OnlineCounter interface {
	OnlineCount(ctx context.Context) (uint64, error)
}

// ActivityLogger records notable store events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
