package mocks

import (
	"context"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
	"github.com/stretchr/testify/mock"
)

// StatsRepository is a mock for stats.Repository.
type StatsRepository struct {
	mock.Mock
}

func (m *StatsRepository) IncrementLaunch(ctx context.Context, projectID string) (uint64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *StatsRepository) SetLaunchCount(ctx context.Context, projectID string, count uint64) error {
	args := m.Called(ctx, projectID, count)
	return args.Error(0)
}

func (m *StatsRepository) AppendRating(ctx context.Context, projectID string, value float64) (uint64, error) {
	args := m.Called(ctx, projectID, value)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *StatsRepository) LaunchCounts(ctx context.Context) (map[string]uint64, error) {
	args := m.Called(ctx)
	if counts, ok := args.Get(0).(map[string]uint64); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StatsRepository) RatingSummaries(ctx context.Context) (map[string]stats.RatingSummary, error) {
	args := m.Called(ctx)
	if summaries, ok := args.Get(0).(map[string]stats.RatingSummary); ok {
		return summaries, args.Error(1)
	}
	return nil, args.Error(1)
}

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Upsert(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) UpdateMeta(ctx context.Context, id string, meta map[string]string) error {
	args := m.Called(ctx, id, meta)
	return args.Error(0)
}

func (m *SessionRepository) Close(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *SessionRepository) CountOpen(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *SessionRepository) CloseAllOpen(ctx context.Context, at time.Time) (int64, error) {
	args := m.Called(ctx, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SessionRepository) ListRecent(ctx context.Context, limit int) ([]session.Session, error) {
	args := m.Called(ctx, limit)
	if list, ok := args.Get(0).([]session.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// KVRepository is a mock for the schema key/value store.
type KVRepository struct {
	mock.Mock
}

func (m *KVRepository) GetValue(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *KVRepository) SetValue(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// OnlineCounter is a mock for stats.OnlineCounter.
type OnlineCounter struct {
	mock.Mock
}

func (m *OnlineCounter) OnlineCount(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}
