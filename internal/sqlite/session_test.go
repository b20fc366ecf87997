package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, &session.Session{ID: "s1", ConnectedAt: now}))
	require.NoError(t, repo.Upsert(ctx, &session.Session{ID: "s2", ConnectedAt: now.Add(time.Second)}))

	open, err := repo.CountOpen(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), open)

	require.NoError(t, repo.Close(ctx, "s1", now.Add(2*time.Second)))
	require.ErrorIs(t, repo.Close(ctx, "s1", now.Add(3*time.Second)), repository.ErrNotFound)
	require.ErrorIs(t, repo.Close(ctx, "ghost", now), repository.ErrNotFound)

	open, err = repo.CountOpen(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), open)

	// Reconnecting with the same id reopens the row.
	require.NoError(t, repo.Upsert(ctx, &session.Session{ID: "s1", ConnectedAt: now.Add(4 * time.Second)}))
	open, err = repo.CountOpen(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), open)
}

func TestSessionRepository_Meta(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	require.NoError(t, repo.Upsert(ctx, &session.Session{ID: "s1", ConnectedAt: time.Now()}))
	require.NoError(t, repo.UpdateMeta(ctx, "s1", map[string]string{"user": "kiosk"}))
	require.ErrorIs(t, repo.UpdateMeta(ctx, "ghost", nil), repository.ErrNotFound)

	list, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "kiosk", list[0].Meta["user"])
	require.Nil(t, list[0].DisconnectedAt)
}

func TestSessionRepository_CloseAllOpen(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	now := time.Now().UTC()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Upsert(ctx, &session.Session{ID: id, ConnectedAt: now}))
	}
	require.NoError(t, repo.Close(ctx, "a", now))

	closed, err := repo.CloseAllOpen(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(2), closed)

	open, err := repo.CountOpen(ctx)
	require.NoError(t, err)
	require.Zero(t, open)

	closed, err = repo.CloseAllOpen(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.Zero(t, closed)
}

func TestSessionRepository_ListRecentOrder(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, repo.Upsert(ctx, &session.Session{ID: id, ConnectedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, repo.Close(ctx, "old", base.Add(time.Hour)))

	list, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "new", list[0].ID)
	require.Equal(t, "mid", list[1].ID)

	list, err = repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.NotNil(t, list[2].DisconnectedAt)
	require.True(t, list[2].ConnectedAt.Equal(base))
}
