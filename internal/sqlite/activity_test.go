package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogAndList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sessionID := "s1"
	entries := []*activity.ActivityEntry{
		{ProjectID: "app1", ActivityType: activity.TypeBuildFailed, Summary: "build failed", Details: "exit 1", CreatedAt: base},
		{ProjectID: "app1", ActivityType: activity.TypeBuildSucceeded, Summary: "build succeeded", CreatedAt: base.Add(time.Minute)},
		{ActivityType: activity.TypeSessionSweep, Summary: "closed 2", SessionID: &sessionID, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Log(ctx, e))
		require.NotZero(t, e.ID)
	}

	all, err := repo.List(ctx, activity.ListActivityOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, activity.TypeSessionSweep, all[0].ActivityType)
	require.NotNil(t, all[0].SessionID)
	require.Equal(t, "s1", *all[0].SessionID)

	forApp, err := repo.List(ctx, activity.ListActivityOptions{ProjectID: "app1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, forApp, 2)
	require.Equal(t, activity.TypeBuildSucceeded, forApp[0].ActivityType)
	require.Equal(t, "exit 1", forApp[1].Details)

	failed := activity.TypeBuildFailed
	onlyFailed, err := repo.List(ctx, activity.ListActivityOptions{ActivityType: &failed})
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)

	page, err := repo.List(ctx, activity.ListActivityOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, activity.TypeBuildSucceeded, page[0].ActivityType)
}
