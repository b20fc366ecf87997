package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/phil-jonesQ/app-ruuner/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_IncrementLaunch(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewStatsRepository(db)

	for want := uint64(1); want <= 3; want++ {
		got, err := repo.IncrementLaunch(ctx, "app1")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	got, err := repo.IncrementLaunch(ctx, "app2")
	require.NoError(t, err)
	require.Equal(t, uint64(1), got)

	counts, err := repo.LaunchCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"app1": 3, "app2": 1}, counts)
}

func TestStatsRepository_SetLaunchCount(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewStatsRepository(db)

	require.NoError(t, repo.SetLaunchCount(ctx, "app1", 10))
	require.NoError(t, repo.SetLaunchCount(ctx, "app1", 10))

	got, err := repo.IncrementLaunch(ctx, "app1")
	require.NoError(t, err)
	require.Equal(t, uint64(11), got)
}

func TestStatsRepository_Ratings(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewStatsRepository(db)

	count, err := repo.AppendRating(ctx, "app1", 4)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	count, err = repo.AppendRating(ctx, "app1", 2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	_, err = repo.AppendRating(ctx, "app2", 5)
	require.NoError(t, err)

	summaries, err := repo.RatingSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.InDelta(t, 3.0, summaries["app1"].Average, 1e-9)
	require.Equal(t, uint64(2), summaries["app1"].Count)
	require.InDelta(t, 5.0, summaries["app2"].Average, 1e-9)
}

func TestStatsRepository_RatingOutOfRange(t *testing.T) {
	db := NewTestDB(t)
	repo := NewStatsRepository(db)

	_, err := repo.AppendRating(context.Background(), "app1", 9)
	require.ErrorIs(t, err, repository.ErrConstraint)

	summaries, err := repo.RatingSummaries(context.Background())
	require.NoError(t, err)
	require.Empty(t, summaries)
}

func TestStatsRepository_ConcurrentLaunches(t *testing.T) {
	db := newFileDB(t)
	ctx := context.Background()
	repo := NewStatsRepository(db)

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := repo.IncrementLaunch(ctx, "app1"); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	counts, err := repo.LaunchCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(workers*perWorker), counts["app1"])
}
