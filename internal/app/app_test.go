package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phil-jonesQ/app-ruuner/internal/config"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DB.Path = filepath.Join(dir, "db", "apprunner.db")
	cfg.Legacy.StatsPath = filepath.Join(dir, "stats.json")
	cfg.Projects.Root = filepath.Join(dir, "apps")
	cfg.Projects.Debounce = 20 * time.Millisecond
	require.NoError(t, os.MkdirAll(cfg.Projects.Root, 0o755))
	return cfg
}

func TestStartupSweepClosesStaleSessions(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	_, err = first.Sessions.Connect(ctx, "left-open", nil)
	require.NoError(t, err)
	// Simulate a crash: the session is never disconnected.
	require.NoError(t, first.DB.Close())

	second, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close(context.Background()) })

	snap, err := second.Stats.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), snap.Online)

	require.NoError(t, second.Prepare(ctx))

	snap, err = second.Stats.Snapshot(ctx)
	require.NoError(t, err)
	require.Zero(t, snap.Online)

	typ := activity.TypeSessionSweep
	entries, err := second.Activity.GetRecentActivity(ctx, activity.ListActivityOptions{ActivityType: &typ})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSweepDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Sessions.SweepOnStart = false

	a, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	_, err = a.Sessions.Connect(ctx, "s1", nil)
	require.NoError(t, err)
	require.NoError(t, a.Prepare(ctx))

	count, err := a.Sessions.OnlineCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

func TestPrepareSurvivesCorruptLegacySnapshot(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Legacy.StatsPath, []byte(`{"launches": [`), 0o644))

	a, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	require.NoError(t, a.Prepare(ctx))
	require.NoFileExists(t, cfg.Legacy.StatsPath)
	require.FileExists(t, cfg.Legacy.StatsPath+stats.CorruptSuffix)

	snap, err := a.Stats.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.Launches)
}

func TestNewFailsOnUnopenableStore(t *testing.T) {
	cfg := testConfig(t)
	// A directory where the database file should be.
	require.NoError(t, os.MkdirAll(cfg.DB.Path, 0o755))

	_, err := New(context.Background(), cfg, Options{})
	require.Error(t, err)
}

func TestWatcherPublishesProjectChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig(t)

	a, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	changes := make(chan stats.Change, 8)
	unsubscribe := a.Notifier.Subscribe(func(c stats.Change) {
		if c.Kind == stats.KindProjects {
			select {
			case changes <- c:
			default:
			}
		}
	})
	defer unsubscribe()

	require.NoError(t, a.StartWatcher(ctx))
	require.NoError(t, os.Mkdir(filepath.Join(cfg.Projects.Root, "fresh"), 0o755))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a projects change")
	}
}

func TestWatcherMissingRoot(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Projects.Root = filepath.Join(t.TempDir(), "missing")

	a, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	require.NoError(t, a.StartWatcher(ctx))
}
