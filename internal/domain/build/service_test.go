package build_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/build"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
	"github.com/phil-jonesQ/app-ruuner/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []stats.Change
}

func (p *recordingPublisher) Publish(c stats.Change) {
	p.mu.Lock()
	p.changes = append(p.changes, c)
	p.mu.Unlock()
}

func (p *recordingPublisher) all() []stats.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]stats.Change(nil), p.changes...)
}

// gatePipeline blocks inside Steps until released.
type gatePipeline struct {
	started chan struct{}
	release chan struct{}
}

func (g gatePipeline) Steps(string) ([]build.Step, error) {
	close(g.started)
	<-g.release
	return build.ShellPipeline("true").Steps("")
}

func newRegistry(t *testing.T, ids ...string) *project.Registry {
	t.Helper()
	root := t.TempDir()
	for _, id := range ids {
		require.NoError(t, os.MkdirAll(filepath.Join(root, id), 0o755))
	}
	return project.NewRegistry(root, "", nil)
}

func TestBuild_Success(t *testing.T) {
	reg := newRegistry(t, "app")
	pub := &recordingPublisher{}

	activityRepo := &mocks.ActivityRepository{}
	activityRepo.On("Log", mock.Anything, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeBuildSucceeded && e.ProjectID == "app"
	})).Return(nil)

	svc := build.NewService(reg, build.ShellPipeline("echo compiling", "mkdir dist"),
		activity.NewService(activityRepo, nil), pub, build.Options{}, nil)

	result, err := svc.Build(context.Background(), "app")
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Contains(t, result.Logs, "$ sh -c echo compiling")
	require.Contains(t, result.Logs, "compiling\n")
	require.DirExists(t, filepath.Join(reg.Root(), "app", "dist"))

	require.Equal(t, []stats.Change{{Kind: stats.KindBuild, ProjectID: "app", OK: true}}, pub.all())
	activityRepo.AssertExpectations(t)
	require.False(t, svc.Running("app"))
}

func TestBuild_StepFailure(t *testing.T) {
	reg := newRegistry(t, "app")
	pub := &recordingPublisher{}
	svc := build.NewService(reg, build.ShellPipeline("echo first", "echo broken >&2; exit 3", "echo never"),
		nil, pub, build.Options{}, nil)

	result, err := svc.Build(context.Background(), "app")
	require.Nil(t, result)
	require.ErrorIs(t, err, build.ErrBuildFailed)

	var failure *build.Failure
	require.True(t, errors.As(err, &failure))
	require.Contains(t, failure.Logs, "first")
	require.Contains(t, failure.Logs, "broken")
	require.NotContains(t, failure.Logs, "never")

	require.Equal(t, []stats.Change{{Kind: stats.KindBuild, ProjectID: "app", OK: false}}, pub.all())

	// Failed builds are retryable.
	_, err = svc.Build(context.Background(), "app")
	require.ErrorIs(t, err, build.ErrBuildFailed)
}

func TestBuild_MissingTooling(t *testing.T) {
	reg := newRegistry(t, "app")
	pipeline := build.StaticPipeline{{Name: "apprunner-no-such-tool"}}
	svc := build.NewService(reg, pipeline, nil, nil, build.Options{}, nil)

	_, err := svc.Build(context.Background(), "app")
	require.ErrorIs(t, err, build.ErrBuildFailed)

	var failure *build.Failure
	require.True(t, errors.As(err, &failure))
	require.Contains(t, failure.Logs, "command not found")
}

func TestBuild_OutputOverflow(t *testing.T) {
	reg := newRegistry(t, "app")
	svc := build.NewService(reg, build.ShellPipeline("while true; do echo spam; done"),
		nil, nil, build.Options{MaxOutput: 256}, nil)

	_, err := svc.Build(context.Background(), "app")
	require.ErrorIs(t, err, build.ErrBuildFailed)
	require.ErrorIs(t, err, build.ErrOutputExceeded)

	var failure *build.Failure
	require.True(t, errors.As(err, &failure))
	require.LessOrEqual(t, len(failure.Logs), 256)
}

func TestBuild_Timeout(t *testing.T) {
	reg := newRegistry(t, "app")
	svc := build.NewService(reg, build.ShellPipeline("sleep 10"),
		nil, nil, build.Options{Timeout: 100 * time.Millisecond}, nil)

	start := time.Now()
	_, err := svc.Build(context.Background(), "app")
	require.ErrorIs(t, err, build.ErrBuildFailed)
	require.Contains(t, err.Error(), "timed out")
	require.Less(t, time.Since(start), 8*time.Second)
}

func TestBuild_IgnoresCallerCancellation(t *testing.T) {
	reg := newRegistry(t, "app")
	svc := build.NewService(reg, build.ShellPipeline("echo done"), nil, nil, build.Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Build(ctx, "app")
	require.NoError(t, err)
	require.Contains(t, result.Logs, "done")
}

func TestBuild_InProgress(t *testing.T) {
	reg := newRegistry(t, "app")
	gate := gatePipeline{started: make(chan struct{}), release: make(chan struct{})}
	svc := build.NewService(reg, gate, nil, nil, build.Options{}, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Build(context.Background(), "app")
		errCh <- err
	}()
	<-gate.started
	require.True(t, svc.Running("app"))

	_, err := svc.Build(context.Background(), "app")
	require.ErrorIs(t, err, build.ErrBuildInProgress)

	close(gate.release)
	require.NoError(t, <-errCh)
	require.False(t, svc.Running("app"))
}

func TestBuild_DistinctProjectsRunInParallel(t *testing.T) {
	reg := newRegistry(t, "app", "other")
	svc := build.NewService(reg, build.ShellPipeline("sleep 1"), nil, nil, build.Options{}, nil)

	start := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"app", "other"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Build(context.Background(), id)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Less(t, time.Since(start), 1800*time.Millisecond)
}

func TestBuild_InvalidAndUnknownProject(t *testing.T) {
	reg := newRegistry(t, "app")
	svc := build.NewService(reg, build.ShellPipeline("true"), nil, nil, build.Options{}, nil)

	_, err := svc.Build(context.Background(), "../escape")
	require.ErrorIs(t, err, project.ErrInvalidID)

	_, err = svc.Build(context.Background(), "ghost")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}
