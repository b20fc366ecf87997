package testserver

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phil-jonesQ/app-ruuner/internal/app"
	"github.com/phil-jonesQ/app-ruuner/internal/config"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/build"
)

// TestServer runs the whole dashboard against a temporary projects root and
// database file.
type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Root   string
}

// Option adjusts the configuration or options before the app is built.
type Option func(*config.Config, *app.Options)

// WithPipeline replaces the npm pipeline.
func WithPipeline(p build.Pipeline) Option {
	return func(_ *config.Config, opts *app.Options) {
		opts.Pipeline = p
	}
}

// WithLegacySnapshot writes data as the legacy stats file before startup.
func WithLegacySnapshot(t *testing.T, data string) Option {
	return func(cfg *config.Config, _ *app.Options) {
		require.NoError(t, os.WriteFile(cfg.Legacy.StatsPath, []byte(data), 0o644))
	}
}

func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	dir := t.TempDir()
	root := filepath.Join(dir, "apps")
	require.NoError(t, os.MkdirAll(root, 0o755))

	cfg := config.Default()
	cfg.DB.Path = filepath.Join(dir, "data", "apprunner.db")
	cfg.Legacy.StatsPath = filepath.Join(dir, "stats.json")
	cfg.Projects.Root = root
	cfg.Projects.Watch = false
	cfg.Build.Timeout = 30 * time.Second

	appOpts := app.Options{Version: "test", Pipeline: build.ShellPipeline("mkdir -p dist")}
	for _, opt := range opts {
		opt(&cfg, &appOpts)
	}
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	a, err := app.New(ctx, cfg, appOpts)
	require.NoError(t, err)
	require.NoError(t, a.Prepare(ctx))

	server := httptest.NewServer(a.Handler)
	t.Cleanup(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Realtime.Shutdown(closeCtx)
		server.Close()
		_ = a.Close(closeCtx)
	})

	return &TestServer{Server: server, App: a, Root: root}
}

// AddProject creates a project directory with the given files.
func (ts *TestServer) AddProject(t *testing.T, id string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(ts.Root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// URL returns the absolute HTTP URL for path.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WSURL returns the realtime endpoint URL.
func (ts *TestServer) WSURL() string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws"
}
