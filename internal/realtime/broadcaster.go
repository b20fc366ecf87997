package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
)

const (
	DefaultPingInterval = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultSendBuffer   = 16

	maxPendingBuilds = 256
	cleanupTimeout   = 5 * time.Second
)

// StatsSource derives the current snapshot.
type StatsSource interface {
	Snapshot(ctx context.Context) (*stats.Snapshot, error)
}

// SessionTracker records connection lifecycles.
type SessionTracker interface {
	Connect(ctx context.Context, id string, meta map[string]string) (*session.Session, error)
	Join(ctx context.Context, id string, meta map[string]string) error
	Disconnect(ctx context.Context, id string) error
}

// ProjectLister lists projects for projects:update pushes.
type ProjectLister interface {
	List(ctx context.Context) ([]project.Project, error)
}

// Subscriber is the read side of the change notifier.
type Subscriber interface {
	Subscribe(fn stats.Listener) func()
}

// Options tunes socket behaviour.
type Options struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
	OriginPatterns []string
}

// pending accumulates changes between hub passes.
type pending struct {
	stats    bool
	session  bool
	projects bool
	builds   []BuildUpdate
	greet    []*client
}

// Broadcaster owns the realtime websocket endpoint. Every committed change
// makes it recompute a snapshot from the store and push it to all clients.
type Broadcaster struct {
	stats    StatsSource
	sessions SessionTracker
	projects ProjectLister
	opts     Options
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool

	pendMu sync.Mutex
	pend   pending
	wake   chan struct{}

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	conns       sync.WaitGroup
	hubDone     chan struct{}
}

// New creates a broadcaster, subscribes it to notifier and starts its hub.
// projects may be nil.
func New(
	statsSrc StatsSource,
	sessions SessionTracker,
	projects ProjectLister,
	notifier Subscriber,
	opts Options,
	logger *slog.Logger,
) *Broadcaster {
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Broadcaster{
		stats:    statsSrc,
		sessions: sessions,
		projects: projects,
		opts:     opts,
		logger:   logger,
		clients:  make(map[string]*client),
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		hubDone:  make(chan struct{}),
	}
	if notifier != nil {
		b.unsubscribe = notifier.Subscribe(b.enqueue)
	}
	go b.runHub()
	return b
}

// Clients returns the number of connected sockets.
func (b *Broadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: b.opts.OriginPatterns,
	})
	if err != nil {
		b.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.CloseNow()

	c := newClient(uuid.NewString(), conn, b.opts.SendBuffer)
	if !b.register(c) {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer b.conns.Done()
	logger := b.logger.With("session_id", c.id)

	ctx, cancel := context.WithCancel(b.ctx)
	defer cancel()

	if _, err := b.sessions.Connect(ctx, c.id, nil); err != nil {
		logger.Error("failed to open session", "error", err)
		b.unregister(c)
		conn.Close(websocket.StatusInternalError, "session unavailable")
		return
	}
	logger.Info("realtime client connected", "remote", r.RemoteAddr)

	b.requestGreet(c)

	pumpDone := make(chan error, 1)
	go func() {
		err := c.writePump(ctx, b.opts.PingInterval, b.opts.WriteTimeout)
		cancel()
		pumpDone <- err
	}()

	b.readLoop(ctx, c, logger)
	cancel()
	<-pumpDone

	b.unregister(c)

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cleanupCancel()
	if err := b.sessions.Disconnect(cleanupCtx, c.id); err != nil {
		logger.Error("failed to close session", "error", err)
	}
	logger.Info("realtime client disconnected")
}

// Shutdown stops accepting sockets, closes every client and waits for
// their goroutines, bounded by ctx.
func (b *Broadcaster) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.conns.Wait()
		<-b.hubDone
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Broadcaster) register(c *client) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.clients[c.id] = c
	b.conns.Add(1)
	return true
}

func (b *Broadcaster) unregister(c *client) {
	b.mu.Lock()
	delete(b.clients, c.id)
	b.mu.Unlock()
}

// requestGreet queues the full state for a new client. The hub sends it so
// it cannot overtake a newer push.
func (b *Broadcaster) requestGreet(c *client) {
	b.pendMu.Lock()
	b.pend.greet = append(b.pend.greet, c)
	b.pendMu.Unlock()
	b.wakeHub()
}

func (b *Broadcaster) readLoop(ctx context.Context, c *client, logger *slog.Logger) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("ignoring malformed realtime message", "error", err)
			continue
		}

		switch msg.Type {
		case TypeSessionJoin:
			var join SessionJoin
			if len(msg.Data) > 0 {
				if err := json.Unmarshal(msg.Data, &join); err != nil {
					logger.Warn("ignoring malformed session:join", "error", err)
					continue
				}
			}
			if err := b.sessions.Join(ctx, c.id, join.Meta); err != nil {
				logger.Error("failed to join session", "error", err)
			}
		default:
			logger.Debug("ignoring realtime message", "type", msg.Type)
		}
	}
}

// enqueue is the notifier listener. It never blocks the publisher.
func (b *Broadcaster) enqueue(change stats.Change) {
	b.pendMu.Lock()
	switch change.Kind {
	case stats.KindLaunch, stats.KindRating:
		b.pend.stats = true
	case stats.KindSession:
		b.pend.stats = true
		b.pend.session = true
	case stats.KindBuild:
		b.pend.stats = true
		if len(b.pend.builds) < maxPendingBuilds {
			b.pend.builds = append(b.pend.builds, BuildUpdate{ProjectID: change.ProjectID, Success: change.OK})
		}
	case stats.KindProjects:
		b.pend.projects = true
	}
	b.pendMu.Unlock()
	b.wakeHub()
}

func (b *Broadcaster) wakeHub() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Broadcaster) runHub() {
	defer close(b.hubDone)
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-b.wake:
			b.pendMu.Lock()
			work := b.pend
			b.pend = pending{}
			b.pendMu.Unlock()
			b.flush(work)
		}
	}
}

// flush recomputes from durable state after the writes that queued work.
func (b *Broadcaster) flush(work pending) {
	ctx := b.ctx

	for _, update := range work.builds {
		b.broadcast(TypeBuildUpdate, update)
	}

	if work.stats || work.session || len(work.greet) > 0 {
		snap, err := b.stats.Snapshot(ctx)
		if err != nil {
			if ctx.Err() == nil {
				b.logger.Error("failed to compute snapshot", "error", err)
			}
		} else {
			if work.stats {
				b.broadcast(TypeStatsUpdate, StatsUpdate{Stats: snap})
			}
			if work.session {
				b.broadcast(TypeSessionUpdate, SessionUpdate{Online: snap.Online})
			}
			// Registered clients already got whatever was broadcast above.
			for _, c := range work.greet {
				if !work.stats {
					b.send(c, TypeStatsUpdate, StatsUpdate{Stats: snap})
				}
				if !work.session {
					b.send(c, TypeSessionUpdate, SessionUpdate{Online: snap.Online})
				}
			}
		}
	}

	if work.projects && b.projects != nil {
		list, err := b.projects.List(ctx)
		if err != nil {
			b.logger.Error("failed to list projects", "error", err)
		} else {
			b.broadcast(TypeProjectsUpdate, ProjectsUpdate{Projects: list})
		}
	}
}

func (b *Broadcaster) send(c *client, typ string, data any) {
	msg, err := encode(typ, data)
	if err != nil {
		b.logger.Error("failed to encode realtime message", "type", typ, "error", err)
		return
	}
	if !c.offer(msg) {
		b.logger.Warn("dropping slow realtime client", "session_id", c.id)
		c.kick()
	}
}

func (b *Broadcaster) broadcast(typ string, data any) {
	msg, err := encode(typ, data)
	if err != nil {
		b.logger.Error("failed to encode realtime message", "type", typ, "error", err)
		return
	}

	b.mu.RLock()
	targets := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		targets = append(targets, c)
	}
	b.mu.RUnlock()

	for _, c := range targets {
		if !c.offer(msg) {
			b.logger.Warn("dropping slow realtime client", "session_id", c.id)
			c.kick()
		}
	}
}
