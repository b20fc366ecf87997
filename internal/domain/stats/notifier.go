package stats

import "sync"

// ChangeKind identifies which durable state a mutation touched.
type ChangeKind string

const (
	KindLaunch   ChangeKind = "launch"
	KindRating   ChangeKind = "rating"
	KindSession  ChangeKind = "session"
	KindBuild    ChangeKind = "build"
	KindProjects ChangeKind = "projects"
)

// Change is published after a mutation has been committed.
type Change struct {
	Kind      ChangeKind
	ProjectID string
	// OK is set for build changes.
	OK bool
}

// Listener receives committed changes. It runs on the publisher's goroutine
// and must not block.
type Listener func(Change)

// Publisher is the write side of the notifier, used by mutating services.
type Publisher interface {
	Publish(change Change)
}

// Notifier is the in-process change subscription point.
type Notifier struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener and returns a function that removes it.
func (n *Notifier) Subscribe(fn Listener) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Publish delivers a change to every listener.
func (n *Notifier) Publish(change Change) {
	if n == nil {
		return
	}
	n.mu.RLock()
	listeners := make([]Listener, 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn(change)
	}
}
