package build

import (
	"bytes"
	"fmt"
	"sync"
)

// DefaultMaxOutput bounds the captured log of one attempt.
const DefaultMaxOutput = 1 << 20

// logBuffer collects step output up to a fixed size. The first write that
// would pass the limit calls onOverflow once; later output is dropped.
type logBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	max        int
	overflowed bool
	onOverflow func()
}

func newLogBuffer(max int, onOverflow func()) *logBuffer {
	if max <= 0 {
		max = DefaultMaxOutput
	}
	return &logBuffer{max: max, onOverflow: onOverflow}
}

// Write never fails so the copying goroutine keeps draining the pipe until
// the process is gone.
func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	if b.overflowed {
		b.mu.Unlock()
		return len(p), nil
	}
	room := b.max - b.buf.Len()
	if len(p) <= room {
		b.buf.Write(p)
		b.mu.Unlock()
		return len(p), nil
	}
	b.buf.Write(p[:room])
	b.overflowed = true
	fn := b.onOverflow
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
	return len(p), nil
}

// Announce writes a "$ cmd" line for step.
func (b *logBuffer) Announce(step Step) {
	fmt.Fprintf(b, "$ %s\n", step)
}

func (b *logBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowed
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
