package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	kickOnce sync.Once
	kicked   chan struct{}
}

func newClient(id string, conn *websocket.Conn, buffer int) *client {
	return &client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, buffer),
		kicked: make(chan struct{}),
	}
}

// offer queues msg without blocking and reports whether it fit.
func (c *client) offer(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// kick asks the write pump to close the connection.
func (c *client) kick() {
	c.kickOnce.Do(func() { close(c.kicked) })
}

func (c *client) writePump(ctx context.Context, pingInterval, writeTimeout time.Duration) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.kicked:
			return c.conn.Close(websocket.StatusPolicyViolation, "client too slow")
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		case <-ticker.C:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(wctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
