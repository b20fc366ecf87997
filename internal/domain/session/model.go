package session

import "time"

// Session is one realtime connection lifecycle. Rows are soft-closed and
// never deleted.
type Session struct {
	ID             string            `json:"id"`
	ConnectedAt    time.Time         `json:"connectedAt"`
	DisconnectedAt *time.Time        `json:"disconnectedAt,omitempty"`
	Meta           map[string]string `json:"meta,omitempty"`
}

// Open reports whether the session is still connected.
func (s Session) Open() bool {
	return s.DisconnectedAt == nil
}
