package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
)

// Message types exchanged over the realtime socket.
const (
	TypeStatsUpdate    = "stats:update"
	TypeSessionUpdate  = "session:update"
	TypeBuildUpdate    = "build:update"
	TypeProjectsUpdate = "projects:update"
	TypeSessionJoin    = "session:join"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type StatsUpdate struct {
	Stats *stats.Snapshot `json:"stats"`
}

type SessionUpdate struct {
	Online uint64 `json:"online"`
}

type BuildUpdate struct {
	ProjectID string `json:"projectId"`
	Success   bool   `json:"success"`
}

type ProjectsUpdate struct {
	Projects []project.Project `json:"projects"`
}

// SessionJoin is sent by a client to attach metadata to its session.
type SessionJoin struct {
	Meta map[string]string `json:"meta"`
}

func encode(typ string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}
	return json.Marshal(Message{Type: typ, Data: raw})
}
