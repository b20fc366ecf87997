package mcp

import (
	"time"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
)

// Tool inputs.

type ListProjectsInput struct{}

type ProjectIDInput struct {
	ProjectID string `json:"project_id" jsonschema:"project directory name as returned by list_projects"`
}

type RateProjectInput struct {
	ProjectID string  `json:"project_id" jsonschema:"project directory name as returned by list_projects"`
	Rating    float64 `json:"rating" jsonschema:"rating between 0 and 5 inclusive"`
}

type GetStatsInput struct{}

type ListSessionsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of sessions, most recent first (default 50, max 500)"`
}

type ListActivityInput struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"only entries for this project"`
	Type      string `json:"type,omitempty" jsonschema:"only entries of this type (build_succeeded, build_failed, legacy_import, session_sweep)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of entries (default 50, max 500)"`
}

// Tool outputs. Times are RFC 3339 strings and collections are never nil.

type ProjectOutput struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	HasDist        bool   `json:"has_dist"`
	HasPackageJSON bool   `json:"has_package_json"`
}

type ListProjectsOutput struct {
	Projects []ProjectOutput `json:"projects"`
}

type BuildProjectOutput struct {
	ProjectID string `json:"project_id"`
	Success   bool   `json:"success"`
	Logs      string `json:"logs"`
	Error     string `json:"error,omitempty"`
}

type RecordLaunchOutput struct {
	ProjectID string `json:"project_id"`
	Launches  uint64 `json:"launches"`
}

type RateProjectOutput struct {
	ProjectID   string `json:"project_id"`
	RatingCount uint64 `json:"rating_count"`
}

type RatingOutput struct {
	Average float64 `json:"average"`
	Count   uint64  `json:"count"`
}

type StatsOutput struct {
	Version  int                     `json:"version"`
	Online   uint64                  `json:"online"`
	Launches map[string]uint64       `json:"launches"`
	Ratings  map[string]RatingOutput `json:"ratings"`
}

type SessionOutput struct {
	ID             string            `json:"id"`
	ConnectedAt    string            `json:"connected_at"`
	DisconnectedAt string            `json:"disconnected_at,omitempty"`
	Open           bool              `json:"open"`
	Meta           map[string]string `json:"meta,omitempty"`
}

type ListSessionsOutput struct {
	Sessions []SessionOutput `json:"sessions"`
}

type ActivityOutput struct {
	ID        int64  `json:"id"`
	ProjectID string `json:"project_id,omitempty"`
	Type      string `json:"type"`
	Summary   string `json:"summary"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ListActivityOutput struct {
	Entries []ActivityOutput `json:"entries"`
}

func toProjectOutputs(list []project.Project) []ProjectOutput {
	out := make([]ProjectOutput, 0, len(list))
	for _, p := range list {
		out = append(out, ProjectOutput{
			ID:             p.ID,
			Name:           p.Name,
			Description:    p.Description,
			HasDist:        p.HasDist,
			HasPackageJSON: p.HasPackageJSON,
		})
	}
	return out
}

func toStatsOutput(snap *stats.Snapshot) StatsOutput {
	out := StatsOutput{
		Version:  snap.Version,
		Online:   snap.Online,
		Launches: make(map[string]uint64, len(snap.Launches)),
		Ratings:  make(map[string]RatingOutput, len(snap.Ratings)),
	}
	for id, n := range snap.Launches {
		out.Launches[id] = n
	}
	for id, r := range snap.Ratings {
		out.Ratings[id] = RatingOutput{Average: r.Average, Count: r.Count}
	}
	return out
}

func toSessionOutputs(list []session.Session) []SessionOutput {
	out := make([]SessionOutput, 0, len(list))
	for _, s := range list {
		item := SessionOutput{
			ID:          s.ID,
			ConnectedAt: formatTime(s.ConnectedAt),
			Open:        s.Open(),
			Meta:        s.Meta,
		}
		if s.DisconnectedAt != nil {
			item.DisconnectedAt = formatTime(*s.DisconnectedAt)
		}
		out = append(out, item)
	}
	return out
}

func toActivityOutputs(list []activity.ActivityEntry) []ActivityOutput {
	out := make([]ActivityOutput, 0, len(list))
	for _, e := range list {
		out = append(out, ActivityOutput{
			ID:        e.ID,
			ProjectID: e.ProjectID,
			Type:      string(e.ActivityType),
			Summary:   e.Summary,
			Details:   e.Details,
			CreatedAt: formatTime(e.CreatedAt),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
