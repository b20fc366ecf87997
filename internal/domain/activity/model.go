package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeBuildSucceeded ActivityType = "build_succeeded"
	TypeBuildFailed    ActivityType = "build_failed"
	TypeLegacyImport   ActivityType = "legacy_import"
	TypeSessionSweep   ActivityType = "session_sweep"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ProjectID    string       `json:"projectId,omitempty"`
	SessionID    *string      `json:"sessionId,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}
