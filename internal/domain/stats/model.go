package stats

// SnapshotVersion is the snapshot format version, kept equal to the schema version.
const SnapshotVersion = 2

// RatingSummary aggregates all rating samples for a project.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   uint64  `json:"count"`
}

// Snapshot is the point-in-time view of every counter plus the online count.
// It is never stored; each call recomputes it from the durable tables.
type Snapshot struct {
	Version  int                      `json:"version"`
	Online   uint64                   `json:"online"`
	Launches map[string]uint64        `json:"launches"`
	Ratings  map[string]RatingSummary `json:"ratings"`
}

// LegacySnapshot is the flat JSON file written by earlier releases.
type LegacySnapshot struct {
	Launches map[string]uint64    `json:"launches"`
	Ratings  map[string][]float64 `json:"ratings"`
	Online   int                  `json:"online,omitempty"`
}

// ImportResult reports what a legacy import wrote.
type ImportResult struct {
	Imported bool   `json:"imported"`
	Counters int    `json:"counters"`
	Ratings  int    `json:"ratings"`
	Skipped  int    `json:"skipped"`
	Path     string `json:"path"`
	// MovedTo is set when the file was corrupt and renamed instead.
	MovedTo  string `json:"movedTo,omitempty"`
}
