package project

// Project is a discoverable sub-application directory. It is derived from
// the filesystem on every scan and never persisted.
type Project struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	HasDist        bool   `json:"hasDist"`
	HasPackageJSON bool   `json:"hasPackageJson"`
	Path           string `json:"path"`
}

// Metadata is the display information for a project.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
