package build

import (
	"strings"
	"time"
)

// Result is a successful build attempt.
type Result struct {
	ProjectID string        `json:"projectId"`
	OK        bool          `json:"success"`
	Logs      string        `json:"logs"`
	Duration  time.Duration `json:"-"`
}

// Step is one command of a pipeline, run in the project directory.
type Step struct {
	Name string
	Args []string
	// Env entries are appended to the server's environment.
	Env []string
}

// String renders the step the way it is announced in the build log.
func (s Step) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(s.Args, " ")
}
