package build

import (
	"errors"
	"fmt"
)

var (
	// ErrBuildInProgress indicates a build for the same project is already running.
	ErrBuildInProgress = errors.New("build already in progress")
	// ErrBuildFailed indicates a pipeline step failed.
	ErrBuildFailed = errors.New("build failed")
	// ErrOutputExceeded indicates the combined step output overran the log buffer.
	ErrOutputExceeded = errors.New("build output exceeded limit")
	// ErrNoManifest indicates the project has no package.json.
	ErrNoManifest = errors.New("no package.json in project")
)

// Failure carries the captured log of a failed attempt. It matches
// ErrBuildFailed with errors.Is.
type Failure struct {
	Logs  string
	Cause error
}

func (f *Failure) Error() string {
	if f.Cause == nil {
		return ErrBuildFailed.Error()
	}
	return fmt.Sprintf("%s: %v", ErrBuildFailed, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func (f *Failure) Is(target error) bool {
	return target == ErrBuildFailed
}
