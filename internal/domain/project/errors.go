package project

import "errors"

var (
	// ErrProjectNotFound indicates the project directory doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidID indicates a malformed project id.
	ErrInvalidID = errors.New("invalid project id")
)
