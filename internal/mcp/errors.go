package mcp

import (
	"errors"
	"fmt"

	"github.com/phil-jonesQ/app-ruuner/internal/domain/activity"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/build"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/project"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/session"
	"github.com/phil-jonesQ/app-ruuner/internal/domain/stats"
)

// APIError represents an MCP tool error.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to a
// generic INTERNAL error so store details never reach the client.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, project.ErrInvalidID):
		return &APIError{Code: "INVALID_PROJECT_ID", Message: "invalid project id", RecoveryHint: "Use an id from list_projects"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects"}
	case errors.Is(err, stats.ErrInvalidRating):
		return &APIError{Code: "INVALID_RATING", Message: "rating must be a number between 0 and 5"}
	case errors.Is(err, build.ErrBuildInProgress):
		return &APIError{Code: "BUILD_IN_PROGRESS", Message: "a build is already running for this project", RecoveryHint: "Retry when it finishes"}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found"}
	case errors.Is(err, session.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid input"}
	default:
		return &APIError{Code: "INTERNAL", Message: "internal error"}
	}
}
