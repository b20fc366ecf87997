package stats

import "errors"

var (
	// ErrInvalidRating indicates a rating outside [0,5].
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)
