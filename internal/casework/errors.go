package casework

import "errors"

var (
	// ErrNotFound covers both missing and foreign cases, sessions and letters.
	ErrNotFound            = errors.New("Case not found or access denied")
	ErrInterviewIncomplete = errors.New("interview not completed")
	ErrInvalidInput        = errors.New("invalid input")
)
