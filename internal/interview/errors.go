package interview

import "errors"

var (
	ErrNotFound         = errors.New("interview session not found")
	ErrForbidden        = errors.New("interview session belongs to another user")
	ErrVersionConflict  = errors.New("interview session was modified concurrently")
	ErrSessionCompleted = errors.New("interview session already completed")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrInvalidAnswer    = errors.New("invalid answer")
)
