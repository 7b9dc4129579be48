package feedback

import "errors"

var (
	ErrNotFound     = errors.New("feedback not found")
	ErrInvalidInput = errors.New("invalid feedback")

	ErrAlreadyReviewed = errors.New("feedback already reviewed")
)
