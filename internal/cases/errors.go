package cases

import "errors"

var (
	ErrNotFound     = errors.New("case not found")
	ErrForbidden    = errors.New("case belongs to another user")
	ErrInvalidInput = errors.New("invalid case")
)
