package letters

import "errors"

var (
	ErrNotFound                = errors.New("letter not found")
	ErrForbidden               = errors.New("letter belongs to another user")
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	ErrEmptyFeedback           = errors.New("revision feedback is empty")
)
