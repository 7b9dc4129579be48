package extract

import "errors"

var (
	// ErrUnreadable means the payload is empty, corrupt, or carries no text.
	ErrUnreadable = errors.New("document unreadable")
	// ErrUnsupportedType means the MIME type cannot be processed by the configured provider.
	ErrUnsupportedType = errors.New("unsupported document type")
)
