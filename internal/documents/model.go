package documents

import (
	"errors"
	"time"

	"gezy-backend/internal/extract"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid document")
	ErrTooLarge     = errors.New("document exceeds the upload limit")
)

// MaxUploadSize bounds a single notice upload.
const MaxUploadSize = 10 << 20

// Document is an uploaded notice attached to a case. Extracted is set once
// extraction succeeded and never changes afterwards.
type Document struct {
	ID            string
	CaseID        string
	UserID        string
	FileName      string
	MimeType      string
	SizeBytes     int64
	ContentSHA256 string
	StorageKey    string
	CreatedAt     time.Time

	ExtractedTextKey string
	Extracted        *extract.Data
	OCRProvider      string
	ExtractedAt      *time.Time
}

// Extraction is the result recorded against a document.
type Extraction struct {
	TextKey  string
	Provider string
	Data     extract.Data
	At       time.Time
}

func (d *Document) apply(e Extraction) {
	data := e.Data
	at := e.At
	d.ExtractedTextKey = e.TextKey
	d.OCRProvider = e.Provider
	d.Extracted = &data
	d.ExtractedAt = &at
}
