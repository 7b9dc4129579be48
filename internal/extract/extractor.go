package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gezy-backend/internal/shared/retry"
	"gezy-backend/internal/shared/telemetry"
)

// Provider turns an uploaded notice into structured data.
type Provider interface {
	Extract(ctx context.Context, data []byte, mimeType string) (Data, error)
}

// Text is the plain text recovered from a document and how trustworthy the
// recovery was (1 for a digital text layer, OCR confidence otherwise).
type Text struct {
	Content string
	Quality float64
}

// TextSource reads the text of a document payload.
type TextSource interface {
	Name() string
	Supports(mimeType string) bool
	Text(ctx context.Context, data []byte, mimeType string) (Text, error)
}

// Extractor reads text through a TextSource and parses notice fields from it.
type Extractor struct {
	Source TextSource
	Retry  retry.Policy
	Now    func() time.Time
}

var _ Provider = (*Extractor)(nil)

// NewExtractor builds an Extractor with the given per-attempt timeout.
func NewExtractor(source TextSource, timeout time.Duration) *Extractor {
	return &Extractor{
		Source: source,
		Retry: retry.Policy{
			Name:           "extract." + source.Name(),
			MaxAttempts:    2,
			AttemptTimeout: timeout,
		},
		Now: time.Now,
	}
}

// Extract never mutates data. Empty or textless payloads yield ErrUnreadable,
// formats the source cannot read yield ErrUnsupportedType.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (Data, error) {
	if len(data) == 0 {
		return Data{}, ErrUnreadable
	}
	if e.Source == nil {
		return Data{}, errors.New("extract: text source not configured")
	}
	mt := NormalizeMimeType(mimeType, "", data)
	if !e.Source.Supports(mt) {
		return Data{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mt)
	}

	policy := e.Retry
	policy.Retryable = func(err error) bool {
		if errors.Is(err, ErrUnreadable) || errors.Is(err, ErrUnsupportedType) {
			return false
		}
		return retry.IsTransient(err)
	}
	start := time.Now()
	txt, err := retry.Do(ctx, policy, func(ctx context.Context) (Text, error) {
		return e.Source.Text(ctx, data, mt)
	})
	if err != nil {
		if errors.Is(err, ErrUnreadable) || errors.Is(err, ErrUnsupportedType) {
			return Data{}, err
		}
		return Data{}, fmt.Errorf("extract via %s: %w", e.Source.Name(), err)
	}
	if strings.TrimSpace(txt.Content) == "" {
		return Data{}, fmt.Errorf("%w: no text recovered", ErrUnreadable)
	}

	d := ParseFields(txt.Content)
	d.Confidence.Overall = overallConfidence(d.Confidence, txt.Quality)
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ApplyFlags(&d, now())

	telemetry.Info("extract.complete", map[string]any{
		"source":        e.Source.Name(),
		"mime_type":     mt,
		"document_type": d.DocumentType,
		"confidence":    d.Confidence.Overall,
		"flags":         len(d.Flags),
		"duration_ms":   time.Since(start).Milliseconds(),
	})
	return d, nil
}
