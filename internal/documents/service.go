package documents

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gezy-backend/internal/extract"
	"gezy-backend/internal/shared/metrics"
	"gezy-backend/internal/shared/storage/object"
	"gezy-backend/internal/shared/telemetry"
)

// Service stores uploaded notices and runs extraction on them.
type Service struct {
	Store     object.ObjectStore
	Repo      DocumentsRepo
	Extractor extract.Provider
	// Provider names the text source recorded with each extraction.
	Provider string
	Now      func() time.Time
}

// Upload is one notice as received from the client.
type Upload struct {
	UserID   string
	CaseID   string
	FileName string
	MimeType string
	Data     []byte
}

// Analyze stores the upload, extracts it and records the result. The stored
// document is returned even when extraction fails, together with the error.
// Re-uploading bytes the case already has returns the earlier document.
func (s *Service) Analyze(ctx context.Context, up Upload) (Document, error) {
	if err := validate(up); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(up.CaseID) == "" {
		return Document{}, fmt.Errorf("%w: case id is required", ErrInvalidInput)
	}

	sum := sha256.Sum256(up.Data)
	digest := hex.EncodeToString(sum[:])
	prior, err := s.Repo.FindExtractedByContent(ctx, up.CaseID, digest)
	switch {
	case err == nil && prior.UserID == up.UserID:
		telemetry.Info("documents.duplicate", map[string]any{"document_id": prior.ID, "case_id": prior.CaseID})
		return prior, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return Document{}, err
	}

	storageKey, size, sniffed, err := s.Store.Save(ctx, up.UserID, up.FileName, bytes.NewReader(up.Data))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}
	mime := up.MimeType
	if strings.TrimSpace(mime) == "" {
		mime = sniffed
	}
	doc := Document{
		ID:            uuid.NewString(),
		CaseID:        up.CaseID,
		UserID:        up.UserID,
		FileName:      up.FileName,
		MimeType:      extract.NormalizeMimeType(mime, up.FileName, up.Data),
		SizeBytes:     size,
		ContentSHA256: digest,
		StorageKey:    storageKey,
		CreatedAt:     s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	data, err := s.extract(ctx, doc, up.Data)
	if err != nil {
		return doc, err
	}

	textKey, err := extract.SaveText(ctx, s.Store, doc.StorageKey, data.FullText)
	if err != nil {
		telemetry.Warn("documents.text_save_failed", map[string]any{"document_id": doc.ID, "error": err})
		textKey = ""
	}
	e := Extraction{TextKey: textKey, Provider: s.Provider, Data: data, At: s.now()}
	if err := s.Repo.SetExtraction(ctx, doc.ID, e); err != nil {
		return doc, fmt.Errorf("record extraction: %w", err)
	}
	doc.apply(e)
	return doc, nil
}

// Preview extracts a notice without storing anything.
func (s *Service) Preview(ctx context.Context, up Upload) (extract.Data, error) {
	if err := validate(up); err != nil {
		return extract.Data{}, err
	}
	mime := extract.NormalizeMimeType(up.MimeType, up.FileName, up.Data)
	return s.extract(ctx, Document{UserID: up.UserID, MimeType: mime}, up.Data)
}

func (s *Service) extract(ctx context.Context, doc Document, data []byte) (extract.Data, error) {
	if s.Extractor == nil {
		return extract.Data{}, fmt.Errorf("extraction not configured")
	}
	start := time.Now()
	out, err := s.Extractor.Extract(ctx, data, doc.MimeType)
	if err != nil {
		metrics.IncExtractionFailed()
		telemetry.Warn("documents.extraction_failed", map[string]any{
			"document_id": doc.ID,
			"case_id":     doc.CaseID,
			"mime_type":   doc.MimeType,
			"error":       err,
		})
		return extract.Data{}, err
	}
	metrics.IncDocumentsAnalyzed()
	telemetry.Info("documents.analyzed", map[string]any{
		"document_id": doc.ID,
		"case_id":     doc.CaseID,
		"user_id":     doc.UserID,
		"confidence":  out.Confidence.Overall,
		"duration_ms": metrics.SinceMillis(start),
	})
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	return s.Repo.GetByID(ctx, userID, documentID)
}

func (s *Service) ListByCase(ctx context.Context, caseID string) ([]Document, error) {
	return s.Repo.ListByCase(ctx, caseID)
}

// LatestExtraction returns the newest extraction of the case.
func (s *Service) LatestExtraction(ctx context.Context, caseID string) (extract.Data, bool, error) {
	doc, err := s.Repo.LatestExtracted(ctx, caseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return extract.Data{}, false, nil
		}
		return extract.Data{}, false, err
	}
	return *doc.Extracted, true, nil
}

func validate(up Upload) error {
	if strings.TrimSpace(up.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if len(up.Data) == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if len(up.Data) > MaxUploadSize {
		return ErrTooLarge
	}
	if strings.TrimSpace(up.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
