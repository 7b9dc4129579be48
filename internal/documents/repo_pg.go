package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"gezy-backend/internal/extract"
)

// PGRepo stores documents in case_documents.
type PGRepo struct {
	DB *sql.DB
}

const selectDocument = `SELECT id, case_id, user_id, file_name, mime_type, size_bytes, content_sha256, storage_key, created_at,
  COALESCE(extracted_text_key, ''), extracted_data, COALESCE(ocr_provider, ''), extracted_at
FROM case_documents `

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO case_documents (id, case_id, user_id, file_name, mime_type, size_bytes, content_sha256, storage_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.CaseID, doc.UserID, doc.FileName, doc.MimeType, doc.SizeBytes, doc.ContentSHA256, doc.StorageKey, doc.CreatedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	return r.one(ctx, `WHERE id = $1 AND user_id = $2`, documentID, userID)
}

func (r *PGRepo) ListByCase(ctx context.Context, caseID string) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, selectDocument+`WHERE case_id = $1 ORDER BY created_at DESC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PGRepo) LatestExtracted(ctx context.Context, caseID string) (Document, error) {
	return r.one(ctx, `WHERE case_id = $1 AND extracted_data IS NOT NULL ORDER BY created_at DESC LIMIT 1`, caseID)
}

func (r *PGRepo) FindExtractedByContent(ctx context.Context, caseID, sha256Hex string) (Document, error) {
	return r.one(ctx, `WHERE case_id = $1 AND content_sha256 = $2 AND extracted_data IS NOT NULL
ORDER BY created_at DESC LIMIT 1`, caseID, sha256Hex)
}

// SetExtraction only fills a document that has no extraction yet.
func (r *PGRepo) SetExtraction(ctx context.Context, documentID string, e Extraction) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
UPDATE case_documents
SET extracted_text_key = NULLIF($2, ''), extracted_data = $3, ocr_provider = $4, extracted_at = $5
WHERE id = $1 AND extracted_data IS NULL`,
		documentID, e.TextKey, raw, e.Provider, e.At)
	return err
}

func (r *PGRepo) one(ctx context.Context, where string, args ...any) (Document, error) {
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, selectDocument+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc         Document
		e           Extraction
		rawData     []byte
		extractedAt sql.NullTime
	)
	err := row.Scan(
		&doc.ID, &doc.CaseID, &doc.UserID, &doc.FileName, &doc.MimeType, &doc.SizeBytes,
		&doc.ContentSHA256, &doc.StorageKey, &doc.CreatedAt,
		&e.TextKey, &rawData, &e.Provider, &extractedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if len(rawData) == 0 {
		return doc, nil
	}
	var data extract.Data
	if err := json.Unmarshal(rawData, &data); err != nil {
		return Document{}, err
	}
	e.Data = data
	e.At = extractedAt.Time
	doc.apply(e)
	if !extractedAt.Valid {
		doc.ExtractedAt = nil
	}
	return doc, nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
