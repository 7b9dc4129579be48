package letters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const letterColumns = `id, case_id, user_id, document_type, title, ai_provider, model,
    prompt_tokens, completion_tokens, estimated_cost, quality, text_key, html_key, revision_of, created_at`

// Create inserts a letter record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	quality, err := json.Marshal(rec.Quality)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO generated_letters (` + letterColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.CaseID,
		rec.UserID,
		rec.DocumentType,
		rec.Title,
		rec.AIProvider,
		nullString(rec.Model),
		rec.PromptTokens,
		rec.CompletionTokens,
		rec.EstimatedCost,
		quality,
		rec.TextKey,
		rec.HTMLKey,
		nullString(rec.RevisionOf),
		rec.CreatedAt,
	)
	return err
}

// GetByID returns a letter record by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, letterID string) (Record, error) {
	const query = `
SELECT ` + letterColumns + `
FROM generated_letters
WHERE id = $1
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, letterID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if rec.UserID != userID {
		return Record{}, ErrForbidden
	}
	return rec, nil
}

// ListByCase lists a case's letters ordered newest-first.
func (r *PGRepo) ListByCase(ctx context.Context, userID, caseID string) ([]Record, error) {
	const query = `
SELECT ` + letterColumns + `
FROM generated_letters
WHERE case_id = $1 AND user_id = $2
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, caseID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec        Record
		model      sql.NullString
		revisionOf sql.NullString
		quality    []byte
	)
	if err := s.Scan(
		&rec.ID,
		&rec.CaseID,
		&rec.UserID,
		&rec.DocumentType,
		&rec.Title,
		&rec.AIProvider,
		&model,
		&rec.PromptTokens,
		&rec.CompletionTokens,
		&rec.EstimatedCost,
		&quality,
		&rec.TextKey,
		&rec.HTMLKey,
		&revisionOf,
		&rec.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	rec.Model = model.String
	rec.RevisionOf = revisionOf.String
	if len(quality) > 0 {
		if err := json.Unmarshal(quality, &rec.Quality); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
