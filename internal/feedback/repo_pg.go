package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"gezy-backend/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, fb Feedback) error {
	notes, err := json.Marshal(nonNil(fb.ReviewNotes))
	if err != nil {
		return err
	}
	const query = `
INSERT INTO letter_feedback (
  id, letter_id, user_id, rating, was_helpful, was_used, outcome, improvement_suggestions,
  flagged_for_review, positive_example, review_status, review_notes, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.DB.ExecContext(ctx, query,
		fb.ID,
		fb.DocumentID,
		fb.UserID,
		fb.Rating,
		fb.WasHelpful,
		fb.WasUsed,
		nullString(string(fb.Outcome)),
		nullString(fb.ImprovementSuggestions),
		fb.FlaggedForReview,
		fb.PositiveExample,
		string(fb.ReviewStatus),
		notes,
		fb.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, id string) (Feedback, error) {
	const query = `
SELECT id, letter_id, user_id, rating, was_helpful, was_used, outcome, improvement_suggestions,
  flagged_for_review, positive_example, review_status, review_notes, created_at, reviewed_at
FROM letter_feedback
WHERE id = $1`
	var (
		fb          Feedback
		outcome     sql.NullString
		suggestions sql.NullString
		status      string
		notes       []byte
		reviewedAt  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&fb.ID,
		&fb.DocumentID,
		&fb.UserID,
		&fb.Rating,
		&fb.WasHelpful,
		&fb.WasUsed,
		&outcome,
		&suggestions,
		&fb.FlaggedForReview,
		&fb.PositiveExample,
		&status,
		&notes,
		&fb.CreatedAt,
		&reviewedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Feedback{}, ErrNotFound
		}
		return Feedback{}, err
	}
	fb.Outcome = Outcome(outcome.String)
	fb.ImprovementSuggestions = suggestions.String
	fb.ReviewStatus = ReviewStatus(status)
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &fb.ReviewNotes); err != nil {
			return Feedback{}, err
		}
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		fb.ReviewedAt = &t
	}
	return fb, nil
}

func (r *PGRepo) SetReviewStatus(ctx context.Context, id string, status ReviewStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE letter_feedback SET review_status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	return expectOne(res)
}

// RecordReview locks the row so two workers handling a redelivered message
// cannot both write notes.
func (r *PGRepo) RecordReview(ctx context.Context, id string, notes []string, at time.Time) error {
	raw, err := json.Marshal(nonNil(notes))
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT review_status FROM letter_feedback WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if ReviewStatus(status) == ReviewReviewed {
			return ErrAlreadyReviewed
		}
		const query = `
UPDATE letter_feedback
SET review_status = $2, review_notes = $3, reviewed_at = $4
WHERE id = $1`
		res, err := tx.ExecContext(ctx, query, id, string(ReviewReviewed), raw, at)
		if err != nil {
			return err
		}
		return expectOne(res)
	})
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Repo = (*PGRepo)(nil)
