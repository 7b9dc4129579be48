package interview

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

const sessionColumns = `id, user_id, case_id, status, version, current_question_index,
    responses, sentiment, reality, created_at, updated_at, completed_at`

func (p *PGStore) Create(ctx context.Context, s Session) error {
	responses, sentiment, reality, err := encodeSessionJSON(s)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO interview_sessions (` + sessionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = p.DB.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.CaseID,
		string(s.Status),
		s.Version,
		s.CurrentQuestionIndex,
		responses,
		sentiment,
		reality,
		s.CreatedAt,
		s.UpdatedAt,
		nullTime(s.CompletedAt),
	)
	return err
}

func (p *PGStore) Get(ctx context.Context, id string) (Session, error) {
	const query = `
SELECT ` + sessionColumns + `
FROM interview_sessions
WHERE id = $1
LIMIT 1`
	return scanSession(p.DB.QueryRowContext(ctx, query, id))
}

// Update writes the session only if the row still holds the previous version.
func (p *PGStore) Update(ctx context.Context, s Session) error {
	responses, sentiment, reality, err := encodeSessionJSON(s)
	if err != nil {
		return err
	}
	const query = `
UPDATE interview_sessions
SET status = $2, version = $3, current_question_index = $4, responses = $5,
    sentiment = $6, reality = $7, updated_at = $8, completed_at = $9
WHERE id = $1 AND version = $10 AND status = 'active'`
	res, err := p.DB.ExecContext(ctx, query,
		s.ID,
		string(s.Status),
		s.Version,
		s.CurrentQuestionIndex,
		responses,
		sentiment,
		reality,
		s.UpdatedAt,
		nullTime(s.CompletedAt),
		s.Version-1,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Nothing matched: tell the caller why.
	cur, err := p.Get(ctx, s.ID)
	if err != nil {
		return err
	}
	if terr := checkTransition(cur, s); terr != nil {
		return terr
	}
	return ErrVersionConflict
}

func (p *PGStore) LatestCompleted(ctx context.Context, caseID string) (Session, error) {
	const query = `
SELECT ` + sessionColumns + `
FROM interview_sessions
WHERE case_id = $1 AND status = 'completed'
ORDER BY completed_at DESC
LIMIT 1`
	return scanSession(p.DB.QueryRowContext(ctx, query, caseID))
}

func scanSession(row *sql.Row) (Session, error) {
	var (
		s                             Session
		status                        string
		responses, sentiment, reality []byte
		completedAt                   sql.NullTime
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.CaseID,
		&status,
		&s.Version,
		&s.CurrentQuestionIndex,
		&responses,
		&sentiment,
		&reality,
		&s.CreatedAt,
		&s.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	s.Status = Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	if err := json.Unmarshal(responses, &s.Responses); err != nil {
		return Session{}, fmt.Errorf("decode responses: %w", err)
	}
	if err := json.Unmarshal(sentiment, &s.Sentiment); err != nil {
		return Session{}, fmt.Errorf("decode sentiment: %w", err)
	}
	if err := json.Unmarshal(reality, &s.Reality); err != nil {
		return Session{}, fmt.Errorf("decode reality: %w", err)
	}
	if s.Responses == nil {
		s.Responses = []Response{}
	}
	return s, nil
}

func encodeSessionJSON(s Session) (responses, sentiment, reality []byte, err error) {
	if s.Responses == nil {
		s.Responses = []Response{}
	}
	if responses, err = json.Marshal(s.Responses); err != nil {
		return nil, nil, nil, err
	}
	if sentiment, err = json.Marshal(s.Sentiment); err != nil {
		return nil, nil, nil, err
	}
	if reality, err = json.Marshal(s.Reality); err != nil {
		return nil, nil, nil, err
	}
	return responses, sentiment, reality, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ Store = (*PGStore)(nil)
