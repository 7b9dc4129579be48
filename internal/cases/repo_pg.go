package cases

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const caseColumns = `id, user_id, case_type, title, description, status, amount, currency,
    to_char(received_date, 'YYYY-MM-DD'), to_char(deadline, 'YYYY-MM-DD'), created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, c Case) error {
	const query = `
INSERT INTO cases (id, user_id, case_type, title, description, status, amount, currency, received_date, deadline, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		string(c.CaseType),
		c.Title,
		nullString(c.Description),
		string(c.Status),
		nullFloat(c.Amount),
		c.Currency,
		nullString(c.ReceivedDate),
		nullString(c.Deadline),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, caseID string) (Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1 LIMIT 1`
	c, err := scanCase(r.DB.QueryRowContext(ctx, query, caseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Case{}, ErrNotFound
		}
		return Case{}, err
	}
	if c.UserID != userID {
		return Case{}, ErrForbidden
	}
	return c, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Case, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + caseColumns + `
FROM cases
WHERE user_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ApplyFacts keeps existing values where the extraction found nothing.
func (r *PGRepo) ApplyFacts(ctx context.Context, caseID string, f Facts, at time.Time) error {
	const query = `
UPDATE cases SET
  amount = COALESCE($2, amount),
  currency = COALESCE($3, currency),
  received_date = COALESCE($4::date, received_date),
  deadline = COALESCE($5::date, deadline),
  updated_at = $6
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		caseID,
		nullFloat(f.Amount),
		nullString(f.Currency),
		nullString(f.ReceivedDate),
		nullString(f.Deadline),
		at,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *PGRepo) UpdateStatus(ctx context.Context, caseID string, status Status, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE cases SET status = $2, updated_at = $3 WHERE id = $1`, caseID, string(status), at)
	if err != nil {
		return err
	}
	return expectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(s scanner) (Case, error) {
	var (
		c           Case
		caseType    string
		status      string
		description sql.NullString
		amount      sql.NullFloat64
		received    sql.NullString
		deadline    sql.NullString
	)
	if err := s.Scan(
		&c.ID,
		&c.UserID,
		&caseType,
		&c.Title,
		&description,
		&status,
		&amount,
		&c.Currency,
		&received,
		&deadline,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Case{}, err
	}
	c.CaseType = CaseType(caseType)
	c.Status = Status(status)
	c.Description = description.String
	if amount.Valid {
		v := amount.Float64
		c.Amount = &v
	}
	c.ReceivedDate = received.String
	c.Deadline = deadline.String
	return c, nil
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

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
