package users

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo stores profiles in the users table.
type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, full_name, COALESCE(address, ''), tier, created_at, updated_at`

func (r *PGRepo) Upsert(ctx context.Context, in User) (User, error) {
	tier := TierFree
	if in.Tier.Valid() {
		tier = in.Tier
	}
	query := `
INSERT INTO users AS u (id, email, full_name, tier)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = CASE WHEN EXCLUDED.full_name = '' THEN u.full_name ELSE EXCLUDED.full_name END,
  updated_at = now()
RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, query, in.ID, in.Email, in.FullName, string(tier)))
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (r *PGRepo) SaveProfile(ctx context.Context, in User) (User, error) {
	query := `
UPDATE users
SET full_name = $2, address = NULLIF($3, ''), tier = $4, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, query, in.ID, in.FullName, in.Address, string(in.Tier)))
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u    User
		tier string
	)
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Address, &tier, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.Tier = Tier(tier)
	return u, nil
}

var _ Repo = (*PGRepo)(nil)
