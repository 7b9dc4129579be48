package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

// Repo persists sender profiles. Both writes return the row as stored.
type Repo interface {
	// Upsert records login identity. Name is only overwritten when the new
	// one is non-empty; address and tier are never touched.
	Upsert(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	// SaveProfile writes the user-editable fields.
	SaveProfile(ctx context.Context, user User) (User, error)
}
