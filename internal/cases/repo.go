package cases

import (
	"context"
	"time"
)

// Repo persists cases. Reads are scoped by owner: another user's case yields ErrForbidden.
type Repo interface {
	Create(ctx context.Context, c Case) error
	GetByID(ctx context.Context, userID, caseID string) (Case, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Case, error)
	ApplyFacts(ctx context.Context, caseID string, f Facts, at time.Time) error
	UpdateStatus(ctx context.Context, caseID string, status Status, at time.Time) error
}
