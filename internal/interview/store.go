package interview

import "context"

// Store persists interview sessions. Update is a compare-and-swap: it succeeds
// only when the stored version equals s.Version-1 and the stored session is
// still active.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, s Session) error
	LatestCompleted(ctx context.Context, caseID string) (Session, error)
}
