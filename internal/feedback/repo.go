package feedback

import (
	"context"
	"time"
)

// Repo persists feedback and its review state.
type Repo interface {
	Create(ctx context.Context, fb Feedback) error
	Get(ctx context.Context, id string) (Feedback, error)
	SetReviewStatus(ctx context.Context, id string, status ReviewStatus) error
	RecordReview(ctx context.Context, id string, notes []string, at time.Time) error
}
