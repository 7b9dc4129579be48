package llm

import (
	"context"
	"time"

	"gezy-backend/internal/shared/retry"
)

// RetryingClient bounds every Complete call with a per-attempt timeout and
// retries transient provider failures.
type RetryingClient struct {
	Base   Client
	Policy retry.Policy
}

// WithRetry wraps c so each attempt is limited to timeout and up to attempts
// tries are made.
func WithRetry(c Client, timeout time.Duration, attempts int) Client {
	if c == nil {
		return nil
	}
	if rc, ok := c.(*RetryingClient); ok {
		return rc
	}
	return &RetryingClient{
		Base: c,
		Policy: retry.Policy{
			Name:           "llm." + c.Provider(),
			MaxAttempts:    attempts,
			AttemptTimeout: timeout,
		},
	}
}

func (r *RetryingClient) Complete(ctx context.Context, prompt string) (Completion, error) {
	return retry.Do(ctx, r.Policy, func(ctx context.Context) (Completion, error) {
		return r.Base.Complete(ctx, prompt)
	})
}

func (r *RetryingClient) Provider() string { return r.Base.Provider() }

func (r *RetryingClient) Model() string { return r.Base.Model() }
