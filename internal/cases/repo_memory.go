package cases

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	cases map[string]Case
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{cases: make(map[string]Case)}
}

func (r *MemoryRepo) Create(ctx context.Context, c Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, caseID string) (Case, error) {
	if err := ctx.Err(); err != nil {
		return Case{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cases[caseID]
	if !ok {
		return Case{}, ErrNotFound
	}
	if c.UserID != userID {
		return Case{}, ErrForbidden
	}
	return c, nil
}

// ListByUser returns the user's cases, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Case, 0)
	for _, c := range r.cases {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Case{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

func (r *MemoryRepo) ApplyFacts(ctx context.Context, caseID string, f Facts, at time.Time) error {
	return r.update(ctx, caseID, func(c *Case) {
		applyFacts(c, f)
		c.UpdatedAt = at
	})
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, caseID string, status Status, at time.Time) error {
	return r.update(ctx, caseID, func(c *Case) {
		c.Status = status
		c.UpdatedAt = at
	})
}

func (r *MemoryRepo) update(ctx context.Context, caseID string, fn func(*Case)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[caseID]
	if !ok {
		return ErrNotFound
	}
	fn(&c)
	r.cases[caseID] = c
	return nil
}

// applyFacts fills only the fields the extraction actually found.
func applyFacts(c *Case, f Facts) {
	if f.Amount != nil {
		v := *f.Amount
		c.Amount = &v
	}
	if f.Currency != "" {
		c.Currency = f.Currency
	}
	if f.ReceivedDate != "" {
		c.ReceivedDate = f.ReceivedDate
	}
	if f.Deadline != "" {
		c.Deadline = f.Deadline
	}
}

var _ Repo = (*MemoryRepo)(nil)
