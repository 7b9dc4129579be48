package feedback

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Feedback
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Feedback)}
}

func (r *MemoryRepo) Create(ctx context.Context, fb Feedback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[fb.ID] = fb
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Feedback, error) {
	if err := ctx.Err(); err != nil {
		return Feedback{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fb, ok := r.items[id]
	if !ok {
		return Feedback{}, ErrNotFound
	}
	fb.ReviewNotes = append([]string(nil), fb.ReviewNotes...)
	return fb, nil
}

func (r *MemoryRepo) SetReviewStatus(ctx context.Context, id string, status ReviewStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fb, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	fb.ReviewStatus = status
	r.items[id] = fb
	return nil
}

func (r *MemoryRepo) RecordReview(ctx context.Context, id string, notes []string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fb, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	if fb.ReviewStatus == ReviewReviewed {
		return ErrAlreadyReviewed
	}
	fb.ReviewStatus = ReviewReviewed
	fb.ReviewNotes = append([]string(nil), notes...)
	fb.ReviewedAt = &at
	r.items[id] = fb
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
