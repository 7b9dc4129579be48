package letters

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores letter records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Record
	byCase map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Record),
		byCase: make(map[string][]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rec.ID] = rec
	r.byCase[rec.CaseID] = append(r.byCase[rec.CaseID], rec.ID)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, letterID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[letterID]
	if !ok {
		return Record{}, ErrNotFound
	}
	if rec.UserID != userID {
		return Record{}, ErrForbidden
	}
	return rec, nil
}

// ListByCase returns the case's letters, newest first.
func (r *MemoryRepo) ListByCase(ctx context.Context, userID, caseID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byCase[caseID]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		if rec := r.byID[id]; rec.UserID == userID {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
