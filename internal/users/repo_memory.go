package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo backs dev runs without a database.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]User
	clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]User{}, clock: time.Now}
}

func (r *MemoryRepo) Upsert(ctx context.Context, in User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	now := r.clock().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.byID[in.ID]
	if !exists {
		stored = User{ID: in.ID, Tier: TierFree, CreatedAt: now}
		if in.Tier.Valid() {
			stored.Tier = in.Tier
		}
	}
	stored.Email = in.Email
	if in.FullName != "" {
		stored.FullName = in.FullName
	}
	stored.UpdatedAt = now
	r.byID[in.ID] = stored
	return stored, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[userID]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) SaveProfile(ctx context.Context, in User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[in.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	stored.FullName = in.FullName
	stored.Address = in.Address
	stored.Tier = in.Tier
	stored.UpdatedAt = r.clock().UTC()
	r.byID[in.ID] = stored
	return stored, nil
}

var _ Repo = (*MemoryRepo)(nil)
