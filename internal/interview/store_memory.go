package interview

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in memory and is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Session)}
}

func (m *MemoryStore) Create(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s.clone()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[s.ID]
	if !ok {
		return ErrNotFound
	}
	if err := checkTransition(cur, s); err != nil {
		return err
	}
	m.byID[s.ID] = s.clone()
	return nil
}

func (m *MemoryStore) LatestCompleted(ctx context.Context, caseID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		best  Session
		found bool
	)
	for _, s := range m.byID {
		if s.CaseID != caseID || s.Status != StatusCompleted || s.CompletedAt == nil {
			continue
		}
		if !found || s.CompletedAt.After(*best.CompletedAt) {
			best, found = s, true
		}
	}
	if !found {
		return Session{}, ErrNotFound
	}
	return best.clone(), nil
}

// checkTransition enforces the single-writer rule shared by every store.
func checkTransition(stored, next Session) error {
	if stored.Status == StatusCompleted {
		return ErrSessionCompleted
	}
	if stored.Version != next.Version-1 {
		return ErrVersionConflict
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
