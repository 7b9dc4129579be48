package documents

import (
	"context"
	"slices"
	"sync"
)

// MemoryRepo keeps documents in process for dev and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: map[string]Document{}}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.docs[doc.ID] = doc
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	doc, ok := r.docs[documentID]
	r.mu.RUnlock()
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByCase(ctx context.Context, caseID string) ([]Document, error) {
	return r.filter(ctx, func(d Document) bool { return d.CaseID == caseID })
}

func (r *MemoryRepo) LatestExtracted(ctx context.Context, caseID string) (Document, error) {
	return r.first(ctx, func(d Document) bool { return d.CaseID == caseID && d.Extracted != nil })
}

func (r *MemoryRepo) FindExtractedByContent(ctx context.Context, caseID, sha256Hex string) (Document, error) {
	return r.first(ctx, func(d Document) bool {
		return d.CaseID == caseID && d.ContentSHA256 == sha256Hex && d.Extracted != nil
	})
}

func (r *MemoryRepo) SetExtraction(ctx context.Context, documentID string, e Extraction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	if doc.Extracted == nil {
		doc.apply(e)
		r.docs[documentID] = doc
	}
	return nil
}

func (r *MemoryRepo) first(ctx context.Context, keep func(Document) bool) (Document, error) {
	docs, err := r.filter(ctx, keep)
	if err != nil {
		return Document{}, err
	}
	if len(docs) == 0 {
		return Document{}, ErrNotFound
	}
	return docs[0], nil
}

// filter returns matching documents, newest first.
func (r *MemoryRepo) filter(ctx context.Context, keep func(Document) bool) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Document{}
	for _, d := range r.docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Document) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
