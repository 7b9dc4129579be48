package letters

import (
	"context"
	"time"
)

// Record is the stored form of a letter; the text and HTML live in the object store.
type Record struct {
	ID               string
	CaseID           string
	UserID           string
	DocumentType     string
	Title            string
	AIProvider       string
	Model            string
	PromptTokens     int
	CompletionTokens int
	EstimatedCost    float64
	Quality          Quality
	TextKey          string
	HTMLKey          string
	RevisionOf       string
	CreatedAt        time.Time
}

// Repo defines persistence operations for generated letters.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, userID, letterID string) (Record, error)
	ListByCase(ctx context.Context, userID, caseID string) ([]Record, error)
}

func recordFrom(doc Document) Record {
	return Record{
		ID:               doc.ID,
		CaseID:           doc.Metadata.CaseID,
		UserID:           doc.Metadata.UserID,
		DocumentType:     doc.Metadata.DocumentType,
		Title:            doc.Title,
		AIProvider:       doc.Metadata.AIProvider,
		Model:            doc.Metadata.Model,
		PromptTokens:     doc.Metadata.PromptTokens,
		CompletionTokens: doc.Metadata.CompletionTokens,
		EstimatedCost:    doc.Metadata.EstimatedCost,
		Quality:          doc.Feedback,
		RevisionOf:       doc.Metadata.RevisionOf,
		CreatedAt:        doc.Metadata.GeneratedAt,
	}
}

func (r Record) document(text, htmlBody string) Document {
	return Document{
		ID:          r.ID,
		Title:       r.Title,
		Content:     text,
		ContentHTML: htmlBody,
		Metadata: Metadata{
			GeneratedAt:      r.CreatedAt,
			UserID:           r.UserID,
			CaseID:           r.CaseID,
			DocumentType:     r.DocumentType,
			AIProvider:       r.AIProvider,
			Model:            r.Model,
			PromptTokens:     r.PromptTokens,
			CompletionTokens: r.CompletionTokens,
			EstimatedCost:    r.EstimatedCost,
			RevisionOf:       r.RevisionOf,
		},
		Feedback: r.Quality,
	}
}
