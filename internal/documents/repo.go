package documents

import "context"

// DocumentsRepo persists case documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	// ListByCase returns the case's documents, newest first.
	ListByCase(ctx context.Context, caseID string) ([]Document, error)
	// LatestExtracted returns the newest document of the case with extraction data.
	LatestExtracted(ctx context.Context, caseID string) (Document, error)
	// FindExtractedByContent returns an already extracted upload of the same
	// bytes to the same case.
	FindExtractedByContent(ctx context.Context, caseID, sha256Hex string) (Document, error)
	// SetExtraction records the extraction once; later calls are ignored.
	SetExtraction(ctx context.Context, documentID string, e Extraction) error
}
