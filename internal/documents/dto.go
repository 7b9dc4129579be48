package documents

import (
	"time"

	"gezy-backend/internal/extract"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID    string        `json:"documentId"`
	CaseID        string        `json:"caseId"`
	FileName      string        `json:"fileName"`
	MimeType      string        `json:"mimeType"`
	SizeBytes     int64         `json:"sizeBytes"`
	UploadedAt    time.Time     `json:"uploadedAt"`
	ExtractedAt   *time.Time    `json:"extractedAt,omitempty"`
	ExtractedData *extract.Data `json:"extractedData,omitempty"`
}

func ToResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:    doc.ID,
		CaseID:        doc.CaseID,
		FileName:      doc.FileName,
		MimeType:      doc.MimeType,
		SizeBytes:     doc.SizeBytes,
		UploadedAt:    doc.CreatedAt,
		ExtractedAt:   doc.ExtractedAt,
		ExtractedData: doc.Extracted,
	}
}
