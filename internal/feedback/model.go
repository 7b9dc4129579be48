package feedback

import "time"

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomePartial  Outcome = "partial"
	OutcomeRejected Outcome = "rejected"
	OutcomePending  Outcome = "pending"
)

func (o Outcome) Valid() bool {
	switch o {
	case "", OutcomeSuccess, OutcomePartial, OutcomeRejected, OutcomePending:
		return true
	}
	return false
}

type ReviewStatus string

const (
	ReviewNone     ReviewStatus = "none"
	ReviewQueued   ReviewStatus = "queued"
	ReviewReviewed ReviewStatus = "reviewed"
)

// Feedback is a user's verdict on one generated letter.
type Feedback struct {
	ID                     string       `json:"id"`
	DocumentID             string       `json:"documentId"`
	UserID                 string       `json:"userId"`
	Rating                 int          `json:"rating"`
	WasHelpful             bool         `json:"wasHelpful"`
	WasUsed                bool         `json:"wasUsed"`
	Outcome                Outcome      `json:"outcome,omitempty"`
	ImprovementSuggestions string       `json:"improvementSuggestions,omitempty"`
	FlaggedForReview       bool         `json:"flaggedForReview"`
	PositiveExample        bool         `json:"positiveExample"`
	ReviewStatus           ReviewStatus `json:"reviewStatus"`
	ReviewNotes            []string     `json:"reviewNotes"`
	CreatedAt              time.Time    `json:"createdAt"`
	ReviewedAt             *time.Time   `json:"reviewedAt,omitempty"`
}
