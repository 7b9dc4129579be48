package letters

import "time"

const (
	TypeWiderspruch = "widerspruch"
	TypeAnfrage     = "anfrage"
	TypeKlage       = "klage"
)

// Document is a generated letter with its advisory quality assessment.
type Document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ContentHTML string   `json:"contentHtml"`
	Metadata    Metadata `json:"metadata"`
	Feedback    Quality  `json:"feedback"`
}

type Metadata struct {
	GeneratedAt      time.Time `json:"generatedAt"`
	UserID           string    `json:"userId"`
	CaseID           string    `json:"caseId"`
	DocumentType     string    `json:"documentType"`
	AIProvider       string    `json:"aiProvider"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"promptTokens"`
	CompletionTokens int       `json:"completionTokens"`
	EstimatedCost    float64   `json:"estimatedCost"`
	RevisionOf       string    `json:"revisionOf,omitempty"`
}

type Quality struct {
	QualityScore float64  `json:"qualityScore"`
	Suggestions  []string `json:"suggestions"`
	Warnings     []string `json:"warnings"`
}

// Profile is the sender of a letter.
type Profile struct {
	ID      string
	Name    string
	Email   string
	Address string
	Tier    string
}

// APIKey is a user-supplied provider credential used for one request.
type APIKey struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
}
