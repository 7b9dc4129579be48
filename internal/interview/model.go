package interview

import (
	"time"
)

type QuestionType string

const (
	TypeText    QuestionType = "text"
	TypeChoice  QuestionType = "choice"
	TypeDate    QuestionType = "date"
	TypeNumber  QuestionType = "number"
	TypeScale   QuestionType = "scale"
	TypeBoolean QuestionType = "boolean"
)

type Validation struct {
	Required bool     `json:"required,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
}

// FollowUp routes to NextQuestionID when the answer matches Condition.
// Keyword, when set, matches any answer containing it.
type FollowUp struct {
	Condition      string `json:"condition"`
	NextQuestionID string `json:"nextQuestionId"`
	Keyword        string `json:"-"`
}

type Question struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	Type           QuestionType `json:"type"`
	Options        []string     `json:"options,omitempty"`
	Validation     *Validation  `json:"validation,omitempty"`
	FollowUpLogic  []FollowUp   `json:"followUpLogic,omitempty"`
	Purpose        string       `json:"purpose"`
	LegalRelevance string       `json:"legalRelevance"`

	// followUpOnly questions are reached only through another question's FollowUpLogic.
	followUpOnly bool
}

// Response is one answer. Answer holds a string, float64 or bool.
type Response struct {
	QuestionID string    `json:"questionId"`
	Answer     any       `json:"answer"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence *float64  `json:"confidence,omitempty"`
}

type EmotionalState string

const (
	StateCalm      EmotionalState = "calm"
	StateAnxious   EmotionalState = "anxious"
	StateAngry     EmotionalState = "angry"
	StateConfused  EmotionalState = "confused"
	StateConfident EmotionalState = "confident"
)

type SentimentAnalysis struct {
	EmotionalState EmotionalState `json:"emotional_state"`
	StressLevel    float64        `json:"stress_level"`
	CoherenceScore float64        `json:"coherence_score"`
}

type RealityPerception struct {
	InternalConsistency float64  `json:"internal_consistency"`
	EvidenceAlignment   float64  `json:"evidence_alignment"`
	TemporalCoherence   float64  `json:"temporal_coherence"`
	Suggestions         []string `json:"suggestions"`
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is the server-authoritative interview state for one case attempt.
// Version increases by one on every accepted write.
type Session struct {
	ID                   string            `json:"sessionId"`
	UserID               string            `json:"userId"`
	CaseID               string            `json:"caseId"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	Responses            []Response        `json:"responses"`
	Sentiment            SentimentAnalysis `json:"sentimentAnalysis"`
	Reality              RealityPerception `json:"realityPerception"`
	Status               Status            `json:"status"`
	Version              int               `json:"version"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
	CompletedAt          *time.Time        `json:"completedAt,omitempty"`
}
