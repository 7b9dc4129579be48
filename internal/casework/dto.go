package casework

import (
	"time"

	"gezy-backend/internal/cases"
	"gezy-backend/internal/documents"
	"gezy-backend/internal/interview"
	"gezy-backend/internal/letters"
)

type createCaseRequest struct {
	CaseType    cases.CaseType `json:"caseType"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
}

type analyzeRequest struct {
	FileBuffer string `json:"fileBuffer"`
	MimeType   string `json:"mimeType"`
	FileName   string `json:"fileName"`
	CaseID     string `json:"caseId"`
}

type responseRequest struct {
	QuestionID      string   `json:"questionId"`
	Answer          any      `json:"answer"`
	Confidence      *float64 `json:"confidence"`
	ExpectedVersion *int     `json:"expectedVersion"`
}

type letterRequest struct {
	DocumentType string          `json:"documentType"`
	UserAPIKey   *letters.APIKey `json:"userApiKey"`
}

type reviseRequest struct {
	UserFeedback string          `json:"userFeedback"`
	UserAPIKey   *letters.APIKey `json:"userApiKey"`
}

type feedbackRequest struct {
	Rating                 int    `json:"rating"`
	WasHelpful             bool   `json:"wasHelpful"`
	WasUsed                bool   `json:"wasUsed"`
	Outcome                string `json:"outcome"`
	ImprovementSuggestions string `json:"improvementSuggestions"`
}

type caseDetailResponse struct {
	cases.Case
	Documents []documents.DocumentResponse `json:"documents"`
	Letters   []letterSummary              `json:"letters"`
}

type letterSummary struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	DocumentType string          `json:"documentType"`
	AIProvider   string          `json:"aiProvider"`
	Quality      letters.Quality `json:"feedback"`
	RevisionOf   string          `json:"revisionOf,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type interviewResponse struct {
	Session      interview.Session    `json:"session"`
	Questions    []interview.Question `json:"questions"`
	NextQuestion *interview.Question  `json:"nextQuestion"`
}

func toCaseDetail(d CaseDetail) caseDetailResponse {
	docs := make([]documents.DocumentResponse, 0, len(d.Documents))
	for _, doc := range d.Documents {
		docs = append(docs, documents.ToResponse(doc))
	}
	return caseDetailResponse{Case: d.Case, Documents: docs, Letters: toLetterSummaries(d.Letters)}
}

func toLetterSummaries(recs []letters.Record) []letterSummary {
	out := make([]letterSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, letterSummary{
			ID:           r.ID,
			Title:        r.Title,
			DocumentType: r.DocumentType,
			AIProvider:   r.AIProvider,
			Quality:      r.Quality,
			RevisionOf:   r.RevisionOf,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out
}

func toInterviewResponse(st InterviewState) interviewResponse {
	questions := st.Questions
	if questions == nil {
		questions = []interview.Question{}
	}
	return interviewResponse{Session: st.Session, Questions: questions, NextQuestion: st.Next}
}
