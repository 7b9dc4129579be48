package interview

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSession opens an active session with neutral analysis values.
func NewSession(userID, caseID string, now time.Time) Session {
	now = now.UTC()
	return Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CaseID:    caseID,
		Responses: []Response{},
		Sentiment: SentimentAnalysis{
			EmotionalState: StateCalm,
			StressLevel:    defaultStress,
			CoherenceScore: 1.0,
		},
		Reality: RealityPerception{
			InternalConsistency: 1.0,
			EvidenceAlignment:   0.5,
			TemporalCoherence:   1.0,
			Suggestions:         []string{},
		},
		Status:    StatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Answer returns the latest answer recorded for a question.
func (s Session) Answer(questionID string) (any, bool) {
	for i := len(s.Responses) - 1; i >= 0; i-- {
		if s.Responses[i].QuestionID == questionID {
			return s.Responses[i].Answer, true
		}
	}
	return nil, false
}

// AnswerText is Answer rendered as a string; empty when unanswered.
func (s Session) AnswerText(questionID string) string {
	ans, ok := s.Answer(questionID)
	if !ok {
		return ""
	}
	return answerString(ans)
}

// WasAbroad reports whether the living-situation answer mentions a stay abroad.
func (s Session) WasAbroad() bool {
	return strings.Contains(s.AnswerText(QLivingSituation), abroadKeyword)
}

func (s Session) clone() Session {
	out := s
	out.Responses = append([]Response(nil), s.Responses...)
	out.Reality.Suggestions = append([]string(nil), s.Reality.Suggestions...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Append validates an answer against the catalogue and the current flow and
// returns the session with the response added. expectedVersion must match the
// session version.
func (s Session) Append(questions []Question, r Response, expectedVersion int, now time.Time) (Session, error) {
	if s.Status == StatusCompleted {
		return Session{}, ErrSessionCompleted
	}
	if expectedVersion != s.Version {
		return Session{}, fmt.Errorf("%w: expected version %d, current %d", ErrVersionConflict, expectedVersion, s.Version)
	}
	q, ok := Lookup(questions, r.QuestionID)
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, r.QuestionID)
	}
	if !reachable(questions, s.Responses, q.ID) {
		return Session{}, fmt.Errorf("%w: %s is not part of this interview", ErrInvalidAnswer, q.ID)
	}
	if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 10) {
		return Session{}, fmt.Errorf("%w: confidence must be between 0 and 10", ErrInvalidAnswer)
	}
	answer, err := ValidateAnswer(q, r.Answer)
	if err != nil {
		return Session{}, err
	}

	now = now.UTC()
	out := s.clone()
	r.Answer = answer
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	out.Responses = append(out.Responses, r)
	out.CurrentQuestionIndex = len(Flow(questions, out.Responses)) - 1
	if _, pending := Pending(questions, out.Responses); !pending {
		out.CurrentQuestionIndex = len(Flow(questions, out.Responses))
	}
	out.Version++
	out.UpdatedAt = now
	return out, nil
}

// Complete runs the analyzer once and freezes the session.
func (s Session) Complete(now time.Time) (Session, error) {
	if s.Status == StatusCompleted {
		return Session{}, ErrSessionCompleted
	}
	now = now.UTC()
	out := Analyze(s)
	out.Status = StatusCompleted
	out.CompletedAt = &now
	out.UpdatedAt = now
	out.Version++
	return out, nil
}

func reachable(questions []Question, responses []Response, id string) bool {
	for _, q := range Flow(questions, responses) {
		if q.ID == id {
			return true
		}
	}
	return false
}
