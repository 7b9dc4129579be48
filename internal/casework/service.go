package casework

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gezy-backend/internal/cases"
	"gezy-backend/internal/diligence"
	"gezy-backend/internal/documents"
	"gezy-backend/internal/extract"
	"gezy-backend/internal/feedback"
	"gezy-backend/internal/interview"
	"gezy-backend/internal/letters"
	"gezy-backend/internal/queue"
	"gezy-backend/internal/recommend"
	"gezy-backend/internal/shared/metrics"
	"gezy-backend/internal/shared/telemetry"
	"gezy-backend/internal/users"
)

// Caller identifies who is acting on a case.
type Caller struct {
	UserID    string
	Email     string
	Name      string
	Guest     bool
	RequestID string
}

// Service runs the casework flow: notice, interview, assessment, letter, feedback.
type Service struct {
	Cases     *cases.Service
	Documents *documents.Service
	Sessions  interview.Store
	Users     *users.Service
	Scorer    *diligence.Scorer
	Letters   *letters.Generator
	Archive   *letters.Archive
	Feedback  *feedback.Service
	Now       func() time.Time
}

// CaseDetail is a case together with everything attached to it.
type CaseDetail struct {
	Case      cases.Case
	Documents []documents.Document
	Letters   []letters.Record
}

// InterviewState is a session with the question the user has to answer next.
// Next is nil once every question on the current path is answered.
type InterviewState struct {
	Session   interview.Session
	Questions []interview.Question
	Next      *interview.Question
}

// Assessment is the diligence report with the ranked recommendations.
type Assessment struct {
	Report          diligence.Report
	Recommendations []recommend.Recommendation
}

func (s *Service) CreateCase(ctx context.Context, userID string, in cases.NewCase) (cases.Case, error) {
	return s.Cases.Create(ctx, userID, in)
}

func (s *Service) ListCases(ctx context.Context, userID string, limit, offset int) ([]cases.Case, error) {
	return s.Cases.List(ctx, userID, limit, offset)
}

func (s *Service) GetCase(ctx context.Context, userID, caseID string) (CaseDetail, error) {
	c, err := s.ownedCase(ctx, userID, caseID)
	if err != nil {
		return CaseDetail{}, err
	}
	docs, err := s.Documents.ListByCase(ctx, c.ID)
	if err != nil {
		return CaseDetail{}, err
	}
	recs, err := s.Archive.Repo.ListByCase(ctx, userID, c.ID)
	if err != nil {
		return CaseDetail{}, err
	}
	return CaseDetail{Case: c, Documents: docs, Letters: recs}, nil
}

// AnalyzeDocument attaches a notice to an owned case and copies the extracted
// amount and dates onto it. The stored document is returned even when
// extraction failed.
func (s *Service) AnalyzeDocument(ctx context.Context, up documents.Upload) (documents.Document, error) {
	c, err := s.ownedCase(ctx, up.UserID, up.CaseID)
	if err != nil {
		return documents.Document{}, err
	}
	doc, err := s.Documents.Analyze(ctx, up)
	if err != nil {
		return doc, err
	}
	facts := cases.Facts{
		Amount:       doc.Extracted.Amount,
		Currency:     doc.Extracted.Currency,
		ReceivedDate: doc.Extracted.IssueDate,
		Deadline:     doc.Extracted.DueDate,
	}
	if err := s.Cases.ApplyFacts(ctx, c, facts); err != nil {
		telemetry.Warn("casework.apply_facts_failed", map[string]any{
			"case_id":     c.ID,
			"document_id": doc.ID,
			"error":       err,
		})
	}
	return doc, nil
}

// PreviewDocument extracts a notice without attaching it to a case.
func (s *Service) PreviewDocument(ctx context.Context, up documents.Upload) (extract.Data, error) {
	return s.Documents.Preview(ctx, up)
}

// StartInterview opens a new session for the case. Questions are derived from
// the newest extraction; a case without one gets the generic wording.
func (s *Service) StartInterview(ctx context.Context, userID, caseID string) (InterviewState, error) {
	c, err := s.ownedCase(ctx, userID, caseID)
	if err != nil {
		return InterviewState{}, err
	}
	data, err := s.extraction(ctx, c.ID)
	if err != nil {
		return InterviewState{}, err
	}
	questions := interview.Generate(data, string(c.CaseType))
	sess := interview.NewSession(userID, c.ID, s.now())
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return InterviewState{}, fmt.Errorf("create session: %w", err)
	}
	metrics.IncInterviewsStarted()
	telemetry.Info("interview.started", map[string]any{
		"session_id": sess.ID,
		"case_id":    c.ID,
		"user_id":    userID,
		"questions":  len(questions),
	})
	return newState(sess, questions), nil
}

// GetInterview returns the session as the caller last left it.
func (s *Service) GetInterview(ctx context.Context, userID, sessionID string) (InterviewState, error) {
	sess, questions, err := s.sessionWithQuestions(ctx, userID, sessionID)
	if err != nil {
		return InterviewState{}, err
	}
	return newState(sess, questions), nil
}

// SubmitResponse appends one answer. expectedVersion is the session version
// the client last saw; a stale version fails with interview.ErrVersionConflict.
func (s *Service) SubmitResponse(ctx context.Context, userID, sessionID string, r interview.Response, expectedVersion int) (InterviewState, error) {
	sess, questions, err := s.sessionWithQuestions(ctx, userID, sessionID)
	if err != nil {
		return InterviewState{}, err
	}
	next, err := sess.Append(questions, r, expectedVersion, s.now())
	if err == nil {
		err = s.Sessions.Update(ctx, next)
	}
	if err != nil {
		if errors.Is(err, interview.ErrVersionConflict) {
			metrics.IncSessionConflicts()
			telemetry.Warn("interview.version_conflict", map[string]any{
				"session_id":       sessionID,
				"expected_version": expectedVersion,
				"current_version":  sess.Version,
			})
		}
		return InterviewState{}, err
	}
	return newState(next, questions), nil
}

// CompleteInterview analyzes the answers and freezes the session. Every
// question on the current path has to be answered first.
func (s *Service) CompleteInterview(ctx context.Context, userID, sessionID string) (interview.Session, error) {
	sess, questions, err := s.sessionWithQuestions(ctx, userID, sessionID)
	if err != nil {
		return interview.Session{}, err
	}
	if sess.Status == interview.StatusCompleted {
		return interview.Session{}, interview.ErrSessionCompleted
	}
	if q, pending := interview.Pending(questions, sess.Responses); pending {
		return interview.Session{}, fmt.Errorf("%w: %s is unanswered", ErrInterviewIncomplete, q.ID)
	}
	done, err := sess.Complete(s.now())
	if err != nil {
		return interview.Session{}, err
	}
	if err := s.Sessions.Update(ctx, done); err != nil {
		if errors.Is(err, interview.ErrVersionConflict) {
			metrics.IncSessionConflicts()
		}
		return interview.Session{}, err
	}
	metrics.IncInterviewsCompleted()
	telemetry.Info("interview.completed", map[string]any{
		"session_id":      done.ID,
		"case_id":         done.CaseID,
		"emotional_state": string(done.Sentiment.EmotionalState),
		"stress_level":    done.Sentiment.StressLevel,
	})
	return done, nil
}

// GetRecommendations scores the case on its stored extraction and the latest
// completed interview.
func (s *Service) GetRecommendations(ctx context.Context, userID, caseID string) (Assessment, error) {
	in, err := s.assess(ctx, userID, caseID)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{
		Report:          in.report,
		Recommendations: recommend.Generate(in.report, in.session),
	}, nil
}

// GenerateLetter writes and archives a letter for the case.
func (s *Service) GenerateLetter(ctx context.Context, caller Caller, caseID, docType string, key *letters.APIKey) (letters.Document, error) {
	in, err := s.assess(ctx, caller.UserID, caseID)
	if err != nil {
		return letters.Document{}, err
	}
	profile, err := s.profile(ctx, caller)
	if err != nil {
		return letters.Document{}, err
	}
	doc, err := s.Letters.Generate(ctx, letters.Request{
		UserID:       caller.UserID,
		CaseID:       in.c.ID,
		DocumentType: strings.ToLower(strings.TrimSpace(docType)),
		Context:      letters.NewContext(in.data, in.session, in.report, profile),
		APIKey:       key,
	})
	if err != nil {
		return letters.Document{}, err
	}
	if _, err := s.Archive.Save(ctx, doc); err != nil {
		return letters.Document{}, fmt.Errorf("archive letter: %w", err)
	}
	return doc, nil
}

func (s *Service) GetLetter(ctx context.Context, userID, letterID string) (letters.Document, error) {
	doc, err := s.Archive.Load(ctx, userID, letterID)
	if err != nil {
		if letters.IsNotFound(err) {
			return letters.Document{}, ErrNotFound
		}
		return letters.Document{}, err
	}
	return doc, nil
}

func (s *Service) ListLetters(ctx context.Context, userID, caseID string) ([]letters.Record, error) {
	if _, err := s.ownedCase(ctx, userID, caseID); err != nil {
		return nil, err
	}
	return s.Archive.Repo.ListByCase(ctx, userID, caseID)
}

// ReviseLetter reworks a stored letter with the user's change requests and
// archives the result as a new letter pointing at the prior one.
func (s *Service) ReviseLetter(ctx context.Context, caller Caller, letterID, userFeedback string, key *letters.APIKey) (letters.Document, error) {
	prior, err := s.GetLetter(ctx, caller.UserID, letterID)
	if err != nil {
		return letters.Document{}, err
	}
	in, err := s.assess(ctx, caller.UserID, prior.Metadata.CaseID)
	if err != nil {
		return letters.Document{}, err
	}
	profile, err := s.profile(ctx, caller)
	if err != nil {
		return letters.Document{}, err
	}
	doc, err := s.Letters.Revise(ctx, prior, userFeedback, letters.NewContext(in.data, in.session, in.report, profile), key)
	if err != nil {
		return letters.Document{}, err
	}
	if _, err := s.Archive.Save(ctx, doc); err != nil {
		return letters.Document{}, fmt.Errorf("archive letter: %w", err)
	}
	return doc, nil
}

// SubmitFeedback records a rating for a letter the caller owns.
func (s *Service) SubmitFeedback(ctx context.Context, sub feedback.Submission) (feedback.Feedback, error) {
	if _, err := s.Archive.Repo.GetByID(ctx, sub.UserID, sub.LetterID); err != nil {
		if letters.IsNotFound(err) {
			return feedback.Feedback{}, ErrNotFound
		}
		return feedback.Feedback{}, err
	}
	return s.Feedback.Submit(ctx, sub)
}

// ProcessReview re-checks a letter that received negative feedback and stores
// the findings as review notes. Already reviewed feedback is skipped so
// redelivered messages are harmless.
func (s *Service) ProcessReview(ctx context.Context, msg queue.Message) error {
	if strings.TrimSpace(msg.FeedbackID) == "" {
		return fmt.Errorf("%w: feedbackId is required", ErrInvalidInput)
	}
	fb, err := s.Feedback.Get(ctx, msg.FeedbackID)
	if err != nil {
		return err
	}
	fields := map[string]any{
		"feedback_id": fb.ID,
		"letter_id":   fb.DocumentID,
		"request_id":  msg.RequestID,
	}
	if fb.ReviewStatus == feedback.ReviewReviewed {
		telemetry.Debug("review.already_processed", fields)
		return nil
	}

	doc, err := s.Archive.Load(ctx, fb.UserID, fb.DocumentID)
	if err != nil {
		if !letters.IsNotFound(err) {
			return err
		}
		telemetry.Warn("review.letter_missing", fields)
		return s.Feedback.RecordReview(ctx, fb.ID, []string{ratingNote(fb), "Schreiben nicht mehr vorhanden"})
	}

	in, err := s.assess(ctx, fb.UserID, doc.Metadata.CaseID)
	if err != nil {
		return err
	}
	profile := letters.Profile{ID: fb.UserID}
	if s.Users != nil {
		if u, err := s.Users.GetByID(ctx, fb.UserID); err == nil {
			profile = profileOf(u)
		}
	}
	quality := letters.QualityCheck(doc.Content, letters.NewContext(in.data, in.session, in.report, profile))
	notes := reviewNotes(fb, quality)
	if err := s.Feedback.RecordReview(ctx, fb.ID, notes); err != nil {
		return err
	}
	fields["quality_score"] = quality.QualityScore
	fields["notes"] = len(notes)
	telemetry.Info("review.processed", fields)
	return nil
}

func ratingNote(fb feedback.Feedback) string {
	return fmt.Sprintf("Bewertung %d/5", fb.Rating)
}

func reviewNotes(fb feedback.Feedback, q letters.Quality) []string {
	notes := []string{
		ratingNote(fb),
		fmt.Sprintf("Qualität %.2f", q.QualityScore),
	}
	if fb.ImprovementSuggestions != "" {
		notes = append(notes, "Nutzerhinweis: "+fb.ImprovementSuggestions)
	}
	for _, w := range q.Warnings {
		notes = append(notes, "Warnung: "+w)
	}
	for _, sug := range q.Suggestions {
		notes = append(notes, "Vorschlag: "+sug)
	}
	return notes
}

type assessInput struct {
	c       cases.Case
	data    extract.Data
	session interview.Session
	report  diligence.Report
}

func (s *Service) assess(ctx context.Context, userID, caseID string) (assessInput, error) {
	c, err := s.ownedCase(ctx, userID, caseID)
	if err != nil {
		return assessInput{}, err
	}
	data, err := s.extraction(ctx, c.ID)
	if err != nil {
		return assessInput{}, err
	}
	sess, err := s.Sessions.LatestCompleted(ctx, c.ID)
	if err != nil {
		if errors.Is(err, interview.ErrNotFound) {
			return assessInput{}, ErrInterviewIncomplete
		}
		return assessInput{}, err
	}
	return assessInput{
		c:       c,
		data:    data,
		session: sess,
		report:  s.Scorer.Score(data, sess, userID),
	}, nil
}

func (s *Service) ownedCase(ctx context.Context, userID, caseID string) (cases.Case, error) {
	if strings.TrimSpace(caseID) == "" {
		return cases.Case{}, fmt.Errorf("%w: case id is required", ErrInvalidInput)
	}
	c, err := s.Cases.Get(ctx, userID, caseID)
	if err != nil {
		if errors.Is(err, cases.ErrNotFound) || errors.Is(err, cases.ErrForbidden) {
			return cases.Case{}, ErrNotFound
		}
		return cases.Case{}, err
	}
	return c, nil
}

func (s *Service) sessionWithQuestions(ctx context.Context, userID, sessionID string) (interview.Session, []interview.Question, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, interview.ErrNotFound) {
			return interview.Session{}, nil, ErrNotFound
		}
		return interview.Session{}, nil, err
	}
	if sess.UserID != userID {
		return interview.Session{}, nil, ErrNotFound
	}
	c, err := s.ownedCase(ctx, userID, sess.CaseID)
	if err != nil {
		return interview.Session{}, nil, err
	}
	data, err := s.extraction(ctx, c.ID)
	if err != nil {
		return interview.Session{}, nil, err
	}
	return sess, interview.Generate(data, string(c.CaseType)), nil
}

func (s *Service) extraction(ctx context.Context, caseID string) (extract.Data, error) {
	data, ok, err := s.Documents.LatestExtraction(ctx, caseID)
	if err != nil {
		return extract.Data{}, err
	}
	if !ok {
		return extract.ParseFields(""), nil
	}
	return data, nil
}

// profile returns the letter sender. Guests have no stored profile and sign
// with what the token carried.
func (s *Service) profile(ctx context.Context, caller Caller) (letters.Profile, error) {
	if caller.Guest || s.Users == nil {
		return letters.Profile{ID: caller.UserID, Name: caller.Name, Email: caller.Email}, nil
	}
	u, err := s.Users.Ensure(ctx, caller.UserID, caller.Email, caller.Name)
	if err != nil {
		return letters.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profileOf(u), nil
}

func profileOf(u users.User) letters.Profile {
	return letters.Profile{
		ID:      u.ID,
		Name:    u.FullName,
		Email:   u.Email,
		Address: u.Address,
		Tier:    string(u.Tier),
	}
}

func newState(sess interview.Session, questions []interview.Question) InterviewState {
	st := InterviewState{Session: sess, Questions: interview.Flow(questions, sess.Responses)}
	if sess.Status == interview.StatusActive {
		if q, ok := interview.Pending(questions, sess.Responses); ok {
			st.Next = &q
		}
	}
	return st
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
