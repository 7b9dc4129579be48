package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gezy-backend/internal/queue"
	"gezy-backend/internal/shared/metrics"
	"gezy-backend/internal/shared/telemetry"
)

const maxSuggestionLen = 4000

// Submission is the user-supplied part of a feedback record.
type Submission struct {
	LetterID               string
	UserID                 string
	Rating                 int
	WasHelpful             bool
	WasUsed                bool
	Outcome                Outcome
	ImprovementSuggestions string
	RequestID              string
}

// Service stores feedback and routes poorly rated letters to review.
type Service struct {
	Repo  Repo
	Queue queue.Client
	Now   func() time.Time
}

func NewService(repo Repo, q queue.Client) *Service {
	return &Service{Repo: repo, Queue: q, Now: time.Now}
}

// Validate checks the rating range and outcome enum.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.LetterID) == "" || strings.TrimSpace(s.UserID) == "" {
		return fmt.Errorf("%w: letter and user are required", ErrInvalidInput)
	}
	if s.Rating < 1 || s.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if !s.Outcome.Valid() {
		return fmt.Errorf("%w: outcome must be one of success, partial, rejected, pending", ErrInvalidInput)
	}
	if len(s.ImprovementSuggestions) > maxSuggestionLen {
		return fmt.Errorf("%w: improvement suggestions too long", ErrInvalidInput)
	}
	return nil
}

// Submit stores the feedback. A rating below 3 flags the letter for review and
// enqueues it when a queue is configured; a queue failure leaves the feedback
// stored with review status "none".
func (s *Service) Submit(ctx context.Context, in Submission) (Feedback, error) {
	if err := in.Validate(); err != nil {
		return Feedback{}, err
	}
	fb := Feedback{
		ID:                     uuid.NewString(),
		DocumentID:             in.LetterID,
		UserID:                 in.UserID,
		Rating:                 in.Rating,
		WasHelpful:             in.WasHelpful,
		WasUsed:                in.WasUsed,
		Outcome:                in.Outcome,
		ImprovementSuggestions: strings.TrimSpace(in.ImprovementSuggestions),
		FlaggedForReview:       in.Rating < 3,
		PositiveExample:        in.Rating >= 4 && in.WasUsed && in.Outcome == OutcomeSuccess,
		ReviewStatus:           ReviewNone,
		ReviewNotes:            []string{},
		CreatedAt:              s.now(),
	}
	if err := s.Repo.Create(ctx, fb); err != nil {
		return Feedback{}, fmt.Errorf("store feedback: %w", err)
	}
	metrics.IncFeedbackSubmitted()

	fields := map[string]any{
		"feedback_id":      fb.ID,
		"letter_id":        fb.DocumentID,
		"user_id":          fb.UserID,
		"rating":           fb.Rating,
		"positive_example": fb.PositiveExample,
		"flagged":          fb.FlaggedForReview,
	}
	if !fb.FlaggedForReview {
		telemetry.Info("feedback.submitted", fields)
		return fb, nil
	}

	metrics.IncFeedbackFlagged()
	if s.Queue == nil {
		telemetry.Warn("feedback.flagged_no_queue", fields)
		return fb, nil
	}
	if err := s.Queue.Send(ctx, queue.NewReviewMessage(fb.ID, fb.DocumentID, in.RequestID, s.now())); err != nil {
		fields["error"] = err
		telemetry.Error("feedback.enqueue_failed", fields)
		return fb, nil
	}
	if err := s.Repo.SetReviewStatus(ctx, fb.ID, ReviewQueued); err != nil {
		fields["error"] = err
		telemetry.Warn("feedback.status_update_failed", fields)
		return fb, nil
	}
	fb.ReviewStatus = ReviewQueued
	telemetry.Info("feedback.flagged", fields)
	return fb, nil
}

func (s *Service) Get(ctx context.Context, id string) (Feedback, error) {
	return s.Repo.Get(ctx, id)
}

// RecordReview stores the outcome of a review run. A review that another
// worker already recorded is left untouched.
func (s *Service) RecordReview(ctx context.Context, id string, notes []string) error {
	err := s.Repo.RecordReview(ctx, id, notes, s.now())
	if errors.Is(err, ErrAlreadyReviewed) {
		telemetry.Debug("feedback.review_exists", map[string]any{"feedback_id": id})
		return nil
	}
	if err != nil {
		return err
	}
	metrics.IncReviewsProcessed()
	return nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
