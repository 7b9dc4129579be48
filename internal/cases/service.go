package cases

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"gezy-backend/internal/shared/telemetry"
)

const maxTitleLen = 200

// NewCase is the user input for opening a case.
type NewCase struct {
	CaseType    CaseType
	Title       string
	Description string
}

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// Create opens a case in status "Neu". An empty case type means Sonstiges.
func (s *Service) Create(ctx context.Context, userID string, in NewCase) (Case, error) {
	if strings.TrimSpace(userID) == "" {
		return Case{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if in.CaseType == "" {
		in.CaseType = TypeSonstiges
	}
	if !in.CaseType.Valid() {
		return Case{}, fmt.Errorf("%w: unknown case type %q", ErrInvalidInput, in.CaseType)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = string(in.CaseType)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return Case{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLen)
	}

	now := s.now()
	c := Case{
		ID:          uuid.NewString(),
		UserID:      userID,
		CaseType:    in.CaseType,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      StatusNew,
		Currency:    "EUR",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return Case{}, err
	}
	telemetry.Info("cases.created", map[string]any{"case_id": c.ID, "user_id": userID, "case_type": string(c.CaseType)})
	return c, nil
}

func (s *Service) Get(ctx context.Context, userID, caseID string) (Case, error) {
	return s.Repo.GetByID(ctx, userID, caseID)
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Case, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// ApplyFacts copies extracted notice details onto the case and moves a new
// case into "In Bearbeitung".
func (s *Service) ApplyFacts(ctx context.Context, c Case, f Facts) error {
	now := s.now()
	if err := s.Repo.ApplyFacts(ctx, c.ID, f, now); err != nil {
		return err
	}
	if c.Status == StatusNew {
		return s.Repo.UpdateStatus(ctx, c.ID, StatusInProgress, now)
	}
	return nil
}

func (s *Service) SetStatus(ctx context.Context, userID, caseID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if _, err := s.Repo.GetByID(ctx, userID, caseID); err != nil {
		return err
	}
	return s.Repo.UpdateStatus(ctx, caseID, status, s.now())
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
