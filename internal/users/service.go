package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidInput  = errors.New("invalid profile")
	errNotConfigured = errors.New("users service not configured")
)

const (
	maxAddressLen = 300
	maxNameLen    = 120
)

// Service manages the sender profile used in letters.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Ensure records the identity from the auth token and returns the stored profile.
func (s *Service) Ensure(ctx context.Context, userID, email, name string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.Upsert(ctx, User{
		ID:       userID,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		FullName: collapseSpaces(name),
	})
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of upd.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if upd.FullName != nil {
		name := collapseSpaces(*upd.FullName)
		if utf8.RuneCountInString(name) > maxNameLen {
			return User{}, fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, maxNameLen)
		}
		user.FullName = name
	}
	if upd.Address != nil {
		addr := NormalizeAddress(*upd.Address)
		if utf8.RuneCountInString(addr) > maxAddressLen {
			return User{}, fmt.Errorf("%w: address exceeds %d characters", ErrInvalidInput, maxAddressLen)
		}
		user.Address = addr
	}
	if upd.Tier != nil {
		if !upd.Tier.Valid() {
			return User{}, fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, *upd.Tier)
		}
		user.Tier = *upd.Tier
	}
	return s.Repo.SaveProfile(ctx, user)
}

// NormalizeAddress trims every line of a postal address and drops blank
// ones, so the letter head renders one line per address line.
func NormalizeAddress(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = collapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
