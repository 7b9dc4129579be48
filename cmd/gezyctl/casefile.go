package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gezy-backend/internal/diligence"
	"gezy-backend/internal/extract"
	"gezy-backend/internal/interview"
	"gezy-backend/internal/letters"
)

// caseFile is the input of assess and letter.
type caseFile struct {
	CaseType      string               `json:"caseType"`
	ExtractedData extract.Data         `json:"extractedData"`
	Responses     []interview.Response `json:"responses"`
	Profile       struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address string `json:"address"`
	} `json:"profile"`
}

func loadCaseFile(path string) (caseFile, error) {
	var cf caseFile
	if strings.TrimSpace(path) == "" {
		return cf, fmt.Errorf("--input is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cf, fmt.Errorf("read case file: %w", err)
	}
	if err := json.Unmarshal(raw, &cf); err != nil {
		return cf, fmt.Errorf("parse case file: %w", err)
	}
	return cf, nil
}

// session replays the answers through the interview rules and completes it,
// so a case file gets the same validation as the API.
func (cf caseFile) session(now time.Time) (interview.Session, error) {
	questions := interview.Generate(cf.ExtractedData, cf.CaseType)
	sess := interview.NewSession("local", "local", now)
	for _, r := range cf.Responses {
		next, err := sess.Append(questions, r, sess.Version, now)
		if err != nil {
			return interview.Session{}, fmt.Errorf("answer %s: %w", r.QuestionID, err)
		}
		sess = next
	}
	if q, pending := interview.Pending(questions, sess.Responses); pending {
		return interview.Session{}, fmt.Errorf("interview incomplete: %s is unanswered", q.ID)
	}
	return sess.Complete(now)
}

type assessment struct {
	session interview.Session
	report  diligence.Report
}

func (cf caseFile) assess(now time.Time) (assessment, error) {
	sess, err := cf.session(now)
	if err != nil {
		return assessment{}, err
	}
	scorer := diligence.NewScorer()
	scorer.Now = func() time.Time { return now }
	return assessment{session: sess, report: scorer.Score(cf.ExtractedData, sess, "local")}, nil
}

func (cf caseFile) profile() letters.Profile {
	return letters.Profile{
		ID:      "local",
		Name:    cf.Profile.Name,
		Email:   cf.Profile.Email,
		Address: cf.Profile.Address,
	}
}
