package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCase = `{
  "caseType": "Festsetzungsbescheid",
  "extractedData": {
    "documentType": "Festsetzungsbescheid",
    "issuer": "ARD ZDF Deutschlandradio Beitragsservice",
    "amount": 315,
    "currency": "EUR",
    "issueDate": "2024-02-15",
    "dueDate": "2099-03-20",
    "caseNumber": "123 456 789"
  },
  "responses": [
    {"questionId": "q1_basic_confirmation", "answer": true},
    {"questionId": "q2_timeline", "answer": "2024-02-20"},
    {"questionId": "q3_living_situation", "answer": "Nein, ich war im Ausland"},
    {"questionId": "q4_abroad_period", "answer": "01.2022 bis 06.2023"},
    {"questionId": "q5_previous_payments", "answer": "Nein, noch nie"},
    {"questionId": "q6_emotional_state", "answer": 4},
    {"questionId": "q7_confidence", "answer": 8},
    {"questionId": "q8_supporting_evidence", "answer": "Auslandsbescheinigung"}
  ],
  "profile": {"name": "Max Mustermann", "email": "max@example.de", "address": "Musterstr. 1, 12345 Berlin"}
}`

func writeCase(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAssessPrintsReportAndRecommendations(t *testing.T) {
	out, err := run(t, "assess", "--input", writeCase(t, sampleCase))
	require.NoError(t, err)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Contains(t, body, "diligenceReport")
	assert.Contains(t, body, "recommendations")
	assert.Contains(t, string(body["session"]), `"status": "completed"`)
}

func TestAssessRejectsIncompleteInterview(t *testing.T) {
	partial := strings.Replace(sampleCase, `{"questionId": "q8_supporting_evidence", "answer": "Auslandsbescheinigung"}`, `{"questionId": "q7_confidence", "answer": 9}`, 1)

	_, err := run(t, "assess", "--input", writeCase(t, partial))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "q8_supporting_evidence")
}

func TestLetterFallsBackToTemplate(t *testing.T) {
	out, err := run(t, "letter", "--input", writeCase(t, sampleCase), "--provider", "template", "--type", "widerspruch")
	require.NoError(t, err)
	assert.Contains(t, out, "Max Mustermann")
	assert.Contains(t, out, "123 456 789")
}

func TestCaseFileSessionReplaysAnswers(t *testing.T) {
	cf, err := loadCaseFile(writeCase(t, sampleCase))
	require.NoError(t, err)

	sess, err := cf.session(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, sess.WasAbroad())
	assert.Len(t, sess.Responses, 8)

	_, err = loadCaseFile("")
	assert.Error(t, err)
}

func TestQuestionsUsesAmount(t *testing.T) {
	out, err := run(t, "questions", "--amount", "315")
	require.NoError(t, err)
	assert.Contains(t, out, "315")
	assert.Contains(t, out, "q1_basic_confirmation")
}
