package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gezy-backend/internal/extract"
)

func amountData(v float64) extract.Data {
	return extract.Data{Amount: &v}
}

func TestGenerateInterpolatesAmount(t *testing.T) {
	qs := Generate(amountData(315), "rundfunk")
	require.Len(t, qs, 8)
	assert.Equal(t, "Wir haben aus Ihrem Dokument einen Betrag von 315 EUR extrahiert. Ist das korrekt?", qs[0].Question)

	qs = Generate(amountData(228.32), "")
	assert.Contains(t, qs[0].Question, "228.32 EUR")
}

func TestGenerateWithoutAmount(t *testing.T) {
	qs := Generate(extract.Data{}, "")
	assert.Equal(t, amountUnavailable, qs[0].Question)
	assert.NotContains(t, qs[0].Question, "undefined")
}

func TestCatalogueOrderAndIDs(t *testing.T) {
	want := []string{
		QBasicConfirmation, QTimeline, QLivingSituation, QAbroadPeriod,
		QPreviousPayments, QEmotionalState, QConfidence, QSupportingEvid,
	}
	qs := Generate(extract.Data{}, "")
	for i, q := range qs {
		assert.Equal(t, want[i], q.ID)
		assert.NotEmpty(t, q.Purpose)
		assert.NotEmpty(t, q.LegalRelevance)
	}
	assert.False(t, qs[5].Validation.Required, "stress scale is optional")
}

func TestNextQuestionID(t *testing.T) {
	cases := []struct {
		current string
		answer  any
		want    string
		ok      bool
	}{
		{QBasicConfirmation, true, QTimeline, true},
		{QTimeline, "2024-03-01", QLivingSituation, true},
		{QLivingSituation, AnswerAbroad, QAbroadPeriod, true},
		{QLivingSituation, "Ja, durchgängig", QPreviousPayments, true},
		{QLivingSituation, "Nein, andere Gründe", QPreviousPayments, true},
		{QAbroadPeriod, "01.2022 - 06.2023", QPreviousPayments, true},
		{QConfidence, 7.0, QSupportingEvid, true},
		{QSupportingEvid, AnswerNoEvidence, "", false},
		{"q99_unknown", "x", "", false},
	}
	for _, tc := range cases {
		got, ok := NextQuestionID(tc.current, tc.answer)
		assert.Equal(t, tc.want, got, tc.current)
		assert.Equal(t, tc.ok, ok, tc.current)
	}
}

func TestFlowInsertsFollowUpAfterTrigger(t *testing.T) {
	qs := Generate(amountData(315), "")
	responses := []Response{
		{QuestionID: QBasicConfirmation, Answer: true},
		{QuestionID: QTimeline, Answer: "2024-03-01"},
		{QuestionID: QLivingSituation, Answer: AnswerAbroad},
	}
	flow := Flow(qs, responses)
	require.Len(t, flow, 4)
	assert.Equal(t, QAbroadPeriod, flow[3].ID)

	next, ok := Pending(qs, responses)
	require.True(t, ok)
	assert.Equal(t, QAbroadPeriod, next.ID)

	responses[2].Answer = "Ja, durchgängig"
	next, ok = Pending(qs, responses)
	require.True(t, ok)
	assert.Equal(t, QPreviousPayments, next.ID)
}
