package letters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityCheckFullTemplateScoresHigh(t *testing.T) {
	ts := mustTemplates(t)
	w, _ := ts.Get(TypeWiderspruch)
	c := sampleContext()
	q := QualityCheck(Fill(w, c), c)
	assert.Equal(t, 1.0, q.QualityScore)
	assert.Empty(t, q.Warnings)
	assert.Empty(t, q.Suggestions)
}

func TestQualityCheckPenalties(t *testing.T) {
	c := sampleContext()
	q := QualityCheck("Hallo Du, hier ist dein Brief.", c)
	assert.InDelta(t, 0.0, q.QualityScore, 1e-9)
	assert.Equal(t, []string{WarnMissingName, WarnMissingIssuer, WarnMissingAmount, WarnInformal}, q.Warnings)
	assert.Equal(t, []string{SuggestLonger, SuggestMentionEvidence}, q.Suggestions)

	long := strings.Repeat("Sehr geehrte Damen und Herren. ", 20) + c.UserName + " " + c.Issuer + " 315 Nachweis"
	q = QualityCheck(long, c)
	assert.Equal(t, 1.0, q.QualityScore)

	q = QualityCheck(strings.Repeat("x", 600)+c.UserName+c.Issuer, c)
	assert.InDelta(t, 0.8, q.QualityScore, 1e-9, "missing amount and evidence mention")
}

func TestQualityCheckIgnoresWordsStartingWithDu(t *testing.T) {
	c := Context{UserName: "Max"}
	q := QualityCheck("Durchsetzung der Forderung durch Max", c)
	assert.NotContains(t, q.Warnings, WarnInformal)
}

func TestHTMLFormatting(t *testing.T) {
	out := HTML("Begründung\n=====\nDer Betrag ist falsch.\n\n<script>")
	assert.Contains(t, out, "<h3>Begründung</h3>")
	assert.Contains(t, out, "<p>=====</p>")
	assert.Contains(t, out, "<p>Der Betrag ist falsch.</p>")
	assert.Contains(t, out, "<br>")
	assert.Contains(t, out, "<p>&lt;script&gt;</p>")
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
}

func TestTitle(t *testing.T) {
	w, _ := mustTemplates(t).Get(TypeWiderspruch)
	assert.Equal(t, "Widerspruch - Beitragsbescheid - 123 456 789", Title(w, sampleContext()))
}
