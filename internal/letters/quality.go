package letters

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	WarnMissingName        = "Ihr Name fehlt im Dokument"
	WarnMissingIssuer      = "Empfänger-Name fehlt"
	WarnMissingAmount      = "Betrag wird nicht erwähnt"
	WarnInformal           = `Informelle Anrede gefunden - sollte "Sie" sein`
	SuggestLonger          = "Das Dokument könnte ausführlicher sein"
	SuggestMentionEvidence = "Nachweise sollten explizit erwähnt werden"
)

var informalRe = regexp.MustCompile(`\b(Du|dein\w*)\b`)

// QualityCheck scores a letter from 1.0 downwards. The result is advisory and
// never blocks delivery.
func QualityCheck(content string, c Context) Quality {
	q := Quality{QualityScore: 1.0, Suggestions: []string{}, Warnings: []string{}}

	if !mentions(content, c.UserName) {
		q.Warnings = append(q.Warnings, WarnMissingName)
		q.QualityScore -= 0.2
	}
	if !mentions(content, c.Issuer) {
		q.Warnings = append(q.Warnings, WarnMissingIssuer)
		q.QualityScore -= 0.2
	}
	if !mentions(content, c.Amount) {
		q.Warnings = append(q.Warnings, WarnMissingAmount)
		q.QualityScore -= 0.1
	}
	if utf8.RuneCountInString(content) < 500 {
		q.Suggestions = append(q.Suggestions, SuggestLonger)
		q.QualityScore -= 0.1
	}
	if informalRe.MatchString(content) {
		q.Warnings = append(q.Warnings, WarnInformal)
		q.QualityScore -= 0.3
	}
	if c.hasEvidence() && !strings.Contains(strings.ToLower(content), "nachweis") {
		q.Suggestions = append(q.Suggestions, SuggestMentionEvidence)
		q.QualityScore -= 0.1
	}

	q.QualityScore = math.Max(0, math.Round(q.QualityScore*100)/100)
	return q
}

// mentions is false for an empty value: there is nothing the letter could contain.
func mentions(content, value string) bool {
	return value != "" && strings.Contains(content, value)
}
