package interview

import (
	"strconv"

	"gezy-backend/internal/extract"
)

const (
	QBasicConfirmation = "q1_basic_confirmation"
	QTimeline          = "q2_timeline"
	QLivingSituation   = "q3_living_situation"
	QAbroadPeriod      = "q4_abroad_period"
	QPreviousPayments  = "q5_previous_payments"
	QEmotionalState    = "q6_emotional_state"
	QConfidence        = "q7_confidence"
	QSupportingEvid    = "q8_supporting_evidence"
)

const (
	AnswerAbroad      = "Nein, ich war im Ausland"
	AnswerNoOwnFlat   = "Nein, ich hatte keine eigene Wohnung"
	AnswerNoEvidence  = "Keine"
	abroadKeyword     = "Ausland"
	amountUnavailable = "Wir konnten aus Ihrem Dokument keinen Betrag auslesen. Stimmt der im Bescheid genannte Betrag mit Ihren Unterlagen überein?"
)

func ptr(v float64) *float64 { return &v }

// Generate returns the question catalogue for a case. The case type is accepted
// for future case-specific catalogues and does not change the questions today.
func Generate(data extract.Data, caseType string) []Question {
	_ = caseType
	return []Question{
		{
			ID:             QBasicConfirmation,
			Question:       amountQuestion(data.Amount),
			Type:           TypeBoolean,
			Validation:     &Validation{Required: true},
			Purpose:        "Validierung der OCR-Extraktion",
			LegalRelevance: "Betragshöhe ist zentral für Widerspruch",
		},
		{
			ID:             QTimeline,
			Question:       "Wann haben Sie das Dokument erstmals erhalten?",
			Type:           TypeDate,
			Validation:     &Validation{Required: true},
			Purpose:        "Fristberechnung",
			LegalRelevance: "Widerspruchsfrist beginnt mit Zustellung",
		},
		{
			ID:       QLivingSituation,
			Question: "Haben Sie im genannten Zeitraum an der angegebenen Adresse gewohnt?",
			Type:     TypeChoice,
			Options: []string{
				"Ja, durchgängig",
				"Ja, aber nur teilweise",
				AnswerAbroad,
				AnswerNoOwnFlat,
				"Nein, andere Gründe",
			},
			Validation: &Validation{Required: true},
			FollowUpLogic: []FollowUp{
				{Condition: AnswerAbroad, NextQuestionID: QAbroadPeriod, Keyword: abroadKeyword},
			},
			Purpose:        "Prüfung der Beitragspflicht",
			LegalRelevance: "Beitragspflicht besteht nur bei Wohnung in Deutschland",
		},
		{
			ID:             QAbroadPeriod,
			Question:       "Von wann bis wann waren Sie im Ausland? (Bitte genaue Daten)",
			Type:           TypeText,
			Validation:     &Validation{Required: true},
			Purpose:        "Zeitraum ohne Beitragspflicht ermitteln",
			LegalRelevance: "Befreiung für Auslandsaufenthalt möglich",
			followUpOnly:   true,
		},
		{
			ID:       QPreviousPayments,
			Question: "Haben Sie in der Vergangenheit bereits Rundfunkbeiträge gezahlt?",
			Type:     TypeChoice,
			Options: []string{
				"Ja, regelmäßig",
				"Ja, teilweise",
				"Nein, noch nie",
				"Weiß ich nicht",
			},
			Validation:     &Validation{Required: true},
			Purpose:        "Zahlungshistorie für Plausibilitätsprüfung",
			LegalRelevance: "Kann Kulanzregelung beeinflussen",
		},
		{
			ID:             QEmotionalState,
			Question:       "Wie würden Sie Ihre aktuelle emotionale Belastung durch diesen Fall einschätzen?",
			Type:           TypeScale,
			Validation:     &Validation{Required: false, Min: ptr(1), Max: ptr(10)},
			Purpose:        "Emotionale Verfassung für Beratungsansatz",
			LegalRelevance: "Keine direkte, aber wichtig für Betreuung",
		},
		{
			ID:             QConfidence,
			Question:       "Wie sicher sind Sie, dass die Forderung unberechtigt ist?",
			Type:           TypeScale,
			Validation:     &Validation{Required: true, Min: ptr(1), Max: ptr(10)},
			Purpose:        "Selbsteinschätzung der Erfolgsaussichten",
			LegalRelevance: "Beeinflusst Strategie (Widerspruch vs. Vergleich)",
		},
		{
			ID:       QSupportingEvid,
			Question: "Welche Nachweise können Sie zur Unterstützung Ihrer Position vorlegen?",
			Type:     TypeChoice,
			Options: []string{
				"Meldebescheinigung / Ummeldung",
				"Kontoauszüge (Zahlungen)",
				"Auslandsbescheinigung",
				"Arbeitsvertrag / Arbeitgeberbescheinigung",
				"ALG/Bürgergeld Bescheid",
				"Ärztliche Unterlagen",
				AnswerNoEvidence,
			},
			Validation:     &Validation{Required: true},
			Purpose:        "Beweismittel sammeln",
			LegalRelevance: "Zentral für Erfolg des Widerspruchs",
		},
	}
}

func amountQuestion(amount *float64) string {
	if amount == nil {
		return amountUnavailable
	}
	return "Wir haben aus Ihrem Dokument einen Betrag von " +
		strconv.FormatFloat(*amount, 'f', -1, 64) +
		" EUR extrahiert. Ist das korrekt?"
}

// Lookup finds a question by id.
func Lookup(questions []Question, id string) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
