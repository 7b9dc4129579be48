package recommend

import (
	"fmt"
	"math"
	"sort"

	"gezy-backend/internal/diligence"
	"gezy-backend/internal/interview"
)

// Generate derives recommendations from a diligence report and the interview
// that produced it.
func Generate(report diligence.Report, session interview.Session) []Recommendation {
	return FromInput(Input{
		SuccessProbability: report.LegalAssessment.SuccessProbability,
		OverallScore:       report.OverallScore,
		StressLevel:        session.Sentiment.StressLevel,
	})
}

// FromInput is deterministic: the same input always yields the same ordered list.
// An empty list is a valid result.
func FromInput(in Input) []Recommendation {
	mappers := []func(Input) (Recommendation, bool){
		objection,
		lawyer,
		settlement,
	}
	out := make([]Recommendation, 0, len(mappers))
	for _, mapper := range mappers {
		if rec, ok := mapper(in); ok {
			out = append(out, rec)
		}
	}
	sortRecommendations(out)
	for i := range out {
		out[i].Order = i + 1
	}
	return out
}

func objection(in Input) (Recommendation, bool) {
	p := in.SuccessProbability
	if p <= 0.5 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        TypeWiderspruch,
		Title:       "Widerspruch einlegen",
		Description: "Schriftlichen Widerspruch gegen den Bescheid einreichen",
		Reasoning: []string{
			fmt.Sprintf("Erfolgswahrscheinlichkeit: %d%%", int(math.Round(p*100))),
			"Ihre Beweislage ist ausreichend stark",
			"Widerspruch ist kostenfrei",
		},
		Pros: []string{
			"Keine Kosten",
			"Suspensiveffekt (Forderung ruht)",
			"Chance auf vollständige Aufhebung",
		},
		Cons: []string{
			"Zeitaufwand",
			"Erfolg nicht garantiert",
			"Bei Ablehnung: Nächste Stufe ist Klage",
		},
		NextSteps: []string{
			"Widerspruch mit unserer Vorlage erstellen",
			"Alle Nachweise beifügen",
			"Einschreiben mit Rückschein versenden",
			"Frist notieren",
		},
		Confidence: p,
	}, true
}

func lawyer(in Input) (Recommendation, bool) {
	highStress := in.StressLevel > 7
	complex := in.SuccessProbability < 0.4
	difficult := in.OverallScore < 60
	if !highStress && !complex && !difficult {
		return Recommendation{}, false
	}

	reasoning := make([]string, 0, 3)
	if highStress {
		reasoning = append(reasoning, "Ihre emotionale Belastung ist hoch")
	}
	if complex {
		reasoning = append(reasoning, "Der Fall ist komplex")
	}
	if difficult {
		reasoning = append(reasoning, "Schwierige Ausgangslage")
	}

	confidence := 0.65
	if highStress {
		confidence = 0.85
	}
	return Recommendation{
		Type:        TypeAnwalt,
		Title:       "Anwalt konsultieren",
		Description: "Lassen Sie sich von einem Fachanwalt beraten",
		Reasoning:   reasoning,
		Pros: []string{
			"Professionelle Vertretung",
			"Höhere Erfolgschancen",
			"Kein eigener Zeitaufwand",
			"Ggf. Kostenübernahme durch Rechtsschutz",
		},
		Cons: []string{
			"Kosten (200-800 EUR)",
			"Termin erforderlich",
			"Nicht bei Bagatellfällen empfohlen",
		},
		NextSteps: []string{
			"Anwälte in Ihrer Nähe suchen",
			"Erstberatung vereinbaren",
			"Alle Unterlagen mitbringen",
			"Rechtsschutzversicherung prüfen",
		},
		Confidence: confidence,
	}, true
}

func settlement(in Input) (Recommendation, bool) {
	p := in.SuccessProbability
	if p < 0.3 || p >= 0.7 {
		return Recommendation{}, false
	}
	return Recommendation{
		Type:        TypeVergleich,
		Title:       "Vergleich vorschlagen",
		Description: "Kulanzregelung oder Ratenzahlung vereinbaren",
		Reasoning: []string{
			"Erfolgsaussichten sind unsicher",
			"Kompromisslösung kann Zeit und Kosten sparen",
			"Vermeidet langwierigen Rechtsstreit",
		},
		Pros: []string{
			"Schnelle Lösung",
			"Planungssicherheit",
			"Keine Gerichtskosten",
			"Oft Kulanzregelungen möglich",
		},
		Cons: []string{
			"Teilweise Zahlung wahrscheinlich",
			"Kein vollständiger Erfolg",
			"Präzedenzfall für künftige Fälle",
		},
		NextSteps: []string{
			"Kontakt zum Beitragsservice aufnehmen",
			"Vergleichsvorschlag unterbreiten",
			"Ratenzahlung beantragen",
			"Schriftlich bestätigen lassen",
		},
		Confidence: 0.70,
	}, true
}

func typeRank(t Type) int {
	switch t {
	case TypeWiderspruch:
		return 3
	case TypeAnwalt:
		return 2
	case TypeVergleich:
		return 1
	default:
		return 0
	}
}

// sortRecommendations orders by confidence, breaking ties by type.
func sortRecommendations(items []Recommendation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return typeRank(a.Type) > typeRank(b.Type)
	})
}
