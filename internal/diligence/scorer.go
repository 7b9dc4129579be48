package diligence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gezy-backend/internal/extract"
	"gezy-backend/internal/interview"
	"gezy-backend/internal/shared/telemetry"
)

const (
	CheckDeadline     = "Frist-Check"
	CheckAmount       = "Betragsprüfung"
	CheckAuthenticity = "Dokumenten-Authentizität"
	CheckEvidence     = "Beweislage"
	CheckConsistency  = "Aussagenkonsistenz"
	CheckEmotional    = "Emotionale Belastung"
)

const (
	ActionImmediateObjection = "Sofortiger Widerspruch erforderlich"
	ActionGatherEvidence     = "Zusätzliche Nachweise beschaffen"
	ActionConsultLawyer      = "Anwalt konsultieren"
)

const (
	weightOverall     = 0.4
	weightEvidence    = 0.4
	weightConsistency = 0.2
	plausibleMaxEUR   = 2000
)

// Scorer evaluates an extracted notice together with a completed interview.
type Scorer struct {
	Now func() time.Time
}

func NewScorer() *Scorer {
	return &Scorer{Now: time.Now}
}

// Score runs the checks in fixed order and derives the legal assessment.
// userID is used for logging only.
func (s *Scorer) Score(data extract.Data, session interview.Session, userID string) Report {
	now := time.Now
	if s != nil && s.Now != nil {
		now = s.Now
	}

	var (
		checks  []Check
		actions []ActionItem
		days    *int
	)

	if due, ok := extract.ParseISODate(data.DueDate); ok {
		d := DaysUntil(due, now())
		days = &d
		checks = append(checks, deadlineCheck(d, due))
		if d < 7 {
			actions = append(actions, ActionItem{
				Priority:  PriorityHigh,
				Action:    ActionImmediateObjection,
				Reasoning: "Die Widerspruchsfrist läuft in weniger als 7 Tagen ab",
			})
		}
	}

	if data.Amount != nil {
		checks = append(checks, amountCheck(*data.Amount))
	}

	authenticity := data.Confidence.Overall * 100
	checks = append(checks, Check{
		Name:    CheckAuthenticity,
		Status:  passIf(authenticity > 80),
		Score:   authenticity,
		Message: fmt.Sprintf("OCR-Konfidenz: %d%%", int(math.Round(authenticity))),
		Details: "Hohe Konfidenz deutet auf authentisches Dokument hin",
	})

	evidence := session.Reality.EvidenceAlignment * 100
	checks = append(checks, evidenceCheck(evidence))
	if evidence < 60 {
		actions = append(actions, ActionItem{
			Priority:  PriorityHigh,
			Action:    ActionGatherEvidence,
			Reasoning: "Ihre aktuelle Beweislage ist zu schwach",
		})
	}

	consistency := session.Reality.InternalConsistency * 100
	checks = append(checks, Check{
		Name:    CheckConsistency,
		Status:  passIf(consistency > 80),
		Score:   consistency,
		Message: pick(consistency > 80, "Ihre Angaben sind konsistent", "Einige Angaben widersprechen sich"),
		Details: "Widersprüche können Fall schwächen",
	})

	stress := session.Sentiment.StressLevel
	checks = append(checks, Check{
		Name:    CheckEmotional,
		Status:  passIf(stress < 7),
		Score:   math.Max(0, 100-stress*10),
		Message: pick(stress < 7, "Belastung im normalen Bereich", "Hohe emotionale Belastung"),
		Details: "Bei hoher Belastung: Erwägen Sie professionelle Unterstützung",
	})
	if stress > 7 {
		actions = append(actions, ActionItem{
			Priority:  PriorityMedium,
			Action:    ActionConsultLawyer,
			Reasoning: "Hohe Stressbelastung - lassen Sie sich professionell vertreten",
		})
	}

	overall := mean(checks)
	probability := SuccessProbability(overall, evidence, consistency)

	duration := "2-6 Wochen"
	if days != nil && *days < 14 {
		duration = "1-2 Wochen (eilig)"
	}
	cost := Cost{Min: 200, Max: 800, Currency: "EUR"}
	if probability > 0.7 {
		cost = Cost{Min: 0, Max: 50, Currency: "EUR"}
	}
	if actions == nil {
		actions = []ActionItem{}
	}

	report := Report{
		OverallScore:    overall,
		Checks:          checks,
		Recommendations: actions,
		LegalAssessment: LegalAssessment{
			SuccessProbability: probability,
			EstimatedDuration:  duration,
			RequiredDocuments:  RequiredDocuments(session),
			EstimatedCost:      cost,
		},
		DaysUntilDeadline: days,
	}

	telemetry.Info("diligence.scored", map[string]any{
		"user_id":             userID,
		"case_id":             session.CaseID,
		"overall_score":       math.Round(overall*10) / 10,
		"success_probability": math.Round(probability*100) / 100,
		"checks":              len(checks),
	})
	return report
}

// DaysUntil is the whole number of days from now to due, rounded up.
func DaysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// SuccessProbability is the weighted score (0.4 overall, 0.4 evidence,
// 0.2 consistency) scaled to [0, 1].
func SuccessProbability(overall, evidence, consistency float64) float64 {
	p := (overall*weightOverall + evidence*weightEvidence + consistency*weightConsistency) / 100
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(1, p))
}

// RequiredDocuments lists the papers an objection needs given the living situation.
func RequiredDocuments(session interview.Session) []string {
	docs := []string{"Kopie des Bescheids"}
	living := session.AnswerText(interview.QLivingSituation)
	if strings.Contains(living, "Ausland") {
		docs = append(docs, "Auslandsbescheinigung", "Meldebescheinigung")
	}
	if strings.Contains(living, "keine eigene Wohnung") {
		docs = append(docs, "Mietvertrag oder Meldebestätigung")
	}
	return append(docs, "Identitätsnachweis (Personalausweis-Kopie)")
}

func deadlineCheck(days int, due time.Time) Check {
	switch {
	case days < 7:
		return Check{
			Name:    CheckDeadline,
			Status:  StatusFail,
			Score:   20,
			Message: fmt.Sprintf("DRINGEND: Nur noch %d Tage bis zur Frist!", days),
			Details: "Widerspruch muss spätestens bis zum " + due.Format("2.1.2006"),
		}
	case days < 14:
		return Check{
			Name:    CheckDeadline,
			Status:  StatusWarning,
			Score:   60,
			Message: fmt.Sprintf("Noch %d Tage bis zur Frist", days),
			Details: "Handeln Sie zeitnah",
		}
	default:
		return Check{
			Name:    CheckDeadline,
			Status:  StatusPass,
			Score:   100,
			Message: fmt.Sprintf("Ausreichend Zeit: %d Tage", days),
			Details: "Sie können in Ruhe vorbereiten",
		}
	}
}

func amountCheck(amount float64) Check {
	plausible := amount > 0 && amount < plausibleMaxEUR
	formatted := strconv.FormatFloat(amount, 'f', -1, 64)
	c := Check{
		Name:    CheckAmount,
		Status:  StatusPass,
		Score:   100,
		Message: "Betrag " + formatted + " EUR liegt im üblichen Rahmen",
		Details: "Typische Rundfunkbeiträge: 18,36€/Monat, max. ~600€ Nachforderung",
	}
	if !plausible {
		c.Status = StatusWarning
		c.Score = 50
		c.Message = "Betrag " + formatted + " EUR erscheint ungewöhnlich"
	}
	return c
}

func evidenceCheck(score float64) Check {
	c := Check{Name: CheckEvidence, Score: score, Details: "Nachweise sind entscheidend für Erfolg"}
	switch {
	case score > 70:
		c.Status, c.Message = StatusPass, "Starke Beweislage"
	case score >= 40:
		c.Status, c.Message = StatusWarning, "Mittelmäßige Beweislage"
	default:
		c.Status, c.Message = StatusFail, "Schwache Beweislage"
	}
	return c
}

func mean(checks []Check) float64 {
	if len(checks) == 0 {
		return 0
	}
	var sum float64
	for _, c := range checks {
		sum += c.Score
	}
	return sum / float64(len(checks))
}

func passIf(ok bool) Status {
	if ok {
		return StatusPass
	}
	return StatusWarning
}

func pick(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
