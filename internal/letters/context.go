package letters

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gezy-backend/internal/diligence"
	"gezy-backend/internal/extract"
	"gezy-backend/internal/interview"
)

// Context is the closed set of values a template can reference. Every field
// maps to exactly one {{key}}; templates naming anything else fail to load.
type Context struct {
	UserName    string
	UserEmail   string
	UserAddress string

	Issuer       string
	DocumentType string
	Amount       string
	Currency     string
	IssueDate    string
	DueDate      string
	CaseNumber   string

	DocumentReceived string
	LivingSituation  string
	AbroadPeriod     string
	PreviousPayments string
	Evidence         string

	SuccessProbability float64
	Consistency        float64
	EvidenceAlignment  float64
	EstimatedDuration  string
	RequiredDocuments  []string
	EmotionalState     string

	HasUrgentDeadline bool
	HasHighAmount     bool
}

// NewContext gathers the letter inputs from the notice, the interview, the
// diligence report and the sender profile.
func NewContext(data extract.Data, session interview.Session, report diligence.Report, user Profile) Context {
	address := user.Address
	if strings.TrimSpace(address) == "" {
		address = "N/A"
	}
	currency := data.Currency
	if currency == "" {
		currency = "EUR"
	}
	amount := ""
	if data.Amount != nil {
		amount = strconv.FormatFloat(*data.Amount, 'f', -1, 64)
	}

	return Context{
		UserName:    user.Name,
		UserEmail:   user.Email,
		UserAddress: address,

		Issuer:       data.Issuer,
		DocumentType: data.DocumentType,
		Amount:       amount,
		Currency:     currency,
		IssueDate:    data.IssueDate,
		DueDate:      data.DueDate,
		CaseNumber:   data.CaseNumber,

		DocumentReceived: session.AnswerText(interview.QTimeline),
		LivingSituation:  session.AnswerText(interview.QLivingSituation),
		AbroadPeriod:     session.AnswerText(interview.QAbroadPeriod),
		PreviousPayments: session.AnswerText(interview.QPreviousPayments),
		Evidence:         session.AnswerText(interview.QSupportingEvid),

		SuccessProbability: report.LegalAssessment.SuccessProbability,
		Consistency:        session.Reality.InternalConsistency,
		EvidenceAlignment:  session.Reality.EvidenceAlignment,
		EstimatedDuration:  report.LegalAssessment.EstimatedDuration,
		RequiredDocuments:  report.LegalAssessment.RequiredDocuments,
		EmotionalState:     string(session.Sentiment.EmotionalState),

		HasUrgentDeadline: hasFlagType(data.Flags, extract.FlagError),
		HasHighAmount:     hasFlagField(data.Flags, "amount"),
	}
}

func hasFlagType(flags []extract.Flag, t extract.FlagType) bool {
	for _, f := range flags {
		if f.Type == t {
			return true
		}
	}
	return false
}

func hasFlagField(flags []extract.Flag, field string) bool {
	for _, f := range flags {
		if f.Field == field {
			return true
		}
	}
	return false
}

// valueKeys and conditionKeys are the template schema.
var valueKeys = []string{
	"userName", "userEmail", "userAddress",
	"issuer", "documentType", "amount", "currency", "issueDate", "dueDate", "caseNumber",
	"documentReceived", "livingSituation", "abroadPeriod", "previousPayments", "evidence",
	"successProbability", "estimatedDuration", "requiredDocuments", "emotionalState",
	"reasoningBlock", "evidenceList", "attachmentsList",
}

var conditionKeys = []string{"hasEvidence", "hasAbroadPeriod", "hasUrgentDeadline", "hasHighAmount"}

// Values renders every template key, including the derived text blocks.
func (c Context) Values() map[string]string {
	return map[string]string{
		"userName":           c.UserName,
		"userEmail":          c.UserEmail,
		"userAddress":        c.UserAddress,
		"issuer":             c.Issuer,
		"documentType":       c.DocumentType,
		"amount":             c.Amount,
		"currency":           c.Currency,
		"issueDate":          c.IssueDate,
		"dueDate":            c.DueDate,
		"caseNumber":         c.CaseNumber,
		"documentReceived":   c.DocumentReceived,
		"livingSituation":    c.LivingSituation,
		"abroadPeriod":       c.AbroadPeriod,
		"previousPayments":   c.PreviousPayments,
		"evidence":           c.Evidence,
		"successProbability": percent(c.SuccessProbability),
		"estimatedDuration":  c.EstimatedDuration,
		"requiredDocuments":  bulletList(c.RequiredDocuments),
		"emotionalState":     c.EmotionalState,
		"reasoningBlock":     c.ReasoningBlock(),
		"evidenceList":       c.EvidenceList(),
		"attachmentsList":    c.AttachmentsList(),
	}
}

// Condition evaluates a named predicate. Names are validated at template load.
func (c Context) Condition(name string) bool {
	switch name {
	case "hasEvidence":
		return c.hasEvidence()
	case "hasAbroadPeriod":
		return c.AbroadPeriod != ""
	case "hasUrgentDeadline":
		return c.HasUrgentDeadline
	case "hasHighAmount":
		return c.HasHighAmount
	default:
		return true
	}
}

func (c Context) hasEvidence() bool {
	return c.Evidence != "" && c.Evidence != interview.AnswerNoEvidence
}

// ReasoningBlock lists the grounds of the objection; numbering follows the
// fixed ground it refers to.
func (c Context) ReasoningBlock() string {
	var reasons []string
	if strings.Contains(c.LivingSituation, "Ausland") {
		period := c.AbroadPeriod
		if period == "" {
			period = "befand ich mich im Ausland"
		}
		reasons = append(reasons, "1. Im genannten Zeitraum "+period+" und hatte keine Wohnung in Deutschland. Gemäß § 2 Abs. 1 RBStV besteht daher keine Beitragspflicht.")
	}
	if strings.Contains(c.LivingSituation, "keine eigene Wohnung") {
		reasons = append(reasons, "2. Ich hatte im genannten Zeitraum keine eigene Wohnung und war somit nicht beitragspflichtig.")
	}
	if c.PreviousPayments == "Nein, noch nie" {
		reasons = append(reasons, "3. Ich habe zu keinem Zeitpunkt Rundfunkbeiträge entrichtet, da mir keine Beitragspflicht bekannt war und keine entsprechende Wohnsituation vorlag.")
	}
	if c.HasHighAmount {
		reasons = append(reasons, fmt.Sprintf("4. Der geforderte Betrag von %s %s erscheint unverhältnismäßig hoch und bedarf einer detaillierten Aufschlüsselung.", c.Amount, c.Currency))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Die Forderung ist sachlich und rechtlich nicht nachvollziehbar. Eine detaillierte Prüfung der Unterlagen ergibt, dass keine Zahlungsverpflichtung besteht.")
	}
	return strings.Join(reasons, "\n\n")
}

// EvidenceList numbers the comma-separated evidence items.
func (c Context) EvidenceList() string {
	if !c.hasEvidence() {
		return "Weitere Nachweise reiche ich nach Aufforderung nach."
	}
	items := strings.Split(c.Evidence, ",")
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(item)))
	}
	return strings.Join(lines, "\n")
}

func (c Context) AttachmentsList() string {
	var out []string
	if c.hasEvidence() {
		if strings.Contains(c.Evidence, "Meldebescheinigung") {
			out = append(out, "- Meldebescheinigung")
		}
		if strings.Contains(c.Evidence, "Auslandsbescheinigung") {
			out = append(out, "- Nachweis über Auslandsaufenthalt")
		}
		if strings.Contains(c.Evidence, "Kontoauszüge") {
			out = append(out, "- Kontoauszüge")
		}
	}
	if len(out) == 0 {
		out = append(out, "- Kopie des Bescheids")
	}
	return strings.Join(out, "\n")
}

func percent(v float64) string {
	return strconv.Itoa(int(math.Round(v*100))) + "%"
}

func bulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}
