package diligence

type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
	StatusInfo    Status = "info"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Check struct {
	Name    string  `json:"name"`
	Status  Status  `json:"status"`
	Score   float64 `json:"score"`
	Message string  `json:"message"`
	Details string  `json:"details,omitempty"`
}

type ActionItem struct {
	Priority  Priority `json:"priority"`
	Action    string   `json:"action"`
	Reasoning string   `json:"reasoning"`
}

type Cost struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type LegalAssessment struct {
	SuccessProbability float64  `json:"successProbability"`
	EstimatedDuration  string   `json:"estimatedDuration"`
	RequiredDocuments  []string `json:"requiredDocuments"`
	EstimatedCost      Cost     `json:"estimatedCost"`
}

// Report is the structured risk assessment of a case. OverallScore is the
// unweighted mean of the check scores.
type Report struct {
	OverallScore    float64         `json:"overallScore"`
	Checks          []Check         `json:"checks"`
	Recommendations []ActionItem    `json:"recommendations"`
	LegalAssessment LegalAssessment `json:"legalAssessment"`

	// DaysUntilDeadline is nil when the notice carried no due date.
	DaysUntilDeadline *int `json:"daysUntilDeadline,omitempty"`
}

// Check returns the named check.
func (r Report) Check(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}
