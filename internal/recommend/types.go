package recommend

type Type string

const (
	TypeWiderspruch Type = "widerspruch"
	TypeKlage       Type = "klage"
	TypeVergleich   Type = "vergleich"
	TypeAnwalt      Type = "anwalt"
	TypeAbwarten    Type = "abwarten"
)

// Recommendation is a course of action for the user, ranked by Confidence.
type Recommendation struct {
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Reasoning   []string `json:"reasoning"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	NextSteps   []string `json:"nextSteps"`
	Confidence  float64  `json:"confidence"`
	Order       int      `json:"order"`
}

// Input is the subset of the diligence report and session the engine reads.
type Input struct {
	SuccessProbability float64
	OverallScore       float64
	StressLevel        float64
}
