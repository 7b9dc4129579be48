package recommend

import (
	"reflect"
	"testing"

	"gezy-backend/internal/diligence"
	"gezy-backend/internal/interview"
)

func types(recs []Recommendation) []Type {
	out := make([]Type, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Type)
	}
	return out
}

func TestFromInputSettlementOutranksObjection(t *testing.T) {
	recs := FromInput(Input{SuccessProbability: 0.55, OverallScore: 70, StressLevel: 5})
	if got := types(recs); !reflect.DeepEqual(got, []Type{TypeVergleich, TypeWiderspruch}) {
		t.Fatalf("unexpected order %v", got)
	}
	if recs[0].Confidence != 0.70 || recs[1].Confidence != 0.55 {
		t.Fatalf("unexpected confidences %v / %v", recs[0].Confidence, recs[1].Confidence)
	}
	if recs[0].Order != 1 || recs[1].Order != 2 {
		t.Fatalf("unexpected order fields")
	}
	if recs[1].Reasoning[0] != "Erfolgswahrscheinlichkeit: 55%" {
		t.Fatalf("unexpected reasoning %q", recs[1].Reasoning[0])
	}
}

func TestFromInputInclusionRules(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want []Type
	}{
		{"strong case", Input{SuccessProbability: 0.8, OverallScore: 85, StressLevel: 3}, []Type{TypeWiderspruch}},
		{"midpoint settles", Input{SuccessProbability: 0.5, OverallScore: 60, StressLevel: 7}, []Type{TypeVergleich}},
		{"weak case", Input{SuccessProbability: 0.2, OverallScore: 40, StressLevel: 2}, []Type{TypeAnwalt}},
		{"stressed strong case", Input{SuccessProbability: 0.9, OverallScore: 90, StressLevel: 9}, []Type{TypeWiderspruch, TypeAnwalt}},
		{"upper settlement bound", Input{SuccessProbability: 0.7, OverallScore: 80, StressLevel: 1}, []Type{TypeWiderspruch}},
		{"lower settlement bound", Input{SuccessProbability: 0.3, OverallScore: 80, StressLevel: 1}, []Type{TypeVergleich, TypeAnwalt}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := types(FromInput(tc.in)); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestLawyerReasoningListsOnlyTriggeredReasons(t *testing.T) {
	recs := FromInput(Input{SuccessProbability: 0.9, OverallScore: 50, StressLevel: 8})
	var lawyerRec Recommendation
	for _, r := range recs {
		if r.Type == TypeAnwalt {
			lawyerRec = r
		}
	}
	want := []string{"Ihre emotionale Belastung ist hoch", "Schwierige Ausgangslage"}
	if !reflect.DeepEqual(lawyerRec.Reasoning, want) {
		t.Fatalf("got %v", lawyerRec.Reasoning)
	}
	if lawyerRec.Confidence != 0.85 {
		t.Fatalf("expected 0.85, got %v", lawyerRec.Confidence)
	}
}

func TestFromInputIsDeterministic(t *testing.T) {
	in := Input{SuccessProbability: 0.35, OverallScore: 55, StressLevel: 8}
	if !reflect.DeepEqual(FromInput(in), FromInput(in)) {
		t.Fatalf("expected deterministic output")
	}
}

func TestGenerateReadsReportAndSession(t *testing.T) {
	report := diligence.Report{OverallScore: 50}
	report.LegalAssessment.SuccessProbability = 0.9
	session := interview.Session{Sentiment: interview.SentimentAnalysis{StressLevel: 2}}
	got := types(Generate(report, session))
	if !reflect.DeepEqual(got, []Type{TypeWiderspruch, TypeAnwalt}) {
		t.Fatalf("got %v", got)
	}
}
