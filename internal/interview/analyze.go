package interview

const (
	defaultConfidence  = 5.0
	defaultStress      = 5.0
	coherenceScore     = 0.85
	internalConsistent = 0.85
	temporalCoherence  = 0.75
	evidenceWeak       = 0.3
	evidenceStrong     = 0.8
)

const (
	SuggestConsistency = "Einige Angaben scheinen widersprüchlich. Bitte prüfen Sie Ihre Zeitangaben."
	SuggestEvidence    = "Ihre Aussagen weichen von den Dokumenten ab. Bitte laden Sie zusätzliche Nachweise hoch."
	SuggestTemporal    = "Die zeitliche Abfolge ist unklar. Bitte präzisieren Sie die Daten."
	SuggestOverconfid  = "Sie wirken sehr sicher, aber die Beweislage ist schwach. Erwägen Sie rechtliche Beratung."
)

// Analyze derives the sentiment and reality perception of a session from its
// responses. The input is not modified.
func Analyze(s Session) Session {
	out := s.clone()

	avg := averageConfidence(s.Responses)
	state := StateCalm
	if avg > 8 {
		state = StateConfident
	} else if avg < 4 {
		state = StateAnxious
	}

	stress := defaultStress
	if ans, ok := s.Answer(QEmotionalState); ok {
		if n, isNum := numberOf(ans); isNum {
			stress = clamp(n, 0, 10)
		}
	}

	out.Sentiment = SentimentAnalysis{
		EmotionalState: state,
		StressLevel:    stress,
		CoherenceScore: coherenceScore,
	}

	evidence := evidenceAlignment(s)
	suggestions := []string{}
	if internalConsistent < 0.7 {
		suggestions = append(suggestions, SuggestConsistency)
	}
	if evidence < 0.6 {
		suggestions = append(suggestions, SuggestEvidence)
	}
	if temporalCoherence < 0.5 {
		suggestions = append(suggestions, SuggestTemporal)
	}
	if avg > 8 && evidence < 0.5 {
		suggestions = append(suggestions, SuggestOverconfid)
	}

	out.Reality = RealityPerception{
		InternalConsistency: internalConsistent,
		EvidenceAlignment:   evidence,
		TemporalCoherence:   temporalCoherence,
		Suggestions:         suggestions,
	}
	return out
}

// averageConfidence averages every numeric q7 answer; 5 when there are none.
func averageConfidence(responses []Response) float64 {
	var sum float64
	var n int
	for _, r := range responses {
		if r.QuestionID != QConfidence {
			continue
		}
		if v, ok := numberOf(r.Answer); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return defaultConfidence
	}
	return sum / float64(n)
}

func evidenceAlignment(s Session) float64 {
	ans, ok := s.Answer(QSupportingEvid)
	if !ok || answerString(ans) == AnswerNoEvidence {
		return evidenceWeak
	}
	return evidenceStrong
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
