package interview

import (
	"strings"

	"gezy-backend/internal/extract"
)

// NextQuestionID returns the question that follows currentID given its answer.
// Follow-up questions are inserted directly after the question that triggers them;
// otherwise they are skipped. ok is false once the catalogue is exhausted.
func NextQuestionID(currentID string, answer any) (string, bool) {
	return nextIn(Generate(extract.Data{}, ""), currentID, answer)
}

func nextIn(questions []Question, currentID string, answer any) (string, bool) {
	idx := -1
	for i, q := range questions {
		if q.ID == currentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}

	text := answerString(answer)
	for _, f := range questions[idx].FollowUpLogic {
		if matchesFollowUp(f, text) {
			return f.NextQuestionID, true
		}
	}
	for _, q := range questions[idx+1:] {
		if !q.followUpOnly {
			return q.ID, true
		}
	}
	return "", false
}

func matchesFollowUp(f FollowUp, answer string) bool {
	if f.Keyword != "" {
		return strings.Contains(answer, f.Keyword)
	}
	return answer == f.Condition
}

// Flow lists the questions the user walks through given the answers so far,
// ending with the next unanswered question if any.
func Flow(questions []Question, responses []Response) []Question {
	if len(questions) == 0 {
		return nil
	}
	answers := make(map[string]any, len(responses))
	for _, r := range responses {
		answers[r.QuestionID] = r.Answer
	}

	var out []Question
	current := questions[0]
	for {
		out = append(out, current)
		ans, answered := answers[current.ID]
		if !answered {
			return out
		}
		nextID, ok := nextIn(questions, current.ID, ans)
		if !ok {
			return out
		}
		next, found := Lookup(questions, nextID)
		if !found {
			return out
		}
		current = next
	}
}

// Pending returns the next question to answer, or false when the flow is done.
func Pending(questions []Question, responses []Response) (Question, bool) {
	flow := Flow(questions, responses)
	if len(flow) == 0 {
		return Question{}, false
	}
	last := flow[len(flow)-1]
	for _, r := range responses {
		if r.QuestionID == last.ID {
			return Question{}, false
		}
	}
	return last, true
}
