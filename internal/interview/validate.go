package interview

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ValidateAnswer checks an answer against the question type and returns it in
// its canonical form: string for text, choice and date, float64 for scale and
// number, bool for boolean.
func ValidateAnswer(q Question, answer any) (any, error) {
	required := q.Validation != nil && q.Validation.Required
	if isBlank(answer) {
		if required {
			return nil, fmt.Errorf("%w: %s requires an answer", ErrInvalidAnswer, q.ID)
		}
		return nil, nil
	}

	switch q.Type {
	case TypeBoolean:
		return toBool(q.ID, answer)
	case TypeScale, TypeNumber:
		n, err := toNumber(q.ID, answer)
		if err != nil {
			return nil, err
		}
		if v := q.Validation; v != nil {
			if v.Min != nil && n < *v.Min {
				return nil, fmt.Errorf("%w: %s must be at least %g", ErrInvalidAnswer, q.ID, *v.Min)
			}
			if v.Max != nil && n > *v.Max {
				return nil, fmt.Errorf("%w: %s must be at most %g", ErrInvalidAnswer, q.ID, *v.Max)
			}
		}
		return n, nil
	case TypeChoice:
		s, ok := answer.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects one of the offered options", ErrInvalidAnswer, q.ID)
		}
		for _, opt := range q.Options {
			if s == opt {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not an option of %s", ErrInvalidAnswer, s, q.ID)
	case TypeDate:
		s, ok := answer.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a date", ErrInvalidAnswer, q.ID)
		}
		s = strings.TrimSpace(s)
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, fmt.Errorf("%w: %s expects YYYY-MM-DD", ErrInvalidAnswer, q.ID)
		}
		return s, nil
	default:
		s, ok := answer.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects text", ErrInvalidAnswer, q.ID)
		}
		if q.Validation != nil && q.Validation.Pattern != "" {
			if ok, err := regexp.MatchString(q.Validation.Pattern, s); err != nil || !ok {
				return nil, fmt.Errorf("%w: %s has an unexpected format", ErrInvalidAnswer, q.ID)
			}
		}
		return strings.TrimSpace(s), nil
	}
}

func isBlank(answer any) bool {
	switch v := answer.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

func toBool(id string, answer any) (bool, error) {
	switch v := answer.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "ja":
			return true, nil
		case "false", "nein":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %s expects yes or no", ErrInvalidAnswer, id)
}

func toNumber(id string, answer any) (float64, error) {
	var n float64
	switch v := answer.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, ",", ".")), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s expects a number", ErrInvalidAnswer, id)
		}
		n = f
	default:
		return 0, fmt.Errorf("%w: %s expects a number", ErrInvalidAnswer, id)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %s expects a finite number", ErrInvalidAnswer, id)
	}
	return n, nil
}

// numberOf reads a stored answer as a number, reporting whether it was one.
func numberOf(answer any) (float64, bool) {
	n, err := toNumber("", answer)
	return n, err == nil
}

func answerString(answer any) string {
	switch v := answer.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
