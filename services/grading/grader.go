// Package grading scores quiz submissions. It is pure: no I/O, no clock, no errors.
package grading

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	MultipleChoice = "multiple_choice"
	MultipleAnswer = "multiple_answer"
	TrueFalse      = "true_false"
	ShortAnswer    = "short_answer"
)

const (
	MessageCorrect   = "Correct!"
	MessageIncorrect = "Incorrect"
	MessageNoAnswer  = "No answer provided"
)

// Question is the grading view of a quiz question. Correct holds option ids
// for the choice types and the accepted text for short_answer.
type Question struct {
	ID      uint
	Type    string
	Points  int
	Correct []string
}

type Feedback struct {
	Correct       bool     `json:"correct"`
	Message       string   `json:"message"`
	CorrectAnswer []string `json:"correct_answer,omitempty"`
}

type Result struct {
	Score        float64           `json:"score"`
	Passed       bool              `json:"passed"`
	EarnedPoints int               `json:"earned_points"`
	TotalPoints  int               `json:"total_points"`
	Feedback     map[uint]Feedback `json:"feedback"`
}

// Grade scores answers against questions. Answers are keyed by question id and
// hold values as decoded from JSON: a scalar (string, number, bool) or a list of scalars.
func Grade(questions []Question, answers map[uint]any, passingScore float64) Result {
	res := Result{Feedback: make(map[uint]Feedback, len(questions))}

	for _, q := range questions {
		points := q.Points
		if points < 0 {
			points = 0
		}
		res.TotalPoints += points

		raw, answered := answers[q.ID]
		if !answered || raw == nil {
			res.Feedback[q.ID] = Feedback{Message: MessageNoAnswer, CorrectAnswer: q.Correct}
			continue
		}

		if isCorrect(q, raw) {
			res.EarnedPoints += points
			res.Feedback[q.ID] = Feedback{Correct: true, Message: MessageCorrect}
			continue
		}
		res.Feedback[q.ID] = Feedback{Message: MessageIncorrect, CorrectAnswer: q.Correct}
	}

	if res.TotalPoints > 0 {
		res.Score = float64(res.EarnedPoints) / float64(res.TotalPoints) * 100
	}
	res.Passed = res.Score >= passingScore
	return res
}

func isCorrect(q Question, raw any) bool {
	switch q.Type {
	case MultipleChoice:
		v, ok := scalar(raw)
		return ok && contains(q.Correct, v)
	case MultipleAnswer:
		vals, ok := set(raw)
		return ok && sameSet(vals, q.Correct)
	case TrueFalse:
		v, ok := scalar(raw)
		return ok && len(q.Correct) > 0 && v == q.Correct[0]
	case ShortAnswer:
		v, ok := scalar(raw)
		if !ok || len(q.Correct) == 0 {
			return false
		}
		return normalizeText(v) == normalizeText(q.Correct[0])
	default:
		return false
	}
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// scalar reports the string form of a single answer value.
func scalar(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// set accepts a list of scalars, or a single scalar as a one-element set.
func set(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := scalar(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case []string:
		return v, true
	default:
		s, ok := scalar(raw)
		if !ok {
			return nil, false
		}
		return []string{s}, true
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) || len(as) == 0 {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}
