package grading

import "strings"

// Q is the minimal view of a question needed for grading.
type Q struct {
	ID        string
	Type      string
	Points    float64
	AnswerKey string
}

// Result is the outcome of grading a single question response.
type Result struct {
	AutoPoints  float64 // points awarded automatically
	MaxPoints   float64 // the question's max points
	NeedsManual bool    // true if admin review is required
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q Q, response string) Result
}

// Grader routes by question type to the correct Strategy.
type Grader struct {
	strategies map[string]Strategy
}

// NewGrader installs the built-in strategies. All objective types are scored
// by case-insensitive full-string comparison against the answer key; essays
// always require manual grading.
func NewGrader() *Grader {
	exact := exactMatchStrategy{}
	return &Grader{
		strategies: map[string]Strategy{
			"multiple_choice": exact,
			"true_false":      exact,
			"fill_in_gap":     exact,
			"essay":           essayStrategy{},
		},
	}
}

func (g *Grader) Grade(q Q, response string) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		// Unknown types fall back to manual review rather than silently
		// scoring zero.
		return Result{MaxPoints: q.Points, NeedsManual: true}
	}
	return s.Grade(q, response)
}

type exactMatchStrategy struct{}

func (exactMatchStrategy) Grade(q Q, response string) Result {
	res := Result{MaxPoints: q.Points}
	if response != "" && strings.EqualFold(response, q.AnswerKey) {
		res.AutoPoints = q.Points
	}
	return res
}

type essayStrategy struct{}

func (essayStrategy) Grade(q Q, _ string) Result {
	return Result{MaxPoints: q.Points, NeedsManual: true}
}
