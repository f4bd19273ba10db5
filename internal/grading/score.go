package grading

import (
	"errors"
	"fmt"
)

var ErrInvalidEssayScore = errors.New("essay score out of range")

// Objective holds the automatic part of an attempt's score.
type Objective struct {
	Score       float64
	TotalPoints float64
	HasEssay    bool
}

// ScoreObjective computes the automatic score over the questions presented to
// an attempt. Essay questions contribute zero here and flag the attempt for
// manual grading.
func (g *Grader) ScoreObjective(qs []Q, answers map[string]string) Objective {
	var out Objective
	for _, q := range qs {
		res := g.Grade(q, answers[q.ID])
		out.TotalPoints += res.MaxPoints
		out.Score += res.AutoPoints
		if res.NeedsManual {
			out.HasEssay = true
		}
	}
	return out
}

// MergeEssayGrades folds admin-assigned essay scores into an attempt's
// objective score. Every entry must target an essay question from qs and lie
// within [0, points]; any violation rejects the whole merge.
func MergeEssayGrades(objectiveScore float64, qs []Q, essayScores map[string]float64) (float64, error) {
	byID := make(map[string]Q, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	final := objectiveScore
	for qid, s := range essayScores {
		q, ok := byID[qid]
		if !ok || q.Type != "essay" {
			return 0, fmt.Errorf("%w: %q is not an essay question of this attempt", ErrInvalidEssayScore, qid)
		}
		if s < 0 || s > q.Points {
			return 0, fmt.Errorf("%w: %v for question %q (max %v)", ErrInvalidEssayScore, s, qid, q.Points)
		}
		final += s
	}
	return final, nil
}

// Percentage normalizes a stored score/total pair into a 0-100 display value.
// Historically some attempts stored score as raw points and some as a
// precomputed percentage; the score > total && score <= 100 branch keeps both
// conventions readable and must not change for existing data.
func Percentage(score, totalPoints float64) float64 {
	if totalPoints > 0 {
		if score > totalPoints && score <= 100 {
			return score
		}
		return score / totalPoints * 100
	}
	return score
}

// Passed reports whether a normalized percentage meets the exam's bar.
func Passed(percentage, passingScore float64) bool {
	return percentage >= passingScore
}
