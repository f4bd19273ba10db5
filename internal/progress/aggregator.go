// Package progress derives per-student summary statistics and the leaderboard
// from attempt history.
package progress

import (
	"sort"

	"github.com/bsfellows/cbt-backend/internal/exam"
	"github.com/bsfellows/cbt-backend/internal/grading"
)

// Standing is one leaderboard row.
type Standing struct {
	StudentID         string  `json:"student_id"`
	FullName          string  `json:"full_name"`
	MatricNumber      string  `json:"matric_number"`
	AverageScore      float64 `json:"average_score"` // mean percentage over graded attempts
	TotalExamsTaken   int     `json:"total_exams_taken"`
	TotalPointsEarned float64 `json:"total_points_earned"`
	Rank              int     `json:"rank"`
}

// Unranked is the rank reported for a student absent from the board.
const Unranked = 0

// BuildLeaderboard aggregates attempts per student and orders the board by
// descending average score, ties broken by student ID so the ordering is
// stable. Only graded attempts count toward the average; total_exams_taken
// counts attempts in every status. Students with no graded attempts stay on
// the board with average 0.
func BuildLeaderboard(students []exam.Profile, attempts []exam.Attempt) []Standing {
	byStudent := make(map[string]*Standing, len(students))
	order := make([]string, 0, len(students))
	for _, p := range students {
		byStudent[p.ID] = &Standing{StudentID: p.ID, FullName: p.FullName, MatricNumber: p.MatricNumber}
		order = append(order, p.ID)
	}

	graded := make(map[string]int, len(students))
	for _, a := range attempts {
		st, ok := byStudent[a.StudentID]
		if !ok {
			continue
		}
		st.TotalExamsTaken++
		if a.Status != exam.StatusGraded {
			continue
		}
		graded[a.StudentID]++
		st.AverageScore += grading.Percentage(a.Score, a.TotalPoints)
		st.TotalPointsEarned += a.Score
	}

	board := make([]Standing, 0, len(order))
	for _, id := range order {
		st := byStudent[id]
		if n := graded[id]; n > 0 {
			st.AverageScore /= float64(n)
		}
		board = append(board, *st)
	}
	sort.SliceStable(board, func(i, j int) bool {
		if board[i].AverageScore != board[j].AverageScore {
			return board[i].AverageScore > board[j].AverageScore
		}
		return board[i].StudentID < board[j].StudentID
	})
	for i := range board {
		board[i].Rank = i + 1
	}
	return board
}

// RankOf returns a student's rank on the board, or Unranked if absent.
func RankOf(board []Standing, studentID string) int {
	for _, st := range board {
		if st.StudentID == studentID {
			return st.Rank
		}
	}
	return Unranked
}

// Top truncates the board to at most limit entries; limit <= 0 means all.
func Top(board []Standing, limit int) []Standing {
	if limit <= 0 || limit >= len(board) {
		return board
	}
	return board[:limit]
}
