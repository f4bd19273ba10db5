package progress

import (
	"testing"

	"github.com/bsfellows/cbt-backend/internal/exam"
)

func student(id, name, matric string) exam.Profile {
	return exam.Profile{ID: id, FullName: name, MatricNumber: matric, Role: "student"}
}

func gradedAttempt(studentID string, score, total float64) exam.Attempt {
	return exam.Attempt{StudentID: studentID, Status: exam.StatusGraded, Score: score, TotalPoints: total}
}

func TestBuildLeaderboard_OrderingAndAverages(t *testing.T) {
	students := []exam.Profile{
		student("s1", "Ada Obi", "BSF/001"),
		student("s2", "Bola Ade", "BSF/002"),
		student("s3", "Chidi Eze", "BSF/003"),
	}
	attempts := []exam.Attempt{
		gradedAttempt("s1", 8, 10),  // 80
		gradedAttempt("s1", 6, 10),  // 60 -> avg 70
		gradedAttempt("s2", 9, 10),  // 90
		gradedAttempt("s3", 5, 10),  // 50
		{StudentID: "s3", Status: exam.StatusSubmitted, Score: 10, TotalPoints: 10}, // counts taken, not average
	}

	board := BuildLeaderboard(students, attempts)
	if len(board) != 3 {
		t.Fatalf("board has %d rows, want 3", len(board))
	}
	wantOrder := []string{"s2", "s1", "s3"}
	for i, id := range wantOrder {
		if board[i].StudentID != id {
			t.Fatalf("rank %d is %s, want %s", i+1, board[i].StudentID, id)
		}
		if board[i].Rank != i+1 {
			t.Fatalf("row %d rank = %d", i, board[i].Rank)
		}
	}
	if board[1].AverageScore != 70 {
		t.Fatalf("s1 average = %v, want 70", board[1].AverageScore)
	}
	if board[2].TotalExamsTaken != 2 {
		t.Fatalf("s3 exams taken = %d, want 2 (submitted counts)", board[2].TotalExamsTaken)
	}
	if board[2].AverageScore != 50 {
		t.Fatalf("s3 average = %v, want 50 (submitted excluded)", board[2].AverageScore)
	}
	if board[1].TotalPointsEarned != 14 {
		t.Fatalf("s1 points earned = %v, want 14", board[1].TotalPointsEarned)
	}
}

func TestBuildLeaderboard_TiesBreakByStudentID(t *testing.T) {
	students := []exam.Profile{
		student("s2", "B", "2"),
		student("s1", "A", "1"),
	}
	attempts := []exam.Attempt{
		gradedAttempt("s1", 7, 10),
		gradedAttempt("s2", 7, 10),
	}
	board := BuildLeaderboard(students, attempts)
	if board[0].StudentID != "s1" || board[1].StudentID != "s2" {
		t.Fatalf("tie order wrong: %s, %s", board[0].StudentID, board[1].StudentID)
	}
}

func TestBuildLeaderboard_NoGradedAttemptsStaysWithZero(t *testing.T) {
	students := []exam.Profile{
		student("s1", "A", "1"),
		student("s2", "B", "2"),
	}
	attempts := []exam.Attempt{
		gradedAttempt("s1", 5, 10),
		{StudentID: "s2", Status: exam.StatusInProgress},
	}
	board := BuildLeaderboard(students, attempts)
	if len(board) != 2 {
		t.Fatalf("board has %d rows, want 2", len(board))
	}
	last := board[1]
	if last.StudentID != "s2" || last.AverageScore != 0 {
		t.Fatalf("s2 row wrong: %+v", last)
	}
	if last.TotalExamsTaken != 1 {
		t.Fatalf("s2 exams taken = %d, want 1", last.TotalExamsTaken)
	}
}

func TestBuildLeaderboard_LegacyPercentageScores(t *testing.T) {
	students := []exam.Profile{student("s1", "A", "1")}
	// Score stored as a precomputed percentage greater than total.
	attempts := []exam.Attempt{gradedAttempt("s1", 85, 50)}
	board := BuildLeaderboard(students, attempts)
	if board[0].AverageScore != 85 {
		t.Fatalf("average = %v, want 85 (score already a percentage)", board[0].AverageScore)
	}
}

func TestBuildLeaderboard_IgnoresUnknownStudents(t *testing.T) {
	students := []exam.Profile{student("s1", "A", "1")}
	attempts := []exam.Attempt{
		gradedAttempt("s1", 5, 10),
		gradedAttempt("ghost", 10, 10),
	}
	board := BuildLeaderboard(students, attempts)
	if len(board) != 1 {
		t.Fatalf("board has %d rows, want 1", len(board))
	}
}

func TestRankOf(t *testing.T) {
	board := []Standing{
		{StudentID: "s1", Rank: 1},
		{StudentID: "s2", Rank: 2},
	}
	if got := RankOf(board, "s2"); got != 2 {
		t.Fatalf("RankOf(s2) = %d, want 2", got)
	}
	if got := RankOf(board, "nobody"); got != Unranked {
		t.Fatalf("RankOf(nobody) = %d, want Unranked", got)
	}
}

func TestTop(t *testing.T) {
	board := []Standing{{StudentID: "a"}, {StudentID: "b"}, {StudentID: "c"}}
	if got := Top(board, 2); len(got) != 2 {
		t.Fatalf("Top(2) returned %d rows", len(got))
	}
	if got := Top(board, 0); len(got) != 3 {
		t.Fatalf("Top(0) returned %d rows, want all", len(got))
	}
	if got := Top(board, 10); len(got) != 3 {
		t.Fatalf("Top(10) returned %d rows, want all", len(got))
	}
}
