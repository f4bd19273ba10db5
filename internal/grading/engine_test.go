package grading

import "testing"

func TestGrade_CaseInsensitiveMatch(t *testing.T) {
	g := NewGrader()
	q := Q{ID: "q1", Type: "multiple_choice", Points: 2, AnswerKey: "Paris"}

	cases := []struct {
		name     string
		response string
		want     float64
	}{
		{"exact", "Paris", 2},
		{"lowercase", "paris", 2},
		{"uppercase", "PARIS", 2},
		{"mixed", "pArIs", 2},
		{"wrong", "London", 0},
		{"empty", "", 0},
		{"whitespace differs", " Paris", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := g.Grade(q, tc.response)
			if res.AutoPoints != tc.want {
				t.Fatalf("Grade(%q) = %v points, want %v", tc.response, res.AutoPoints, tc.want)
			}
			if res.MaxPoints != q.Points {
				t.Fatalf("MaxPoints = %v, want %v", res.MaxPoints, q.Points)
			}
			if res.NeedsManual {
				t.Fatal("objective question flagged for manual grading")
			}
		})
	}
}

func TestGrade_EmptyKeyEmptyResponseDoesNotScore(t *testing.T) {
	g := NewGrader()
	res := g.Grade(Q{ID: "q1", Type: "fill_in_gap", Points: 3, AnswerKey: ""}, "")
	if res.AutoPoints != 0 {
		t.Fatalf("empty response scored %v points", res.AutoPoints)
	}
}

func TestGrade_TrueFalseAndFillInGap(t *testing.T) {
	g := NewGrader()
	if res := g.Grade(Q{Type: "true_false", Points: 1, AnswerKey: "true"}, "TRUE"); res.AutoPoints != 1 {
		t.Fatalf("true_false: got %v points", res.AutoPoints)
	}
	if res := g.Grade(Q{Type: "fill_in_gap", Points: 4, AnswerKey: "mitochondria"}, "Mitochondria"); res.AutoPoints != 4 {
		t.Fatalf("fill_in_gap: got %v points", res.AutoPoints)
	}
}

func TestGrade_EssayNeedsManual(t *testing.T) {
	g := NewGrader()
	res := g.Grade(Q{ID: "e1", Type: "essay", Points: 10, AnswerKey: ""}, "a long answer")
	if !res.NeedsManual {
		t.Fatal("essay not flagged for manual grading")
	}
	if res.AutoPoints != 0 {
		t.Fatalf("essay auto-scored %v points", res.AutoPoints)
	}
	if res.MaxPoints != 10 {
		t.Fatalf("MaxPoints = %v, want 10", res.MaxPoints)
	}
}

func TestGrade_UnknownTypeFallsBackToManual(t *testing.T) {
	g := NewGrader()
	res := g.Grade(Q{Type: "matching", Points: 5, AnswerKey: "x"}, "x")
	if !res.NeedsManual {
		t.Fatal("unknown type not flagged for manual grading")
	}
	if res.AutoPoints != 0 {
		t.Fatalf("unknown type auto-scored %v points", res.AutoPoints)
	}
}
