package rbac

import (
	"context"
	"testing"
)

func TestChecker_DefaultPolicy(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "attempt:create", true},
		{"student", "attempt:submit", true},
		{"student", "leaderboard:view", true},
		{"student", "admin:manage", false},
		{"student", "attempt:grade", false},
		{"admin", "admin:manage", true},
		{"admin", "attempt:grade", true},
		{"", "exam:view", false},
		{"unknown", "exam:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestChecker_WildcardPrefix(t *testing.T) {
	c := NewChecker(map[string][]string{"grader": {"attempt:*"}})
	if !c.Has("grader", "attempt:grade") {
		t.Fatal("prefix wildcard did not match")
	}
	if c.Has("grader", "exam:view") {
		t.Fatal("prefix wildcard matched wrong namespace")
	}
}

func TestChecker_Any(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("student", "admin:manage", "exam:view") {
		t.Fatal("Any missed a held permission")
	}
	if c.Any("student", "admin:manage", "attempt:grade") {
		t.Fatal("Any matched with no held permission")
	}
}

func TestContextIdentity(t *testing.T) {
	ctx := WithSubject(context.Background(), "stu-1")
	ctx = WithRole(ctx, "student")
	if got := SubjectFromContext(ctx); got != "stu-1" {
		t.Fatalf("subject = %q", got)
	}
	if got := RoleFromContext(ctx); got != "student" {
		t.Fatalf("role = %q", got)
	}
	if got := RoleFromContext(context.Background()); got != "" {
		t.Fatalf("empty context role = %q", got)
	}
}
