package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/bsfellows/cbt-backend/internal/auth/middleware"
	"github.com/bsfellows/cbt-backend/internal/db"
	"github.com/bsfellows/cbt-backend/internal/exam"
	"github.com/bsfellows/cbt-backend/internal/rbac"
)

var apiDBSeq atomic.Int64

// newTestServer wires the full HTTP surface over a fresh in-memory database,
// mirroring the gateway's routing, and seeds one admin account.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dsn := fmt.Sprintf("file:api%d.db?mode=memory&cache=shared", apiDBSeq.Add(1))
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	store := exam.NewSQLStore(conn)
	svc := exam.NewService(store)
	authSvc := authmw.NewAuthService("test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateProfile(context.Background(), exam.Profile{
		ID: "admin-1", FullName: "Administrator", MatricNumber: "admin", Role: "admin",
		PasswordHash: string(hash), CreatedAt: time.Now().Unix(),
	}); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Post("/auth/register", RegisterHandler(store))
	r.Post("/auth/login", LoginHandler(store, authSvc))
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))

		pr.Get("/me", MeHandler(store))
		pr.With(rbac.Require("profile:set-field")).Patch("/me/field", SetFieldHandler(store))
		pr.With(rbac.Require("exam:view")).Get("/exams", ListExamsHandler(store))
		pr.With(rbac.Require("attempt:create")).Post("/attempts", CreateAttemptHandler(svc))
		pr.With(rbac.Require("attempt:save")).Put("/attempts/{attemptID}/answers/{questionID}", SaveAnswerHandler(svc))
		pr.With(rbac.Require("attempt:save")).Get("/attempts/{attemptID}/answers", GetAnswersHandler(svc))
		pr.With(rbac.Require("attempt:submit")).Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).Get("/attempts/{attemptID}/results", ReviewAttemptHandler(store, svc))
		pr.With(rbac.Require("leaderboard:view")).Get("/leaderboard", LeaderboardHandler(store))

		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(rbac.Require("admin:manage"))
			ar.Post("/banks", CreateBankHandler(store))
			ar.Post("/banks/{bankID}/questions", CreateQuestionHandler(store))
			ar.Post("/exams", CreateExamHandler(store))
			ar.Get("/grading", PendingGradingHandler(store))
			ar.Post("/attempts/{attemptID}/grade", GradeAttemptHandler(svc))
			ar.Get("/overview", OverviewHandler(store))
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
}

func login(t *testing.T, base, matric, password string) string {
	t.Helper()
	var out struct {
		AccessToken string `json:"access_token"`
	}
	doJSON(t, http.MethodPost, base+"/auth/login", "",
		map[string]string{"matric_number": matric, "password": password}, http.StatusOK, &out)
	if out.AccessToken == "" {
		t.Fatal("empty access token")
	}
	return out.AccessToken
}

func TestExamFlow(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	// Student signup and onboarding.
	doJSON(t, http.MethodPost, base+"/auth/register", "", map[string]string{
		"full_name": "Ada Obi", "matric_number": "BSF/001", "password": "hunter22",
	}, http.StatusCreated, nil)
	student := login(t, base, "BSF/001", "hunter22")
	doJSON(t, http.MethodPatch, base+"/me/field", student,
		map[string]string{"field": "science"}, http.StatusOK, nil)

	// Admin builds the exam.
	admin := login(t, base, "admin", "admin-pass")
	var bank struct {
		ID string `json:"id"`
	}
	doJSON(t, http.MethodPost, base+"/admin/banks", admin,
		map[string]string{"title": "Biology"}, http.StatusCreated, &bank)

	questions := []map[string]interface{}{
		{"question_type": "multiple_choice", "prompt": "2+2?", "options": []string{"3", "4"}, "correct_answer": "4", "points": 2},
		{"question_type": "true_false", "prompt": "Water boils at 100C", "correct_answer": "true", "points": 3},
		{"question_type": "essay", "prompt": "Explain osmosis", "points": 5},
	}
	for _, q := range questions {
		doJSON(t, http.MethodPost, base+"/admin/banks/"+bank.ID+"/questions", admin, q, http.StatusCreated, nil)
	}

	var created exam.Exam
	doJSON(t, http.MethodPost, base+"/admin/exams", admin, map[string]interface{}{
		"title": "Biology Mock", "bank_id": bank.ID, "field": "science",
		"duration_minutes": 30, "passing_score": 50, "max_attempts": 1, "is_active": true,
	}, http.StatusCreated, &created)

	// Student sees it and can attempt.
	var listings []struct {
		ID         string `json:"id"`
		CanAttempt bool   `json:"can_attempt"`
	}
	doJSON(t, http.MethodGet, base+"/exams", student, nil, http.StatusOK, &listings)
	if len(listings) != 1 || !listings[0].CanAttempt {
		t.Fatalf("exam listing wrong: %+v", listings)
	}

	// Take the exam.
	var started exam.StartedAttempt
	doJSON(t, http.MethodPost, base+"/attempts", student,
		map[string]string{"exam_id": created.ID}, http.StatusCreated, &started)
	if len(started.Questions) != 3 {
		t.Fatalf("got %d questions", len(started.Questions))
	}
	for _, q := range started.Questions {
		if q.CorrectAnswer != "" {
			t.Fatalf("answer key leaked for %s", q.ID)
		}
	}

	answersByType := map[string]string{
		"multiple_choice": "4",
		"true_false":      "TRUE",
		"essay":           "plants drink water",
	}
	var essayID string
	for _, q := range started.Questions {
		if q.Type == "essay" {
			essayID = q.ID
		}
		doJSON(t, http.MethodPut, base+"/attempts/"+started.Attempt.ID+"/answers/"+q.ID, student,
			map[string]string{"value": answersByType[q.Type]}, http.StatusNoContent, nil)
	}

	var res exam.SubmitResult
	doJSON(t, http.MethodPost, base+"/attempts/"+started.Attempt.ID+"/submit", student, nil, http.StatusOK, &res)
	if res.Score != 5 || res.TotalPoints != 10 {
		t.Fatalf("submit result %v/%v, want 5/10", res.Score, res.TotalPoints)
	}
	if res.Status != exam.StatusSubmitted {
		t.Fatalf("status = %s, want submitted (essay pending)", res.Status)
	}

	// Admin grades the essay.
	var pending []exam.Attempt
	doJSON(t, http.MethodGet, base+"/admin/grading", admin, nil, http.StatusOK, &pending)
	if len(pending) != 1 || pending[0].ID != started.Attempt.ID {
		t.Fatalf("pending queue wrong: %+v", pending)
	}
	var graded exam.SubmitResult
	doJSON(t, http.MethodPost, base+"/admin/attempts/"+started.Attempt.ID+"/grade", admin,
		map[string]interface{}{"essay_scores": map[string]float64{essayID: 4}}, http.StatusOK, &graded)
	if graded.Score != 9 || graded.Status != exam.StatusGraded {
		t.Fatalf("graded result: %+v", graded)
	}
	if !graded.Passed {
		t.Fatal("90% should pass a 50% bar")
	}

	// Review is available to the owner.
	var review []exam.QuestionReview
	doJSON(t, http.MethodGet, base+"/attempts/"+started.Attempt.ID+"/results", student, nil, http.StatusOK, &review)
	if len(review) != 3 {
		t.Fatalf("review rows = %d", len(review))
	}

	// Leaderboard includes the student.
	var board struct {
		Leaderboard []struct {
			MatricNumber string  `json:"matric_number"`
			AverageScore float64 `json:"average_score"`
		} `json:"leaderboard"`
		MyRank int `json:"my_rank"`
	}
	doJSON(t, http.MethodGet, base+"/leaderboard", student, nil, http.StatusOK, &board)
	if board.MyRank != 1 || len(board.Leaderboard) != 1 {
		t.Fatalf("leaderboard: %+v", board)
	}
	if board.Leaderboard[0].AverageScore != 90 {
		t.Fatalf("average = %v, want 90", board.Leaderboard[0].AverageScore)
	}
}

func TestAuthorization(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL

	doJSON(t, http.MethodPost, base+"/auth/register", "", map[string]string{
		"full_name": "Ada Obi", "matric_number": "BSF/001", "password": "hunter22",
	}, http.StatusCreated, nil)
	student := login(t, base, "BSF/001", "hunter22")

	// Students cannot reach the admin surface.
	doJSON(t, http.MethodGet, base+"/admin/overview", student, nil, http.StatusForbidden, nil)
	doJSON(t, http.MethodPost, base+"/admin/banks", student,
		map[string]string{"title": "X"}, http.StatusForbidden, nil)

	// No token at all.
	doJSON(t, http.MethodGet, base+"/exams", "", nil, http.StatusUnauthorized, nil)

	// Wrong credentials.
	doJSON(t, http.MethodPost, base+"/auth/login", "",
		map[string]string{"matric_number": "BSF/001", "password": "wrong"}, http.StatusUnauthorized, nil)

	// Duplicate registration.
	doJSON(t, http.MethodPost, base+"/auth/register", "", map[string]string{
		"full_name": "Ada Again", "matric_number": "BSF/001", "password": "hunter22",
	}, http.StatusConflict, nil)

	// Field can be chosen once.
	doJSON(t, http.MethodPatch, base+"/me/field", student,
		map[string]string{"field": "science"}, http.StatusOK, nil)
	doJSON(t, http.MethodPatch, base+"/me/field", student,
		map[string]string{"field": "art"}, http.StatusConflict, nil)
}
