package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bsfellows/cbt-backend/internal/exam"
	"github.com/bsfellows/cbt-backend/internal/rbac"
)

// examListing annotates an exam with the viewer's attempt usage, the way the
// student dashboard presents it.
type examListing struct {
	exam.Exam
	AttemptCount int  `json:"attempt_count"`
	CanAttempt   bool `json:"can_attempt"`
}

// GET /exams — active exams for the student's own field.
func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		p, err := store.GetProfile(r.Context(), sub)
		if err != nil {
			httpError(w, err)
			return
		}
		if p.Role == "student" && p.Field == "" {
			// No field chosen yet: nothing is visible.
			writeJSON(w, http.StatusOK, []examListing{})
			return
		}
		opts := exam.ExamListOpts{
			Field:      p.Field,
			ActiveOnly: p.Role == "student",
			Limit:      parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:     parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if p.Role == "admin" {
			opts.Field = strings.TrimSpace(r.URL.Query().Get("field"))
		}
		exams, err := store.ListExams(r.Context(), opts)
		if err != nil {
			httpError(w, err)
			return
		}
		out := make([]examListing, 0, len(exams))
		for _, e := range exams {
			n, err := store.CountAttempts(r.Context(), e.ID, sub)
			if err != nil {
				httpError(w, err)
				return
			}
			out = append(out, examListing{
				Exam:         e,
				AttemptCount: n,
				CanAttempt:   e.MaxAttempts == exam.MaxAttemptsUnlimited || n < e.MaxAttempts,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /attempts  { "exam_id": "..." }
func CreateAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExamID string `json:"exam_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ExamID == "" {
			http.Error(w, "exam_id required", http.StatusBadRequest)
			return
		}
		started, err := svc.StartAttempt(r.Context(), rbac.SubjectFromContext(r.Context()), req.ExamID)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, started)
	}
}

// PUT /attempts/{attemptID}/answers/{questionID}  { "value": "..." }
func SaveAnswerHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		questionID := chi.URLParam(r, "questionID")
		var req struct {
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := svc.RecordAnswer(attemptID, questionID, req.Value); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /attempts/{attemptID}/answers — the live ledger, for answered markers.
func GetAnswersHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answers, err := svc.Answers(chi.URLParam(r, "attemptID"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, answers)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Submit(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /attempts — own history; admins may filter by exam_id/student_id/status.
func ListAttemptsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		opts := exam.AttemptListOpts{
			ExamID:    strings.TrimSpace(r.URL.Query().Get("exam_id")),
			StudentID: strings.TrimSpace(r.URL.Query().Get("student_id")),
			Status:    strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if role != "admin" {
			opts.StudentID = sub
		}
		list, err := store.ListAttempts(r.Context(), opts)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /attempts/{attemptID} — owner or admin.
func GetAttemptHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			httpError(w, err)
			return
		}
		if !mayViewAttempt(r, a) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts/{attemptID}/results — per-question review once finalized.
func ReviewAttemptHandler(store exam.Store, svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := store.GetAttempt(r.Context(), id)
		if err != nil {
			httpError(w, err)
			return
		}
		if !mayViewAttempt(r, a) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		review, err := svc.Review(r.Context(), id)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, review)
	}
}

func mayViewAttempt(r *http.Request, a exam.Attempt) bool {
	role := rbac.RoleFromContext(r.Context())
	return role == "admin" || a.StudentID == rbac.SubjectFromContext(r.Context())
}
