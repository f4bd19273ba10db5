package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bsfellows/cbt-backend/internal/exam"
)

// GET /admin/grading — attempts awaiting manual essay grading, oldest first.
func PendingGradingHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListAttempts(r.Context(), exam.AttemptListOpts{
			Status: exam.StatusSubmitted,
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 100),
		})
		if err != nil {
			httpError(w, err)
			return
		}
		// started_at desc is the store's order; grading wants oldest first.
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type gradeReq struct {
	EssayScores map[string]float64 `json:"essay_scores"` // question_id -> points
}

// POST /admin/attempts/{attemptID}/grade
func GradeAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.GradeEssays(r.Context(), chi.URLParam(r, "attemptID"), req.EssayScores)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
