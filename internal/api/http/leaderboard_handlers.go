package http

import (
	"net/http"

	"github.com/bsfellows/cbt-backend/internal/exam"
	"github.com/bsfellows/cbt-backend/internal/progress"
	"github.com/bsfellows/cbt-backend/internal/rbac"
)

// GET /leaderboard?limit=10
func LeaderboardHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := buildBoard(r, store)
		if err != nil {
			httpError(w, err)
			return
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 10)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"leaderboard": progress.Top(board, limit),
			"my_rank":     progress.RankOf(board, rbac.SubjectFromContext(r.Context())),
		})
	}
}

// GET /admin/students — full standings table for the admin overview.
func StudentStandingsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := buildBoard(r, store)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

func buildBoard(r *http.Request, store exam.Store) ([]progress.Standing, error) {
	students, err := store.ListStudents(r.Context())
	if err != nil {
		return nil, err
	}
	attempts, err := store.ListAttempts(r.Context(), exam.AttemptListOpts{Limit: 10000})
	if err != nil {
		return nil, err
	}
	return progress.BuildLeaderboard(students, attempts), nil
}
