package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bsfellows/cbt-backend/internal/exam"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForErr maps domain errors onto HTTP statuses; anything unknown is a
// store/internal failure.
func statusForErr(err error) int {
	switch {
	case errors.Is(err, exam.ErrProfileNotFound),
		errors.Is(err, exam.ErrBankNotFound),
		errors.Is(err, exam.ErrQuestionNotFound),
		errors.Is(err, exam.ErrExamNotFound),
		errors.Is(err, exam.ErrAttemptNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrAttemptLimitExceeded),
		errors.Is(err, exam.ErrExamNotAvailable):
		return http.StatusForbidden
	case errors.Is(err, exam.ErrAlreadyGraded),
		errors.Is(err, exam.ErrAttemptNotEditable):
		return http.StatusConflict
	case errors.Is(err, exam.ErrNoQuestionsAvailable),
		errors.Is(err, exam.ErrInvalidEssayScore),
		errors.Is(err, exam.ErrQuestionNotInAttempt):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func httpError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForErr(err))
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
