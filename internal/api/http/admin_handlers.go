package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bsfellows/cbt-backend/internal/exam"
	"github.com/bsfellows/cbt-backend/internal/rbac"
)

// --- question banks ---

type bankReq struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func CreateBankHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bankReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		b := exam.QuestionBank{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			CreatedBy:   rbac.SubjectFromContext(r.Context()),
			CreatedAt:   time.Now().Unix(),
		}
		if err := store.PutBank(r.Context(), b); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func ListBanksHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banks, err := store.ListBanks(r.Context())
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, banks)
	}
}

func DeleteBankHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteBank(r.Context(), chi.URLParam(r, "bankID")); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- questions ---

type questionReq struct {
	Type          string   `json:"question_type" validate:"required,oneof=multiple_choice true_false fill_in_gap essay"`
	Prompt        string   `json:"prompt" validate:"required"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        float64  `json:"points" validate:"required,gt=0"`
}

func (req *questionReq) check() string {
	switch req.Type {
	case exam.TypeMultipleChoice:
		if len(req.Options) < 2 {
			return "multiple_choice needs at least two options"
		}
		for _, o := range req.Options {
			if o == req.CorrectAnswer {
				return ""
			}
		}
		return "correct_answer must be one of the options"
	case exam.TypeTrueFalse:
		if req.CorrectAnswer != "true" && req.CorrectAnswer != "false" {
			return `true_false correct_answer must be "true" or "false"`
		}
	case exam.TypeFillInGap:
		if strings.TrimSpace(req.CorrectAnswer) == "" {
			return "fill_in_gap needs a correct_answer"
		}
	}
	return ""
}

// POST /admin/banks/{bankID}/questions
func CreateQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bankID := chi.URLParam(r, "bankID")
		if _, err := store.GetBank(r.Context(), bankID); err != nil {
			httpError(w, err)
			return
		}
		var req questionReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if msg := req.check(); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		q := exam.Question{
			ID:            uuid.NewString(),
			BankID:        bankID,
			Type:          req.Type,
			Prompt:        req.Prompt,
			CorrectAnswer: req.CorrectAnswer,
			Points:        req.Points,
		}
		if req.Type == exam.TypeMultipleChoice {
			q.Options = req.Options
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// GET /admin/banks/{bankID}/questions
func ListQuestionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListBankQuestions(r.Context(), chi.URLParam(r, "bankID"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

// DELETE /admin/questions/{questionID}
func DeleteQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- exams ---

type examReq struct {
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description"`
	BankID          string  `json:"bank_id" validate:"required"`
	Field           string  `json:"field" validate:"required,oneof=science art commercial"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	PassingScore    float64 `json:"passing_score" validate:"gte=0,lte=100"`
	NumQuestions    int     `json:"number_of_questions" validate:"gte=0"`
	MaxAttempts     int     `json:"max_attempts"`
	IsActive        bool    `json:"is_active"`
}

func CreateExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := decodeExam(w, r)
		if !ok {
			return
		}
		if _, err := store.GetBank(r.Context(), e.BankID); err != nil {
			httpError(w, err)
			return
		}
		e.ID = uuid.NewString()
		e.CreatedAt = time.Now().Unix()
		if err := store.PutExam(r.Context(), e); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// PUT /admin/exams/{examID}
func UpdateExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := store.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			httpError(w, err)
			return
		}
		e, ok := decodeExam(w, r)
		if !ok {
			return
		}
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
		if err := store.PutExam(r.Context(), e); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func DeleteExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteExam(r.Context(), chi.URLParam(r, "examID")); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeExam(w http.ResponseWriter, r *http.Request) (exam.Exam, bool) {
	var req examReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return exam.Exam{}, false
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return exam.Exam{}, false
	}
	if req.MaxAttempts == 0 {
		req.MaxAttempts = 1
	}
	if req.MaxAttempts < 0 && req.MaxAttempts != exam.MaxAttemptsUnlimited {
		http.Error(w, "max_attempts must be positive or -1 for unlimited", http.StatusBadRequest)
		return exam.Exam{}, false
	}
	return exam.Exam{
		Title:           req.Title,
		Description:     req.Description,
		BankID:          req.BankID,
		Field:           req.Field,
		DurationMinutes: req.DurationMinutes,
		PassingScore:    req.PassingScore,
		NumQuestions:    req.NumQuestions,
		MaxAttempts:     req.MaxAttempts,
		IsActive:        req.IsActive,
	}, true
}

// GET /admin/overview
func OverviewHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := store.CountOverview(r.Context())
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}
