package exam

import (
	"errors"

	"github.com/bsfellows/cbt-backend/internal/grading"
)

var (
	ErrNoQuestionsAvailable = errors.New("question bank has no questions")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrExamNotAvailable     = errors.New("exam not available")
	ErrInvalidEssayScore    = grading.ErrInvalidEssayScore
	ErrAlreadyGraded        = errors.New("attempt already graded")
	ErrAttemptNotEditable   = errors.New("attempt is not editable")
	ErrQuestionNotInAttempt = errors.New("question not in attempt")

	ErrProfileNotFound  = errors.New("profile not found")
	ErrBankNotFound     = errors.New("question bank not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrExamNotFound     = errors.New("exam not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
)
