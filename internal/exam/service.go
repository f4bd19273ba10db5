package exam

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bsfellows/cbt-backend/internal/grading"
)

// Service owns the attempt lifecycle: it freezes question sets, runs the
// per-attempt countdown, collects answers, and turns them into scores.
type Service struct {
	store   Store
	grader  *grading.Grader
	live    *sessions
	now     func() time.Time
	randMu  sync.Mutex
	rand    *rand.Rand
	timeout time.Duration // store deadline for timer-driven submissions
}

func NewService(store Store) *Service {
	return &Service{
		store:   store,
		grader:  grading.NewGrader(),
		live:    newSessions(),
		now:     time.Now,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		timeout: 10 * time.Second,
	}
}

// StartedAttempt is what a student gets back from StartAttempt: the attempt
// record plus its frozen questions, answer keys stripped.
type StartedAttempt struct {
	Attempt   Attempt    `json:"attempt"`
	Questions []Question `json:"questions"`
}

type SubmitResult struct {
	AttemptID   string  `json:"attempt_id"`
	Score       float64 `json:"score"`
	TotalPoints float64 `json:"total_points"`
	Percentage  float64 `json:"percentage"`
	Passed      bool    `json:"passed"`
	Status      string  `json:"status"`
}

// StartAttempt re-validates exam visibility and the attempt cap, freezes the
// question selection, persists the attempt, and arms the countdown. Any
// failure aborts before the attempt record exists.
func (s *Service) StartAttempt(ctx context.Context, studentID, examID string) (*StartedAttempt, error) {
	student, err := s.store.GetProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	// Visibility is filtered upstream, but re-check: listings go stale.
	if !e.IsActive || e.Field != student.Field {
		return nil, ErrExamNotAvailable
	}
	if e.MaxAttempts != MaxAttemptsUnlimited {
		n, err := s.store.CountAttempts(ctx, examID, studentID)
		if err != nil {
			return nil, err
		}
		if n >= e.MaxAttempts {
			return nil, ErrAttemptLimitExceeded
		}
	}
	bank, err := s.store.ListBankQuestions(ctx, e.BankID)
	if err != nil {
		return nil, err
	}
	s.randMu.Lock()
	selected, err := SelectQuestions(bank, e, s.rand)
	s.randMu.Unlock()
	if err != nil {
		return nil, err
	}

	a := Attempt{
		ID:          uuid.NewString(),
		ExamID:      e.ID,
		StudentID:   studentID,
		Status:      StatusInProgress,
		QuestionIDs: questionIDs(selected),
		Answers:     map[string]string{},
		StartedAt:   s.now().Unix(),
	}
	if err := s.store.InsertAttempt(ctx, a); err != nil {
		return nil, err
	}

	d := time.Duration(e.DurationMinutes) * time.Minute
	s.live.start(a.ID, a.QuestionIDs, d, s.autosubmit)

	return &StartedAttempt{Attempt: a, Questions: Sanitize(selected)}, nil
}

// RecordAnswer updates the in-memory ledger for a live attempt. Answers are
// never validated for correctness here.
func (s *Service) RecordAnswer(attemptID, questionID, value string) error {
	sess := s.live.get(attemptID)
	if sess == nil {
		return ErrAttemptNotEditable
	}
	return sess.recordAnswer(questionID, value)
}

// Answers returns the current ledger, for progress indicators.
func (s *Service) Answers(attemptID string) (map[string]string, error) {
	sess := s.live.get(attemptID)
	if sess == nil {
		return nil, ErrAttemptNotEditable
	}
	return sess.snapshot(), nil
}

// Submit finalizes an attempt with whatever the ledger holds. At most one
// submission is accepted per attempt: a second call, whether a racing timer
// or a double click, returns the stored result without rescoring.
func (s *Service) Submit(ctx context.Context, attemptID string) (*SubmitResult, error) {
	sess := s.live.get(attemptID)
	if sess == nil {
		// No live session: either already finalized, or the presenting
		// process died and the sweeper is catching up.
		return s.submitDetached(ctx, attemptID)
	}
	if !sess.finish() {
		return s.storedResult(ctx, attemptID)
	}

	answers := sess.snapshot()
	remaining := sess.remaining(s.now())
	res, err := s.finalize(ctx, attemptID, answers, remaining)
	if err != nil {
		// Keep the ledger so the student can retry without re-entering
		// answers.
		sess.reopen()
		return nil, err
	}
	s.live.remove(attemptID)
	return res, nil
}

// submitDetached finalizes an attempt that has no live session, scoring the
// answers already persisted on the record (empty for a crashed session).
func (s *Service) submitDetached(ctx context.Context, attemptID string) (*SubmitResult, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusInProgress {
		return s.resultOf(ctx, a)
	}
	return s.finalize(ctx, attemptID, a.Answers, 0)
}

func (s *Service) finalize(ctx context.Context, attemptID string, answers map[string]string, remaining int) (*SubmitResult, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	qs, err := s.store.GetQuestionsByIDs(ctx, a.QuestionIDs)
	if err != nil {
		return nil, err
	}
	obj := s.grader.ScoreObjective(gradingView(qs), answers)

	a.Answers = answers
	a.Score = obj.Score
	a.TotalPoints = obj.TotalPoints
	a.TimeRemaining = remaining
	a.SubmittedAt = s.now().Unix()
	a.Status = StatusGraded
	if obj.HasEssay {
		a.Status = StatusSubmitted
	}

	applied, err := s.store.FinalizeAttempt(ctx, a)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the storage race; the stored result wins.
		return s.storedResult(ctx, attemptID)
	}
	return s.resultOf(ctx, a)
}

func (s *Service) storedResult(ctx context.Context, attemptID string) (*SubmitResult, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	return s.resultOf(ctx, a)
}

func (s *Service) resultOf(ctx context.Context, a Attempt) (*SubmitResult, error) {
	e, err := s.store.GetExam(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	pct := grading.Percentage(a.Score, a.TotalPoints)
	return &SubmitResult{
		AttemptID:   a.ID,
		Score:       a.Score,
		TotalPoints: a.TotalPoints,
		Percentage:  pct,
		Passed:      grading.Passed(pct, e.PassingScore),
		Status:      a.Status,
	}, nil
}

// autosubmit is the countdown terminal action. Errors are logged, not
// retried: the sweeper picks up anything left in_progress.
func (s *Service) autosubmit(attemptID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.Submit(ctx, attemptID); err != nil {
		log.Printf("autosubmit attempt %s: %v", attemptID, err)
	}
}

// GradeEssays merges admin-assigned essay scores into a submitted attempt and
// finalizes it. One shot per attempt: grading an already graded attempt is
// rejected.
func (s *Service) GradeEssays(ctx context.Context, attemptID string, essayScores map[string]float64) (*SubmitResult, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusGraded {
		return nil, ErrAlreadyGraded
	}
	if a.Status != StatusSubmitted {
		return nil, fmt.Errorf("%w: attempt is %s", ErrAttemptNotEditable, a.Status)
	}
	qs, err := s.store.GetQuestionsByIDs(ctx, a.QuestionIDs)
	if err != nil {
		return nil, err
	}
	final, err := grading.MergeEssayGrades(a.Score, gradingView(qs), essayScores)
	if err != nil {
		return nil, err
	}
	applied, err := s.store.GradeAttempt(ctx, attemptID, final)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrAlreadyGraded
	}
	a.Score = final
	a.Status = StatusGraded
	return s.resultOf(ctx, a)
}

// QuestionReview is one row of a graded attempt's detailed results.
type QuestionReview struct {
	Question      Question `json:"question"`
	StudentAnswer string   `json:"student_answer"`
	Correct       *bool    `json:"correct,omitempty"` // nil for essays
	PointsEarned  float64  `json:"points_earned"`
}

// Review returns per-question results for a finalized attempt.
func (s *Service) Review(ctx context.Context, attemptID string) ([]QuestionReview, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusInProgress {
		return nil, ErrAttemptNotEditable
	}
	qs, err := s.store.GetQuestionsByIDs(ctx, a.QuestionIDs)
	if err != nil {
		return nil, err
	}
	out := make([]QuestionReview, 0, len(qs))
	for _, q := range qs {
		r := QuestionReview{Question: q, StudentAnswer: a.Answers[q.ID]}
		res := s.grader.Grade(grading.Q{ID: q.ID, Type: q.Type, Points: q.Points, AnswerKey: q.CorrectAnswer}, a.Answers[q.ID])
		if !res.NeedsManual {
			ok := res.AutoPoints > 0
			r.Correct = &ok
			r.PointsEarned = res.AutoPoints
		}
		out = append(out, r)
	}
	return out, nil
}

func gradingView(qs []Question) []grading.Q {
	out := make([]grading.Q, len(qs))
	for i, q := range qs {
		out[i] = grading.Q{ID: q.ID, Type: q.Type, Points: q.Points, AnswerKey: q.CorrectAnswer}
	}
	return out
}
