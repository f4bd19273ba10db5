package exam

import "context"

type ExamListOpts struct {
	Field      string // filter by field of study
	ActiveOnly bool
	Limit      int
	Offset     int
}

type AttemptListOpts struct {
	ExamID    string
	StudentID string
	Status    string
	Limit     int
	Offset    int
}

// Overview is the admin dashboard counter set.
type Overview struct {
	TotalExams     int `json:"total_exams"`
	TotalBanks     int `json:"total_banks"`
	TotalStudents  int `json:"total_students"`
	TotalAttempts  int `json:"total_attempts"`
	PendingGrading int `json:"pending_grading"`
}

// Store is the persistence boundary for the five record kinds. Writes are
// single-record; no cross-kind transactions are required.
type Store interface {
	// profiles
	CreateProfile(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, id string) (Profile, error)
	GetProfileByMatric(ctx context.Context, matric string) (Profile, error)
	SetProfileField(ctx context.Context, id, field string) error
	ListStudents(ctx context.Context) ([]Profile, error)

	// question banks
	PutBank(ctx context.Context, b QuestionBank) error
	GetBank(ctx context.Context, id string) (QuestionBank, error)
	ListBanks(ctx context.Context) ([]QuestionBank, error)
	DeleteBank(ctx context.Context, id string) error // cascades to questions

	// questions
	PutQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	GetQuestionsByIDs(ctx context.Context, ids []string) ([]Question, error)
	ListBankQuestions(ctx context.Context, bankID string) ([]Question, error)
	DeleteQuestion(ctx context.Context, id string) error

	// exams
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	ListExams(ctx context.Context, opts ExamListOpts) ([]Exam, error)
	DeleteExam(ctx context.Context, id string) error

	// attempts
	InsertAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	CountAttempts(ctx context.Context, examID, studentID string) (int, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
	// FinalizeAttempt persists submission results conditioned on the current
	// status still being in_progress. Returns false when the guard failed,
	// i.e. another submission already won.
	FinalizeAttempt(ctx context.Context, a Attempt) (bool, error)
	// GradeAttempt moves submitted -> graded with the merged final score.
	// Returns false when the attempt was not awaiting grading.
	GradeAttempt(ctx context.Context, id string, finalScore float64) (bool, error)
	// ListExpiredInProgress returns in_progress attempts whose deadline
	// (started_at + exam duration) has passed by now (unix seconds).
	ListExpiredInProgress(ctx context.Context, now int64) ([]Attempt, error)

	CountOverview(ctx context.Context) (Overview, error)
}
