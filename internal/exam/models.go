package exam

// Question types supported by the scoring engine.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeFillInGap      = "fill_in_gap"
	TypeEssay          = "essay"
)

// Attempt lifecycle states.
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted" // awaiting manual essay grading
	StatusGraded     = "graded"
)

// Fields of study gating exam visibility.
const (
	FieldScience    = "science"
	FieldArt        = "art"
	FieldCommercial = "commercial"
)

// MaxAttemptsUnlimited is the sentinel for exams with no attempt cap.
const MaxAttemptsUnlimited = -1

type Profile struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	MatricNumber string `json:"matric_number"`
	Role         string `json:"role"`  // "admin" | "student"
	Field        string `json:"field"` // empty until the student picks one
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
}

type QuestionBank struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

type Question struct {
	ID      string   `json:"id"`
	BankID  string   `json:"bank_id"`
	Type    string   `json:"question_type"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"` // multiple_choice only
	// CorrectAnswer holds one of Options for multiple_choice, "true"/"false"
	// for true_false, the expected text for fill_in_gap, and a grading rubric
	// for essay (never compared automatically).
	CorrectAnswer string  `json:"correct_answer,omitempty"`
	Points        float64 `json:"points"`
}

type Exam struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	BankID          string  `json:"bank_id"`
	Field           string  `json:"field"`
	DurationMinutes int     `json:"duration_minutes"`
	PassingScore    float64 `json:"passing_score"`       // percentage, 0-100
	NumQuestions    int     `json:"number_of_questions"` // 0 = use the whole bank
	MaxAttempts     int     `json:"max_attempts"`        // -1 = unlimited
	IsActive        bool    `json:"is_active"`
	CreatedAt       int64   `json:"created_at"`
}

// Attempt is one student's timed instance of an exam. QuestionIDs is the
// question set frozen at creation time; later bank edits never change what
// this attempt is graded on.
type Attempt struct {
	ID            string            `json:"id"`
	ExamID        string            `json:"exam_id"`
	StudentID     string            `json:"student_id"`
	Status        string            `json:"status"`
	Score         float64           `json:"score"`
	TotalPoints   float64           `json:"total_points"`
	TimeRemaining int               `json:"time_remaining"` // seconds left at submission
	QuestionIDs   []string          `json:"question_ids"`
	Answers       map[string]string `json:"answers"`
	StartedAt     int64             `json:"started_at"`
	SubmittedAt   int64             `json:"submitted_at,omitempty"` // 0 until submitted
}

// Sanitize strips answer keys from questions served to students.
func Sanitize(qs []Question) []Question {
	out := make([]Question, len(qs))
	copy(out, qs)
	for i := range out {
		out[i].CorrectAnswer = ""
	}
	return out
}
