package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SQLStore implements Store over database/sql. The same statements run on
// both drivers (modernc sqlite and pgx); JSON-shaped fields live in TEXT
// columns.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// --- profiles ---

func (s *SQLStore) CreateProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO profiles (id,full_name,matric_number,role,field,password_hash,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.FullName, p.MatricNumber, p.Role, p.Field, p.PasswordHash, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *SQLStore) GetProfile(ctx context.Context, id string) (Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx,
		`SELECT id,full_name,matric_number,role,field,password_hash,created_at FROM profiles WHERE id=$1`, id))
}

func (s *SQLStore) GetProfileByMatric(ctx context.Context, matric string) (Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx,
		`SELECT id,full_name,matric_number,role,field,password_hash,created_at FROM profiles WHERE matric_number=$1`, matric))
}

func (s *SQLStore) scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.FullName, &p.MatricNumber, &p.Role, &p.Field, &p.PasswordHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}

func (s *SQLStore) SetProfileField(ctx context.Context, id, field string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET field=$1 WHERE id=$2`, field, id)
	if err != nil {
		return fmt.Errorf("update profile field: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *SQLStore) ListStudents(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,full_name,matric_number,role,field,password_hash,created_at FROM profiles WHERE role='student' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()
	out := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.MatricNumber, &p.Role, &p.Field, &p.PasswordHash, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- question banks ---

func (s *SQLStore) PutBank(ctx context.Context, b QuestionBank) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO question_banks (id,title,description,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description`,
		b.ID, b.Title, b.Description, b.CreatedBy, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert bank: %w", err)
	}
	return nil
}

func (s *SQLStore) GetBank(ctx context.Context, id string) (QuestionBank, error) {
	var b QuestionBank
	err := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,created_by,created_at FROM question_banks WHERE id=$1`, id).
		Scan(&b.ID, &b.Title, &b.Description, &b.CreatedBy, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return QuestionBank{}, ErrBankNotFound
	}
	if err != nil {
		return QuestionBank{}, fmt.Errorf("scan bank: %w", err)
	}
	return b, nil
}

func (s *SQLStore) ListBanks(ctx context.Context) ([]QuestionBank, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,description,created_by,created_at FROM question_banks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query banks: %w", err)
	}
	defer rows.Close()
	out := make([]QuestionBank, 0)
	for rows.Next() {
		var b QuestionBank
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteBank(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM question_banks WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete bank: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBankNotFound
	}
	return nil
}

// --- questions ---

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	oj, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id,bank_id,question_type,prompt,options_json,correct_answer,points)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET question_type=EXCLUDED.question_type, prompt=EXCLUDED.prompt,
			options_json=EXCLUDED.options_json, correct_answer=EXCLUDED.correct_answer, points=EXCLUDED.points`,
		q.ID, q.BankID, q.Type, q.Prompt, string(oj), q.CorrectAnswer, q.Points)
	if err != nil {
		return fmt.Errorf("upsert question: %w", err)
	}
	return nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,bank_id,question_type,prompt,options_json,correct_answer,points FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	return q, err
}

func (s *SQLStore) GetQuestionsByIDs(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,bank_id,question_type,prompt,options_json,correct_answer,points FROM questions WHERE id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions by ids: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (s *SQLStore) ListBankQuestions(ctx context.Context, bankID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,bank_id,question_type,prompt,options_json,correct_answer,points FROM questions WHERE bank_id=$1`, bankID)
	if err != nil {
		return nil, fmt.Errorf("query bank questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func scanQuestion(scan func(...interface{}) error) (Question, error) {
	var q Question
	var oj string
	if err := scan(&q.ID, &q.BankID, &q.Type, &q.Prompt, &oj, &q.CorrectAnswer, &q.Points); err != nil {
		return Question{}, err
	}
	if oj != "" && oj != "null" {
		if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
			return Question{}, fmt.Errorf("decode options: %w", err)
		}
	}
	return q, nil
}

func collectQuestions(rows *sql.Rows) ([]Question, error) {
	out := make([]Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// --- exams ---

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO exams (id,title,description,bank_id,field,duration_minutes,passing_score,number_of_questions,max_attempts,is_active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description, bank_id=EXCLUDED.bank_id,
			field=EXCLUDED.field, duration_minutes=EXCLUDED.duration_minutes, passing_score=EXCLUDED.passing_score,
			number_of_questions=EXCLUDED.number_of_questions, max_attempts=EXCLUDED.max_attempts, is_active=EXCLUDED.is_active`,
		e.ID, e.Title, e.Description, e.BankID, e.Field, e.DurationMinutes, e.PassingScore, e.NumQuestions, e.MaxAttempts, e.IsActive, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert exam: %w", err)
	}
	return nil
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	var e Exam
	err := s.db.QueryRowContext(ctx,
		`SELECT id,title,description,bank_id,field,duration_minutes,passing_score,number_of_questions,max_attempts,is_active,created_at
		 FROM exams WHERE id=$1`, id).
		Scan(&e.ID, &e.Title, &e.Description, &e.BankID, &e.Field, &e.DurationMinutes, &e.PassingScore, &e.NumQuestions, &e.MaxAttempts, &e.IsActive, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, ErrExamNotFound
	}
	if err != nil {
		return Exam{}, fmt.Errorf("scan exam: %w", err)
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context, opts ExamListOpts) ([]Exam, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if opts.Field != "" {
		args = append(args, opts.Field)
		where = append(where, fmt.Sprintf("field=$%d", len(args)))
	}
	if opts.ActiveOnly {
		where = append(where, "is_active")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)
	q := fmt.Sprintf(`SELECT id,title,description,bank_id,field,duration_minutes,passing_score,number_of_questions,max_attempts,is_active,created_at
		FROM exams WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), len(args)-1, len(args))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	defer rows.Close()
	out := make([]Exam, 0)
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.BankID, &e.Field, &e.DurationMinutes, &e.PassingScore, &e.NumQuestions, &e.MaxAttempts, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExamNotFound
	}
	return nil
}

// --- attempts ---

func (s *SQLStore) InsertAttempt(ctx context.Context, a Attempt) error {
	qids, err := json.Marshal(a.QuestionIDs)
	if err != nil {
		return fmt.Errorf("marshal question ids: %w", err)
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exam_attempts (id,exam_id,student_id,status,score,total_points,time_remaining,question_ids_json,answers_json,started_at,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.ExamID, a.StudentID, a.Status, a.Score, a.TotalPoints, a.TimeRemaining, string(qids), string(answers), a.StartedAt, nullableUnix(a.SubmittedAt))
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

const attemptCols = `id,exam_id,student_id,status,score,total_points,time_remaining,question_ids_json,answers_json,started_at,submitted_at`

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM exam_attempts WHERE id=$1`, id)
	a, err := scanAttempt(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, err
}

func (s *SQLStore) CountAttempts(ctx context.Context, examID, studentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE exam_id=$1 AND student_id=$2`, examID, studentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if opts.ExamID != "" {
		args = append(args, opts.ExamID)
		where = append(where, fmt.Sprintf("exam_id=$%d", len(args)))
	}
	if opts.StudentID != "" {
		args = append(args, opts.StudentID)
		where = append(where, fmt.Sprintf("student_id=$%d", len(args)))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)
	q := fmt.Sprintf(`SELECT %s FROM exam_attempts WHERE %s ORDER BY started_at DESC LIMIT $%d OFFSET $%d`,
		attemptCols, strings.Join(where, " AND "), len(args)-1, len(args))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// FinalizeAttempt is the compare-and-swap that makes submission idempotent at
// the storage boundary: only an in_progress row can be finalized, so a racing
// resubmission can never overwrite a stored result.
func (s *SQLStore) FinalizeAttempt(ctx context.Context, a Attempt) (bool, error) {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return false, fmt.Errorf("marshal answers: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE exam_attempts
		SET status=$1, score=$2, total_points=$3, time_remaining=$4, answers_json=$5, submitted_at=$6
		WHERE id=$7 AND status='in_progress'`,
		a.Status, a.Score, a.TotalPoints, a.TimeRemaining, string(answers), a.SubmittedAt, a.ID)
	if err != nil {
		return false, fmt.Errorf("finalize attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finalize attempt: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) GradeAttempt(ctx context.Context, id string, finalScore float64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE exam_attempts SET score=$1, status='graded'
		WHERE id=$2 AND status='submitted'`, finalScore, id)
	if err != nil {
		return false, fmt.Errorf("grade attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("grade attempt: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) ListExpiredInProgress(ctx context.Context, now int64) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id,a.exam_id,a.student_id,a.status,a.score,a.total_points,a.time_remaining,a.question_ids_json,a.answers_json,a.started_at,a.submitted_at
		FROM exam_attempts a JOIN exams e ON e.id = a.exam_id
		WHERE a.status='in_progress' AND a.started_at + e.duration_minutes*60 <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("query expired attempts: %w", err)
	}
	defer rows.Close()
	return collectAttempts(rows)
}

func (s *SQLStore) CountOverview(ctx context.Context) (Overview, error) {
	var o Overview
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM exams),
		(SELECT COUNT(*) FROM question_banks),
		(SELECT COUNT(*) FROM profiles WHERE role='student'),
		(SELECT COUNT(*) FROM exam_attempts),
		(SELECT COUNT(*) FROM exam_attempts WHERE status='submitted')`).
		Scan(&o.TotalExams, &o.TotalBanks, &o.TotalStudents, &o.TotalAttempts, &o.PendingGrading)
	if err != nil {
		return Overview{}, fmt.Errorf("count overview: %w", err)
	}
	return o, nil
}

func scanAttempt(scan func(...interface{}) error) (Attempt, error) {
	var a Attempt
	var qids, answers string
	var submitted sql.NullInt64
	if err := scan(&a.ID, &a.ExamID, &a.StudentID, &a.Status, &a.Score, &a.TotalPoints, &a.TimeRemaining, &qids, &answers, &a.StartedAt, &submitted); err != nil {
		return Attempt{}, err
	}
	if submitted.Valid {
		a.SubmittedAt = submitted.Int64
	}
	if err := json.Unmarshal([]byte(qids), &a.QuestionIDs); err != nil {
		return Attempt{}, fmt.Errorf("decode question ids: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		a.Answers = map[string]string{}
	}
	return a, nil
}

func collectAttempts(rows *sql.Rows) ([]Attempt, error) {
	out := make([]Attempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullableUnix(ts int64) interface{} {
	if ts == 0 {
		return nil
	}
	return ts
}
