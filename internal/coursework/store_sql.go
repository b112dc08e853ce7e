package coursework

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

var ErrNotFound = errors.New("not found")

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO quizzes (id,course_id,title,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET course_id=EXCLUDED.course_id, title=EXCLUDED.title`,
		q.ID, q.CourseID, q.Title, time.Now().Unix())
	return err
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO questions (id,quiz_id,slot,qtype,name,question_html,max_grade,grader_info,rubric)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET slot=EXCLUDED.slot, qtype=EXCLUDED.qtype, name=EXCLUDED.name,
			question_html=EXCLUDED.question_html, max_grade=EXCLUDED.max_grade,
			grader_info=EXCLUDED.grader_info, rubric=EXCLUDED.rubric`,
		q.ID, q.QuizID, q.Slot, q.Type, q.Name, q.QuestionHTML, q.MaxGrade, q.GraderInfo, q.Rubric)
	return err
}

func (s *SQLStore) PutAttempt(ctx context.Context, a Attempt) error {
	var finished any
	if a.FinishedAt > 0 {
		finished = a.FinishedAt
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts (id,quiz_id,user_id,status,finished_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, finished_at=EXCLUDED.finished_at`,
		a.ID, a.QuizID, a.UserID, a.Status, finished)
	return err
}

func (s *SQLStore) PutAnswer(ctx context.Context, attemptID, questionID, answerHTML string, needsGrading bool) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempt_answers (attempt_id,question_id,answer_html,needs_grading)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (attempt_id,question_id) DO UPDATE SET answer_html=EXCLUDED.answer_html, needs_grading=EXCLUDED.needs_grading`,
		attemptID, questionID, answerHTML, needsGrading)
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,title FROM quizzes WHERE id=$1`, id)
	var q Quiz
	if err := row.Scan(&q.ID, &q.CourseID, &q.Title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrNotFound
		}
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,slot,qtype,name,question_html,max_grade,grader_info,rubric
		FROM questions WHERE id=$1`, id)
	var q Question
	if err := row.Scan(&q.ID, &q.QuizID, &q.Slot, &q.Type, &q.Name, &q.QuestionHTML, &q.MaxGrade, &q.GraderInfo, &q.Rubric); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) EssayQuestions(ctx context.Context, quizID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,quiz_id,slot,qtype,name,question_html,max_grade,grader_info,rubric
		FROM questions WHERE quiz_id=$1 AND qtype='essay' ORDER BY slot, id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Slot, &q.Type, &q.Name, &q.QuestionHTML, &q.MaxGrade, &q.GraderInfo, &q.Rubric); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UngradedAnswers lists essay answers still flagged for grading, for one
// question across all finished attempts of the quiz.
func (s *SQLStore) UngradedAnswers(ctx context.Context, quizID string, slot int, questionID string) ([]AnswerCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.attempt_id, a.question_id, at.user_id, a.answer_html
		FROM attempt_answers a
		JOIN attempts at ON at.id = a.attempt_id
		JOIN questions q ON q.id = a.question_id
		WHERE at.quiz_id=$1 AND at.status='finished'
		  AND a.question_id=$2 AND q.slot=$3 AND q.qtype='essay'
		  AND a.needs_grading
		ORDER BY at.user_id, a.attempt_id`, quizID, questionID, slot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AnswerCandidate
	for rows.Next() {
		var c AnswerCandidate
		if err := rows.Scan(&c.AttemptID, &c.QuestionID, &c.UserID, &c.AnswerHTML); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) ApplyAnswerGrade(ctx context.Context, attemptID, questionID string, grade float64, feedback string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE attempt_answers
		SET grade=$1, feedback=$2, needs_grading=FALSE, graded_at=$3
		WHERE attempt_id=$4 AND question_id=$5`,
		grade, feedback, time.Now().Unix(), attemptID, questionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func (s *SQLStore) PutAssignment(ctx context.Context, a Assignment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO assignments (id,course_id,name,intro_html,grader_info,rubric,max_grade)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, intro_html=EXCLUDED.intro_html,
			grader_info=EXCLUDED.grader_info, rubric=EXCLUDED.rubric, max_grade=EXCLUDED.max_grade`,
		a.ID, a.CourseID, a.Name, a.IntroHTML, a.GraderInfo, a.Rubric, a.MaxGrade)
	return err
}

func (s *SQLStore) PutSubmission(ctx context.Context, sub Submission) error {
	if sub.AttemptNo == 0 {
		sub.AttemptNo = 1
	}
	// New submissions are always ungraded; grades arrive via ApplySubmissionGrade.
	_, err := s.db.ExecContext(ctx, `INSERT INTO submissions (id,assignment_id,user_id,attempt_no,status,online_html,grade)
		VALUES ($1,$2,$3,$4,$5,$6,-1)
		ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, online_html=EXCLUDED.online_html`,
		sub.ID, sub.AssignmentID, sub.UserID, sub.AttemptNo, sub.Status, sub.OnlineHTML)
	return err
}

func (s *SQLStore) AddSubmissionFile(ctx context.Context, f SubmissionFile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO submission_files (id,submission_id,filename,mime_type,blob_key,sort_order)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		f.ID, f.SubmissionID, f.Filename, f.MimeType, f.BlobKey, f.SortOrder)
	return err
}

func (s *SQLStore) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,name,intro_html,grader_info,rubric,max_grade
		FROM assignments WHERE id=$1`, id)
	var a Assignment
	if err := row.Scan(&a.ID, &a.CourseID, &a.Name, &a.IntroHTML, &a.GraderInfo, &a.Rubric, &a.MaxGrade); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, ErrNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

// GetSubmission returns the user's latest submission for the assignment.
func (s *SQLStore) GetSubmission(ctx context.Context, assignmentID, userID string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,assignment_id,user_id,attempt_no,status,online_html,grade,feedback
		FROM submissions WHERE assignment_id=$1 AND user_id=$2
		ORDER BY attempt_no DESC LIMIT 1`, assignmentID, userID)
	var sub Submission
	if err := row.Scan(&sub.ID, &sub.AssignmentID, &sub.UserID, &sub.AttemptNo, &sub.Status, &sub.OnlineHTML, &sub.Grade, &sub.Feedback); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	return sub, nil
}

// SubmissionFiles lists attachments in stable order: sort order, then ID.
func (s *SQLStore) SubmissionFiles(ctx context.Context, submissionID string) ([]SubmissionFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,submission_id,filename,mime_type,blob_key,sort_order
		FROM submission_files WHERE submission_id=$1 ORDER BY sort_order, id`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SubmissionFile
	for rows.Next() {
		var f SubmissionFile
		if err := rows.Scan(&f.ID, &f.SubmissionID, &f.Filename, &f.MimeType, &f.BlobKey, &f.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UngradedSubmissions lists each user's latest submitted submission that has
// no non-negative grade recorded yet.
func (s *SQLStore) UngradedSubmissions(ctx context.Context, assignmentID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.assignment_id, s.user_id, s.attempt_no, s.status, s.online_html, s.grade, s.feedback
		FROM submissions s
		JOIN (SELECT user_id, MAX(attempt_no) AS max_no FROM submissions WHERE assignment_id=$1 GROUP BY user_id) last
		  ON last.user_id = s.user_id AND last.max_no = s.attempt_no
		WHERE s.assignment_id=$1 AND s.status='submitted' AND s.grade < 0
		ORDER BY s.user_id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.AssignmentID, &sub.UserID, &sub.AttemptNo, &sub.Status, &sub.OnlineHTML, &sub.Grade, &sub.Feedback); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) ApplySubmissionGrade(ctx context.Context, submissionID string, grade float64, feedback string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET grade=$1, feedback=$2, graded_at=$3 WHERE id=$4`,
		grade, feedback, time.Now().Unix(), submissionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}
