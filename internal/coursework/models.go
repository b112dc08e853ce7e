// Package coursework is the host-side grading store: quizzes, attempts,
// assignments and submissions that AI grade suggestions are written into.
package coursework

type Quiz struct {
	ID       string `json:"id"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
}

type Question struct {
	ID           string  `json:"id"`
	QuizID       string  `json:"quiz_id"`
	Slot         int     `json:"slot"`
	Type         string  `json:"type"` // essay, mcq_single, ...
	Name         string  `json:"name,omitempty"`
	QuestionHTML string  `json:"question_html"`
	MaxGrade     float64 `json:"max_grade"`
	GraderInfo   string  `json:"grader_info,omitempty"`
	Rubric       string  `json:"rubric,omitempty"`
}

type Attempt struct {
	ID         string `json:"id"`
	QuizID     string `json:"quiz_id"`
	UserID     string `json:"user_id"`
	Status     string `json:"status"` // in_progress|finished
	FinishedAt int64  `json:"finished_at,omitempty"`
}

// AnswerCandidate is one ungraded essay answer eligible for a batch run.
type AnswerCandidate struct {
	AttemptID  string `json:"attempt_id"`
	QuestionID string `json:"question_id"`
	UserID     string `json:"user_id"`
	AnswerHTML string `json:"answer_html"`
}

type Assignment struct {
	ID         string  `json:"id"`
	CourseID   string  `json:"course_id"`
	Name       string  `json:"name"`
	IntroHTML  string  `json:"intro_html,omitempty"`
	GraderInfo string  `json:"grader_info,omitempty"`
	Rubric     string  `json:"rubric,omitempty"`
	MaxGrade   float64 `json:"max_grade"`
}

type Submission struct {
	ID           string  `json:"id"`
	AssignmentID string  `json:"assignment_id"`
	UserID       string  `json:"user_id"`
	AttemptNo    int     `json:"attempt_no"`
	Status       string  `json:"status"` // draft|submitted
	OnlineHTML   string  `json:"online_html,omitempty"`
	Grade        float64 `json:"grade"` // negative until graded
	Feedback     string  `json:"feedback,omitempty"`
}

type SubmissionFile struct {
	ID           string `json:"id"`
	SubmissionID string `json:"submission_id"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	BlobKey      string `json:"blob_key"`
	SortOrder    int    `json:"sort_order"`
}
