package coursework

import "context"

// Store is the contract the grading pipeline has with the host platform's
// persistence. Candidate queries feed the batch orchestrator; the Apply
// methods are the grade sink.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	PutQuestion(ctx context.Context, q Question) error
	PutAttempt(ctx context.Context, a Attempt) error
	PutAnswer(ctx context.Context, attemptID, questionID, answerHTML string, needsGrading bool) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	EssayQuestions(ctx context.Context, quizID string) ([]Question, error)
	UngradedAnswers(ctx context.Context, quizID string, slot int, questionID string) ([]AnswerCandidate, error)
	ApplyAnswerGrade(ctx context.Context, attemptID, questionID string, grade float64, feedback string) error

	PutAssignment(ctx context.Context, a Assignment) error
	PutSubmission(ctx context.Context, s Submission) error
	AddSubmissionFile(ctx context.Context, f SubmissionFile) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	GetSubmission(ctx context.Context, assignmentID, userID string) (Submission, error)
	SubmissionFiles(ctx context.Context, submissionID string) ([]SubmissionFile, error)
	UngradedSubmissions(ctx context.Context, assignmentID string) ([]Submission, error)
	ApplySubmissionGrade(ctx context.Context, submissionID string, grade float64, feedback string) error
}
