// Package batch runs bulk AI grading over ungraded coursework and accounts
// for per-item outcomes.
package batch

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/open-lms-tools/gradeassist/internal/coursework"
	"github.com/open-lms-tools/gradeassist/internal/extract"
	"github.com/open-lms-tools/gradeassist/internal/grade"
	"github.com/open-lms-tools/gradeassist/internal/submission"
)

// Tally accumulates one batch run. Counts only ever increase; every
// candidate item ends up in exactly one of the two counters.
type Tally struct {
	Graded  int    `json:"graded"`
	Failed  int    `json:"failed"`
	Message string `json:"message"`
}

const msgNoCandidates = "no ungraded items"

func (t *Tally) finish() Tally {
	t.Message = fmt.Sprintf("graded %d, failed %d", t.Graded, t.Failed)
	return *t
}

// Publisher pushes an accepted grade to an external gradebook. Optional;
// publish failures are logged and never affect the tally.
type Publisher interface {
	PublishGrade(ctx context.Context, sub coursework.Submission, grade, maxGrade float64) error
}

type Orchestrator struct {
	store     coursework.Store
	resolver  *submission.Resolver
	client    grade.Client
	publisher Publisher
}

type Option func(*Orchestrator)

// WithPublisher enables gradebook write-back after successful persists.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

func New(store coursework.Store, resolver *submission.Resolver, client grade.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{store: store, resolver: resolver, client: client}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GradeQuestion grades one question's ungraded essay answers across all
// finished attempts of a quiz.
func (o *Orchestrator) GradeQuestion(ctx context.Context, quizID string, slot int, questionID string) (Tally, error) {
	q, err := o.store.GetQuestion(ctx, questionID)
	if err != nil {
		return Tally{}, fmt.Errorf("question lookup: %w", err)
	}
	candidates, err := o.store.UngradedAnswers(ctx, quizID, slot, questionID)
	if err != nil {
		return Tally{}, fmt.Errorf("candidate lookup: %w", err)
	}
	if len(candidates) == 0 {
		return Tally{Message: msgNoCandidates}, nil
	}
	var t Tally
	o.gradeAnswers(ctx, q, candidates, &t)
	return t.finish(), nil
}

// GradeQuiz grades every essay question in the quiz, each with its own
// grader info and rubric.
func (o *Orchestrator) GradeQuiz(ctx context.Context, quizID string) (Tally, error) {
	questions, err := o.store.EssayQuestions(ctx, quizID)
	if err != nil {
		return Tally{}, fmt.Errorf("question lookup: %w", err)
	}
	var t Tally
	total := 0
	for _, q := range questions {
		candidates, err := o.store.UngradedAnswers(ctx, quizID, q.Slot, q.ID)
		if err != nil {
			log.Printf("batch: candidates for question %s: %v", q.ID, err)
			continue
		}
		total += len(candidates)
		o.gradeAnswers(ctx, q, candidates, &t)
	}
	if total == 0 {
		return Tally{Message: msgNoCandidates}, nil
	}
	return t.finish(), nil
}

// GradeAssignment grades each user's latest submitted, still ungraded
// submission.
func (o *Orchestrator) GradeAssignment(ctx context.Context, assignmentID string) (Tally, error) {
	a, err := o.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Tally{}, fmt.Errorf("assignment lookup: %w", err)
	}
	subs, err := o.store.UngradedSubmissions(ctx, assignmentID)
	if err != nil {
		return Tally{}, fmt.Errorf("candidate lookup: %w", err)
	}
	if len(subs) == 0 {
		return Tally{Message: msgNoCandidates}, nil
	}
	var t Tally
	for _, sub := range subs {
		o.gradeSubmissionItem(ctx, a, sub, &t)
	}
	return t.finish(), nil
}

// GradeSubmission grades a single user's latest submission and returns the
// suggestion without persisting it; the teacher decides whether to apply it.
func (o *Orchestrator) GradeSubmission(ctx context.Context, assignmentID, userID, description string, maxGrade float64) grade.Result {
	a, err := o.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return grade.Result{Err: "assignment lookup failed: " + err.Error()}
	}
	sub, err := o.store.GetSubmission(ctx, assignmentID, userID)
	if err != nil {
		return grade.Result{Err: "submission lookup failed: " + err.Error()}
	}
	text := o.resolver.ResolveText(ctx, sub)
	if text == "" {
		return grade.Result{Err: "no gradable text in submission"}
	}
	question := strings.TrimSpace(description)
	if question == "" {
		question = extract.StripHTML(a.IntroHTML)
	}
	if maxGrade <= 0 {
		maxGrade = a.MaxGrade
	}
	return o.client.SuggestGrade(ctx, grade.Request{
		QuestionText: question,
		AnswerText:   text,
		MaxGrade:     maxGrade,
		Rubric:       a.Rubric,
		GraderInfo:   a.GraderInfo,
	})
}

// gradeAnswers runs the inner loop for quiz answer candidates. Nothing in
// the loop may abort the batch; a panicking item counts as failed.
func (o *Orchestrator) gradeAnswers(ctx context.Context, q coursework.Question, candidates []coursework.AnswerCandidate, t *Tally) {
	questionText := extract.StripHTML(q.QuestionHTML)
	for _, c := range candidates {
		ok := o.runItem(func() bool {
			text := strings.TrimSpace(extract.StripHTML(c.AnswerHTML))
			if text == "" {
				return false
			}
			res := o.client.SuggestGrade(ctx, grade.Request{
				QuestionText: questionText,
				AnswerText:   text,
				MaxGrade:     q.MaxGrade,
				Rubric:       q.Rubric,
				GraderInfo:   q.GraderInfo,
			})
			if !res.Success {
				log.Printf("batch: grade answer %s/%s: %s", c.AttemptID, c.QuestionID, res.Err)
				return false
			}
			if err := o.store.ApplyAnswerGrade(ctx, c.AttemptID, c.QuestionID, res.Grade, res.Feedback); err != nil {
				log.Printf("batch: apply grade %s/%s: %v", c.AttemptID, c.QuestionID, err)
				return false
			}
			return true
		})
		if ok {
			t.Graded++
		} else {
			t.Failed++
		}
	}
}

func (o *Orchestrator) gradeSubmissionItem(ctx context.Context, a coursework.Assignment, sub coursework.Submission, t *Tally) {
	ok := o.runItem(func() bool {
		text := o.resolver.ResolveText(ctx, sub)
		if text == "" {
			return false
		}
		res := o.client.SuggestGrade(ctx, grade.Request{
			QuestionText: extract.StripHTML(a.IntroHTML),
			AnswerText:   text,
			MaxGrade:     a.MaxGrade,
			Rubric:       a.Rubric,
			GraderInfo:   a.GraderInfo,
		})
		if !res.Success {
			log.Printf("batch: grade submission %s: %s", sub.ID, res.Err)
			return false
		}
		if err := o.store.ApplySubmissionGrade(ctx, sub.ID, res.Grade, res.Feedback); err != nil {
			log.Printf("batch: apply grade %s: %v", sub.ID, err)
			return false
		}
		if o.publisher != nil {
			if err := o.publisher.PublishGrade(ctx, sub, res.Grade, a.MaxGrade); err != nil {
				log.Printf("batch: gradebook publish %s: %v", sub.ID, err)
			}
		}
		return true
	})
	if ok {
		t.Graded++
	} else {
		t.Failed++
	}
}

// runItem converts an unexpected fault inside one batch item into a failed
// outcome instead of aborting the run.
func (o *Orchestrator) runItem(fn func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("batch: item panicked: %v", r)
			ok = false
		}
	}()
	return fn()
}
