// Package api exposes the grading surface over HTTP. Handlers are thin:
// decode, delegate, encode.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/open-lms-tools/gradeassist/internal/batch"
	"github.com/open-lms-tools/gradeassist/internal/grade"
)

// tallyResponse is the envelope for every bulk grading endpoint.
type tallyResponse struct {
	Success bool   `json:"success"`
	Graded  int    `json:"graded"`
	Failed  int    `json:"failed"`
	Message string `json:"message"`
}

func writeTally(w http.ResponseWriter, t batch.Tally, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(tallyResponse{Success: false, Message: err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(tallyResponse{Success: true, Graded: t.Graded, Failed: t.Failed, Message: t.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GradeQuestionHandler grades all ungraded answers to one essay question.
// POST /quizzes/{quizID}/questions/{questionID}/grade  { "slot": 2 }
func GradeQuestionHandler(o *batch.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID := chi.URLParam(r, "quizID")
		questionID := chi.URLParam(r, "questionID")
		var req struct {
			Slot int `json:"slot"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t, err := o.GradeQuestion(r.Context(), quizID, req.Slot, questionID)
		writeTally(w, t, err)
	}
}

// GradeQuizHandler grades every essay question in a quiz.
// POST /quizzes/{quizID}/grade
func GradeQuizHandler(o *batch.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := o.GradeQuiz(r.Context(), chi.URLParam(r, "quizID"))
		writeTally(w, t, err)
	}
}

// GradeAssignmentHandler grades every ungraded submission of an assignment.
// POST /assignments/{assignmentID}/grade
func GradeAssignmentHandler(o *batch.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := o.GradeAssignment(r.Context(), chi.URLParam(r, "assignmentID"))
		writeTally(w, t, err)
	}
}

// GradeSubmissionHandler suggests a grade for one user's submission without
// persisting it.
// POST /assignments/{assignmentID}/submissions/{userID}/grade
func GradeSubmissionHandler(o *batch.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Description string  `json:"description"`
			MaxGrade    float64 `json:"max_grade"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}
		res := o.GradeSubmission(r.Context(),
			chi.URLParam(r, "assignmentID"), chi.URLParam(r, "userID"),
			req.Description, req.MaxGrade)
		status := http.StatusOK
		if !res.Success {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, res)
	}
}

// GradeAnswerHandler grades ad-hoc text that is not stored anywhere.
// POST /grade/answer
func GradeAnswerHandler(client grade.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionText string  `json:"question_text"`
			AnswerText   string  `json:"answer_text"`
			MaxGrade     float64 `json:"max_grade"`
			Rubric       string  `json:"rubric"`
			GraderInfo   string  `json:"grader_info"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.AnswerText) == "" {
			http.Error(w, "answer_text is required", http.StatusBadRequest)
			return
		}
		if req.MaxGrade <= 0 {
			req.MaxGrade = 100
		}
		res := client.SuggestGrade(r.Context(), grade.Request{
			QuestionText: req.QuestionText,
			AnswerText:   req.AnswerText,
			MaxGrade:     req.MaxGrade,
			Rubric:       req.Rubric,
			GraderInfo:   req.GraderInfo,
		})
		writeJSON(w, http.StatusOK, res)
	}
}

// GradeAnswersHandler grades several ad-hoc answers to the same question and
// returns a result per answer ID.
// POST /grade/answers
func GradeAnswersHandler(client grade.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionText string         `json:"question_text"`
			Answers      []grade.Answer `json:"answers"`
			MaxGrade     float64        `json:"max_grade"`
			Rubric       string         `json:"rubric"`
			GraderInfo   string         `json:"grader_info"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.Answers) == 0 {
			http.Error(w, "answers is required", http.StatusBadRequest)
			return
		}
		if req.MaxGrade <= 0 {
			req.MaxGrade = 100
		}
		results := client.BulkGrade(r.Context(), req.QuestionText, req.Answers, req.MaxGrade, req.Rubric, req.GraderInfo)
		writeJSON(w, http.StatusOK, results)
	}
}

// AIStatusHandler reports whether the grading backend is reachable.
// GET /ai/status
func AIStatusHandler(client grade.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !client.IsConfigured() {
			writeJSON(w, http.StatusOK, grade.ProbeResult{OK: false, Message: "no api key configured"})
			return
		}
		writeJSON(w, http.StatusOK, client.Probe(r.Context()))
	}
}
