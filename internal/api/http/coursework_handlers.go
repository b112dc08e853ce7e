package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/open-lms-tools/gradeassist/internal/coursework"
)

// Coursework ingest endpoints. The host platform (or an admin script) syncs
// quizzes, questions, attempts and assignments in through these before any
// batch run; they are plain upserts.

// POST /coursework/quizzes
func PutQuizHandler(store coursework.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q coursework.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := store.PutQuiz(r.Context(), q); err != nil {
			http.Error(w, "store quiz: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// POST /coursework/questions
func PutQuestionHandler(store coursework.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q coursework.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if q.QuizID == "" {
			http.Error(w, "quiz_id is required", http.StatusBadRequest)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			http.Error(w, "store question: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// POST /coursework/attempts
func PutAttemptHandler(store coursework.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a coursework.Attempt
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if a.QuizID == "" || a.UserID == "" {
			http.Error(w, "quiz_id and user_id are required", http.StatusBadRequest)
			return
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Status == "" {
			a.Status = "in_progress"
		}
		if err := store.PutAttempt(r.Context(), a); err != nil {
			http.Error(w, "store attempt: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// POST /coursework/answers
func PutAnswerHandler(store coursework.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AttemptID    string `json:"attempt_id"`
			QuestionID   string `json:"question_id"`
			AnswerHTML   string `json:"answer_html"`
			NeedsGrading bool   `json:"needs_grading"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.AttemptID == "" || req.QuestionID == "" {
			http.Error(w, "attempt_id and question_id are required", http.StatusBadRequest)
			return
		}
		if err := store.PutAnswer(r.Context(), req.AttemptID, req.QuestionID, req.AnswerHTML, req.NeedsGrading); err != nil {
			http.Error(w, "store answer: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /coursework/assignments
func PutAssignmentHandler(store coursework.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a coursework.Assignment
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.MaxGrade <= 0 {
			a.MaxGrade = 100
		}
		if err := store.PutAssignment(r.Context(), a); err != nil {
			http.Error(w, "store assignment: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}
