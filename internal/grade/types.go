// Package grade calls a remote AI grading backend and normalizes its
// responses into grade suggestions.
package grade

// Confidence is the backend's self-reported certainty in a suggestion.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Request carries everything needed to grade one answer. Built fresh per
// graded item; never persisted.
type Request struct {
	QuestionText string
	AnswerText   string
	MaxGrade     float64
	Rubric       string
	GraderInfo   string
	SystemPrompt string
}

// Result is a normalized grade suggestion. On success Grade lies in
// [0, MaxGrade of the request]; on failure Err carries the cause.
type Result struct {
	Success     bool       `json:"success"`
	Grade       float64    `json:"grade"`
	Feedback    string     `json:"feedback"`
	Explanation string     `json:"explanation"`
	Confidence  Confidence `json:"confidence"`
	Err         string     `json:"error,omitempty"`
}

func failure(msg string) Result {
	return Result{Err: msg}
}

// Answer is one keyed answer in a bulk grading call.
type Answer struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ProbeResult is the outcome of a connectivity check.
type ProbeResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
