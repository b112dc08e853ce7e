package grade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultSystemPrompt = "You are an experienced teacher grading essay answers. " +
	"Respond with a single JSON object with the fields " +
	`"grade" (number), "feedback" (string, addressed to the student), ` +
	`"explanation" (string, addressed to the teacher) and ` +
	`"confidence" ("high", "medium" or "low").`

// openaiClient talks to a chat-completion style endpoint: the grade JSON
// comes back embedded in choices[0].message.content.
type openaiClient struct {
	opts  Options
	httpc *http.Client
}

// NewOpenAIClient builds the chat-completion wire adapter.
func NewOpenAIClient(opts Options) Client {
	return &openaiClient{opts: opts, httpc: opts.httpClient()}
}

func (c *openaiClient) IsConfigured() bool { return c.opts.APIKey != "" }

func (c *openaiClient) SuggestGrade(ctx context.Context, req Request) Result {
	if !c.IsConfigured() {
		return failure(errNoAPIKey)
	}
	req.Rubric = mergeRubric(req.Rubric, c.opts.DefaultRubric)

	system := req.SystemPrompt
	if system == "" {
		system = c.opts.SystemPrompt
	}
	if system == "" {
		system = defaultSystemPrompt
	}

	body, _ := json.Marshal(map[string]any{
		"model": c.opts.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": composePrompt(req)},
		},
		"max_tokens":      c.opts.MaxTokens,
		"temperature":     c.opts.Temperature,
		"response_format": map[string]string{"type": "json_object"},
	})
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return failure(err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return failure(err.Error())
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return failure(httpErrorMessage(resp.StatusCode, raw))
	}

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Choices) == 0 {
		return failure("invalid response")
	}
	return parseGradePayload([]byte(envelope.Choices[0].Message.Content), req.MaxGrade)
}

func (c *openaiClient) BulkGrade(ctx context.Context, questionText string, answers []Answer, maxGrade float64, rubric, graderInfo string) map[string]Result {
	return bulkGrade(ctx, c, questionText, answers, maxGrade, rubric, graderInfo)
}

// Probe sends a minimal one-token completion request and maps the status.
func (c *openaiClient) Probe(ctx context.Context) ProbeResult {
	body, _ := json.Marshal(map[string]any{
		"model":      c.opts.Model,
		"messages":   []map[string]string{{"role": "user", "content": "ping"}},
		"max_tokens": 1,
	})
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ProbeResult{Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return ProbeResult{Message: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return probeMessage(resp.StatusCode, raw)
}

// composePrompt renders the user message for the chat variant.
func composePrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", req.QuestionText)
	fmt.Fprintf(&b, "Student answer:\n%s\n\n", req.AnswerText)
	fmt.Fprintf(&b, "Maximum grade: %g\n", req.MaxGrade)
	if req.GraderInfo != "" {
		fmt.Fprintf(&b, "\nModel answer / grading notes:\n%s\n", req.GraderInfo)
	}
	if req.Rubric != "" {
		fmt.Fprintf(&b, "\nGrading rubric:\n%s\n", req.Rubric)
	}
	if req.GraderInfo == "" && req.Rubric == "" {
		b.WriteString("\n" + standingGuidance + "\n")
	}
	return b.String()
}

// parseGradePayload decodes the grade JSON shared by both wire variants.
// A missing or malformed grade field is a semantic failure, not a fault.
func parseGradePayload(raw []byte, maxGrade float64) Result {
	var payload struct {
		Grade       *float64 `json:"grade"`
		Feedback    string   `json:"feedback"`
		Explanation string   `json:"explanation"`
		Confidence  string   `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Grade == nil {
		return failure("invalid response")
	}
	return Result{
		Success:     true,
		Grade:       clampGrade(*payload.Grade, maxGrade),
		Feedback:    payload.Feedback,
		Explanation: payload.Explanation,
		Confidence:  normalizeConfidence(payload.Confidence),
	}
}
