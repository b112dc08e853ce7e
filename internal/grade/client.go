package grade

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/open-lms-tools/gradeassist/internal/config"
)

// Client is the grading backend contract. Both wire adapters satisfy it;
// which one runs is a single configuration choice.
type Client interface {
	IsConfigured() bool
	SuggestGrade(ctx context.Context, req Request) Result
	BulkGrade(ctx context.Context, questionText string, answers []Answer, maxGrade float64, rubric, graderInfo string) map[string]Result
	Probe(ctx context.Context) ProbeResult
}

// NewFromConfig selects the wire adapter by cfg.AIBackend.
func NewFromConfig(cfg config.Config) Client {
	opts := Options{
		BaseURL:       cfg.AIBaseURL,
		APIKey:        cfg.AIAPIKey,
		Model:         cfg.AIModel,
		MaxTokens:     cfg.AIMaxTokens,
		Temperature:   cfg.AITemperature,
		DefaultRubric: cfg.DefaultRubric,
		SystemPrompt:  cfg.SystemPrompt,
	}
	switch cfg.AIBackend {
	case config.BackendOpenAI:
		return NewOpenAIClient(opts)
	default:
		return NewProxyClient(opts)
	}
}

// Options configures a client adapter.
type Options struct {
	BaseURL       string
	APIKey        string
	Model         string
	MaxTokens     int
	Temperature   float64
	DefaultRubric string
	SystemPrompt  string
	HTTPClient    *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 120 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

const errNoAPIKey = "no api key configured"

// standingGuidance is injected when a request carries neither a rubric nor
// grader info, so the model still has grading criteria to work with.
const standingGuidance = "No model answer or rubric was provided. " +
	"Grade the answer on completeness, structure and language. " +
	"If you are unsure about factual correctness, set confidence to \"low\"."

// mergeRubric falls back to the configured default when the request has none.
func mergeRubric(reqRubric, defaultRubric string) string {
	if strings.TrimSpace(reqRubric) != "" {
		return reqRubric
	}
	return defaultRubric
}

// clampGrade forces g into [0, maxGrade]. Out-of-range backend values are
// clamped, never rejected.
func clampGrade(g, maxGrade float64) float64 {
	if g < 0 {
		return 0
	}
	if g > maxGrade {
		return maxGrade
	}
	return g
}

func normalizeConfidence(c string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(c))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceLow:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

// httpErrorMessage digs a human-readable message out of an error body,
// falling back to the HTTP status code.
func httpErrorMessage(status int, body []byte) string {
	if msg := errorBodyMessage(body); msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP %d", status)
}

func errorBodyMessage(body []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			return plain
		}
	}
	return envelope.Message
}

// bulkGrade is the shared bulk implementation: sequential per-answer calls,
// one failing or slow answer never aborts the rest.
func bulkGrade(ctx context.Context, c Client, questionText string, answers []Answer, maxGrade float64, rubric, graderInfo string) map[string]Result {
	out := make(map[string]Result, len(answers))
	for _, a := range answers {
		out[a.ID] = c.SuggestGrade(ctx, Request{
			QuestionText: questionText,
			AnswerText:   a.Text,
			MaxGrade:     maxGrade,
			Rubric:       rubric,
			GraderInfo:   graderInfo,
		})
	}
	return out
}

// probeMessage maps a probe response status to a user-facing message.
func probeMessage(status int, body []byte) ProbeResult {
	switch {
	case status/100 == 2:
		return ProbeResult{OK: true, Message: "AI grading service reachable"}
	case status == http.StatusUnauthorized:
		return ProbeResult{Message: "unauthorized: check the configured API key"}
	case status == http.StatusServiceUnavailable:
		msg := errorBodyMessage(body)
		if msg == "" {
			msg = "try again later"
		}
		return ProbeResult{Message: "AI grading service unavailable: " + msg}
	default:
		return ProbeResult{Message: httpErrorMessage(status, body)}
	}
}
