package grade

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// proxyClient talks to the purpose-built grading proxy: flat JSON request,
// flat JSON response, X-API-KEY auth. This is the canonical backend.
type proxyClient struct {
	opts  Options
	httpc *http.Client
}

// NewProxyClient builds the grading-proxy wire adapter.
func NewProxyClient(opts Options) Client {
	return &proxyClient{opts: opts, httpc: opts.httpClient()}
}

func (c *proxyClient) IsConfigured() bool { return c.opts.APIKey != "" }

type proxyRequest struct {
	QuestionText string  `json:"questiontext"`
	AnswerText   string  `json:"answertext"`
	MaxGrade     float64 `json:"maxgrade"`
	Rubric       string  `json:"rubric,omitempty"`
	GraderInfo   string  `json:"graderinfo,omitempty"`
	SystemPrompt string  `json:"systemprompt,omitempty"`
}

func (c *proxyClient) SuggestGrade(ctx context.Context, req Request) Result {
	if !c.IsConfigured() {
		return failure(errNoAPIKey)
	}
	req.Rubric = mergeRubric(req.Rubric, c.opts.DefaultRubric)

	system := req.SystemPrompt
	if system == "" {
		system = c.opts.SystemPrompt
	}
	if req.GraderInfo == "" && req.Rubric == "" {
		if system != "" {
			system += "\n\n"
		}
		system += standingGuidance
	}

	status, raw, err := c.post(ctx, proxyRequest{
		QuestionText: req.QuestionText,
		AnswerText:   req.AnswerText,
		MaxGrade:     req.MaxGrade,
		Rubric:       req.Rubric,
		GraderInfo:   req.GraderInfo,
		SystemPrompt: system,
	})
	if err != nil {
		return failure(err.Error())
	}
	if status/100 != 2 {
		return failure(httpErrorMessage(status, raw))
	}

	// The proxy reports logical failures under HTTP 200.
	var check struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &check); err != nil {
		return failure("invalid response")
	}
	if check.Error != "" {
		return failure(check.Error)
	}
	if check.Success != nil && !*check.Success {
		return failure("grading failed")
	}
	return parseGradePayload(raw, req.MaxGrade)
}

func (c *proxyClient) BulkGrade(ctx context.Context, questionText string, answers []Answer, maxGrade float64, rubric, graderInfo string) map[string]Result {
	return bulkGrade(ctx, c, questionText, answers, maxGrade, rubric, graderInfo)
}

// Probe posts a minimal placeholder payload and maps the status:
// 200 ok, 401 unauthorized, 503 service unavailable, else generic.
func (c *proxyClient) Probe(ctx context.Context) ProbeResult {
	status, raw, err := c.post(ctx, proxyRequest{
		QuestionText: "ping",
		AnswerText:   "ping",
		MaxGrade:     1,
	})
	if err != nil {
		return ProbeResult{Message: err.Error()}
	}
	return probeMessage(status, raw)
}

func (c *proxyClient) post(ctx context.Context, body proxyRequest) (int, []byte, error) {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", c.opts.BaseURL+"/api/moodle/grade", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.opts.APIKey)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw, nil
}
