package grade

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func proxyServer(t *testing.T, calls *int, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		if r.URL.Path != "/api/moodle/grade" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-KEY") == "" {
			t.Errorf("missing X-API-KEY header")
		}
		handler(w, r)
	}))
}

func TestProxy_ClampsGradeAndDefaultsConfidence(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var req proxyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.MaxGrade != 100 {
			t.Errorf("maxgrade = %g, want 100", req.MaxGrade)
		}
		_, _ = w.Write([]byte(`{"grade": 150, "feedback": "ok"}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 100})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Grade != 100 {
		t.Fatalf("grade = %g, want clamped 100", res.Grade)
	}
	if res.Feedback != "ok" {
		t.Fatalf("feedback = %q", res.Feedback)
	}
	if res.Confidence != ConfidenceMedium {
		t.Fatalf("confidence = %q, want medium default", res.Confidence)
	}
}

func TestProxy_NegativeGradeClampedToZero(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"grade": -5, "feedback": "poor"}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if !res.Success || res.Grade != 0 {
		t.Fatalf("got %+v, want success with grade 0", res)
	}
}

func TestProxy_NoAPIKeyShortCircuits(t *testing.T) {
	calls := 0
	ts := proxyServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"grade": 1}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if res.Success {
		t.Fatalf("expected failure without key")
	}
	if res.Err != errNoAPIKey {
		t.Fatalf("err = %q", res.Err)
	}
	if calls != 0 {
		t.Fatalf("expected zero network calls, got %d", calls)
	}
}

func TestProxy_MissingGradeIsInvalidResponse(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"feedback": "no grade here"}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if res.Success || res.Err != "invalid response" {
		t.Fatalf("got %+v", res)
	}
}

func TestProxy_LogicalErrorUnder200(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "quota exceeded"}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if res.Success || res.Err != "quota exceeded" {
		t.Fatalf("got %+v", res)
	}
}

func TestProxy_HTTPErrorMessageFromBody(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"answer text required"}}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if res.Success || res.Err != "answer text required" {
		t.Fatalf("got %+v", res)
	}
}

func TestProxy_HTTPErrorFallsBackToStatus(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`not json`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if res.Success || res.Err != "HTTP 502" {
		t.Fatalf("got %+v", res)
	}
}

func TestProxy_Probe503ExtractsMessage(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	pr := c.Probe(context.Background())
	if pr.OK {
		t.Fatalf("expected probe failure")
	}
	if !strings.Contains(pr.Message, "unavailable") || !strings.Contains(pr.Message, "overloaded") {
		t.Fatalf("message = %q", pr.Message)
	}
}

func TestProxy_Probe401(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "bad"})
	pr := c.Probe(context.Background())
	if pr.OK || !strings.Contains(pr.Message, "API key") {
		t.Fatalf("got %+v", pr)
	}
}

func TestProxy_ProbeUnreachableIsIdempotent(t *testing.T) {
	// Nothing listens here; both probes must fail the same way.
	c := NewProxyClient(Options{BaseURL: "http://127.0.0.1:1", APIKey: "k"})
	first := c.Probe(context.Background())
	second := c.Probe(context.Background())
	if first.OK || second.OK {
		t.Fatalf("expected transport failures")
	}
	if (first.Message == "") != (second.Message == "") {
		t.Fatalf("probe failure category changed between calls: %q vs %q", first.Message, second.Message)
	}
}

func TestBulkGrade_KeysResultsByAnswerID(t *testing.T) {
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var req proxyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.AnswerText, "bad") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"grade": 5, "confidence": "high"}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	results := c.BulkGrade(context.Background(), "q", []Answer{
		{ID: "a1", Text: "good answer"},
		{ID: "a2", Text: "bad answer"},
		{ID: "a3", Text: "another good one"},
	}, 10, "", "")

	if len(results) != 3 {
		t.Fatalf("expected 3 keyed results, got %d", len(results))
	}
	if !results["a1"].Success || results["a1"].Grade != 5 || results["a1"].Confidence != ConfidenceHigh {
		t.Fatalf("a1: %+v", results["a1"])
	}
	if results["a2"].Success {
		t.Fatalf("a2 should have failed")
	}
	if !results["a3"].Success {
		t.Fatalf("a3 should have succeeded despite a2 failing")
	}
}

func TestOpenAI_ParsesNestedContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("auth header = %q", got)
		}
		var req struct {
			Messages       []map[string]string `json:"messages"`
			ResponseFormat map[string]string   `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request: %v", err)
		}
		if req.ResponseFormat["type"] != "json_object" {
			t.Errorf("response_format = %v", req.ResponseFormat)
		}
		inner, _ := json.Marshal(map[string]any{
			"grade": 7.5, "feedback": "solid", "explanation": "covers the main points", "confidence": "high",
		})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": string(inner)}}},
		})
	}))
	defer ts.Close()

	c := NewOpenAIClient(Options{BaseURL: ts.URL, APIKey: "k", Model: "gpt-4o-mini"})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Err)
	}
	if res.Grade != 7.5 || res.Feedback != "solid" || res.Confidence != ConfidenceHigh {
		t.Fatalf("got %+v", res)
	}
}

func TestOpenAI_MalformedContentIsInvalidResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "I think this is a B+"}}},
		})
	}))
	defer ts.Close()

	c := NewOpenAIClient(Options{BaseURL: ts.URL, APIKey: "k"})
	res := c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if res.Success || res.Err != "invalid response" {
		t.Fatalf("got %+v", res)
	}
}

func TestStandingGuidanceInjectedWithoutRubric(t *testing.T) {
	var seen proxyRequest
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		seen = proxyRequest{}
		_ = json.NewDecoder(r.Body).Decode(&seen)
		_, _ = w.Write([]byte(`{"grade": 1}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k"})
	c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if !strings.Contains(seen.SystemPrompt, "completeness") {
		t.Fatalf("standing guidance not injected: %q", seen.SystemPrompt)
	}

	c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10, Rubric: "be strict"})
	if strings.Contains(seen.SystemPrompt, "completeness") {
		t.Fatalf("guidance should be omitted when a rubric is present")
	}
	if seen.Rubric != "be strict" {
		t.Fatalf("rubric = %q", seen.Rubric)
	}
}

func TestDefaultRubricMergedWhenRequestHasNone(t *testing.T) {
	var seen proxyRequest
	ts := proxyServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&seen)
		_, _ = w.Write([]byte(`{"grade": 1}`))
	})
	defer ts.Close()

	c := NewProxyClient(Options{BaseURL: ts.URL, APIKey: "k", DefaultRubric: "house style"})
	c.SuggestGrade(context.Background(), Request{QuestionText: "q", AnswerText: "a", MaxGrade: 10})
	if seen.Rubric != "house style" {
		t.Fatalf("rubric = %q, want configured default", seen.Rubric)
	}
}
