package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

func geminiResponse(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			},
		}},
	})
	return string(body)
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "g-test", BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	return g
}

// TestGeminiSummarizeCommit verifies request shape and response decoding.
func TestGeminiSummarizeCommit(t *testing.T) {
	var request map[string]any
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/"+DefaultGeminiModel+":generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "g-test" {
			t.Errorf("Expected API key header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, geminiResponse(`{"languages":["Go"],"frameworks_libraries":[],"patterns":["retry"],"specialized_knowledge":[]}`))
	})

	got, err := g.SummarizeCommit(context.Background(), "diff --git a/x b/x")
	if err != nil {
		t.Fatalf("SummarizeCommit: %v", err)
	}
	if len(got.Languages) != 1 || got.Languages[0] != "Go" {
		t.Errorf("Expected languages [Go], got %v", got.Languages)
	}

	config, _ := request["generationConfig"].(map[string]any)
	if config["responseMimeType"] != "application/json" {
		t.Errorf("Expected JSON response MIME type, got %v", config["responseMimeType"])
	}
	if config["responseSchema"] == nil {
		t.Error("Expected a response schema")
	}
	if request["systemInstruction"] == nil {
		t.Error("Expected a system instruction")
	}
}

// TestGeminiNoCandidates verifies an empty candidate list is a hard failure.
func TestGeminiNoCandidates(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates": []}`)
	})

	_, err := g.SummarizeReadme(context.Background(), "# readme")
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Expected ErrNoCandidates, got %v", err)
	}
}

// TestGeminiSummarizeReadme verifies the README path.
func TestGeminiSummarizeReadme(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, geminiResponse(`{"summary":"A key-value store."}`))
	})

	got, err := g.SummarizeReadme(context.Background(), "# kv")
	if err != nil {
		t.Fatalf("SummarizeReadme: %v", err)
	}
	if got != "A key-value store." {
		t.Errorf("Unexpected summary %q", got)
	}
}

// TestFirstText covers the candidate checks directly.
func TestFirstText(t *testing.T) {
	if _, err := firstText(nil); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("nil response: expected ErrNoCandidates, got %v", err)
	}
	if _, err := firstText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}); !errors.Is(err, ErrNoContent) {
		t.Errorf("nil content: expected ErrNoContent, got %v", err)
	}
	empty := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}
	if _, err := firstText(empty); !errors.Is(err, ErrNoContent) {
		t.Errorf("no parts: expected ErrNoContent, got %v", err)
	}
}

// TestIsGeminiRateLimit verifies only 429 is retried.
func TestIsGeminiRateLimit(t *testing.T) {
	if !isGeminiRateLimit(fmt.Errorf("wrapped: %w", genai.APIError{Code: 429})) {
		t.Error("429 should be a rate limit")
	}
	if isGeminiRateLimit(genai.APIError{Code: 500}) {
		t.Error("500 should not be a rate limit")
	}
	if isGeminiRateLimit(errors.New("boom")) {
		t.Error("plain error should not be a rate limit")
	}
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openai.NewClient(
		option.WithAPIKey("sk-test"),
		option.WithBaseURL(server.URL+"/v1/"),
		option.WithMaxRetries(0),
	)
	return NewOpenAI(&client, "", 0, nil)
}

func chatResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

// TestOpenAISummarizeCommit verifies JSON object mode and decoding.
func TestOpenAISummarizeCommit(t *testing.T) {
	var request map[string]any
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse(`{"languages":["TypeScript"],"frameworks_libraries":["React"],"patterns":[],"specialized_knowledge":[]}`))
	})

	got, err := o.SummarizeCommit(context.Background(), "diff")
	if err != nil {
		t.Fatalf("SummarizeCommit: %v", err)
	}
	if len(got.FrameworksLibraries) != 1 || got.FrameworksLibraries[0] != "React" {
		t.Errorf("Expected frameworks [React], got %v", got.FrameworksLibraries)
	}

	format, _ := request["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("Expected json_object response format, got %v", format)
	}
	if request["model"] != DefaultOpenAIModel {
		t.Errorf("Expected model %s, got %v", DefaultOpenAIModel, request["model"])
	}
}

// TestOpenAINoChoices verifies an empty choices list is a hard failure.
func TestOpenAINoChoices(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o","choices":[]}`)
	})

	_, err := o.SummarizeReadme(context.Background(), "# readme")
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Expected ErrNoCandidates, got %v", err)
	}
}

// TestOpenAIMismatchedSchema verifies unparseable content is a decode error.
func TestOpenAIMismatchedSchema(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse(`{"languages":["Go"]}`))
	})

	_, err := o.SummarizeCommit(context.Background(), "diff")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}
