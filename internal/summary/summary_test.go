package summary

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// TestDecodeCommitSummary verifies parsing and normalization of a valid response.
func TestDecodeCommitSummary(t *testing.T) {
	text := `{"languages": ["Go", " Go ", ""], "frameworks_libraries": ["chi"], "patterns": [], "specialized_knowledge": ["HTTP caching"], "extra": 1}`

	got, err := DecodeCommitSummary(text)
	if err != nil {
		t.Fatalf("Failed to decode valid response: %v", err)
	}

	if !reflect.DeepEqual(got.Languages, []string{"Go"}) {
		t.Errorf("Expected languages [Go], got %v", got.Languages)
	}
	if !reflect.DeepEqual(got.FrameworksLibraries, []string{"chi"}) {
		t.Errorf("Expected frameworks [chi], got %v", got.FrameworksLibraries)
	}
	if got.Patterns == nil || len(got.Patterns) != 0 {
		t.Errorf("Expected empty non-nil patterns, got %#v", got.Patterns)
	}
	if !reflect.DeepEqual(got.SpecializedKnowledge, []string{"HTTP caching"}) {
		t.Errorf("Expected specialized knowledge [HTTP caching], got %v", got.SpecializedKnowledge)
	}
}

// TestDecodeCommitSummary_MissingField verifies strict decoding.
func TestDecodeCommitSummary_MissingField(t *testing.T) {
	tests := map[string]string{
		"missing patterns": `{"languages": [], "frameworks_libraries": [], "specialized_knowledge": []}`,
		"null languages":   `{"languages": null, "frameworks_libraries": [], "patterns": [], "specialized_knowledge": []}`,
		"wrong type":       `{"languages": "Go", "frameworks_libraries": [], "patterns": [], "specialized_knowledge": []}`,
		"not json":         `Here are the details you asked for`,
		"empty":            ``,
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCommitSummary(text)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Expected ErrDecode, got %v", err)
			}
		})
	}
}

// TestDecodeCommitSummary_Fenced verifies a ```json fence is tolerated.
func TestDecodeCommitSummary_Fenced(t *testing.T) {
	text := "```json\n{\"languages\": [\"Rust\"], \"frameworks_libraries\": [], \"patterns\": [], \"specialized_knowledge\": []}\n```"

	got, err := DecodeCommitSummary(text)
	if err != nil {
		t.Fatalf("Failed to decode fenced response: %v", err)
	}
	if !reflect.DeepEqual(got.Languages, []string{"Rust"}) {
		t.Errorf("Expected languages [Rust], got %v", got.Languages)
	}
}

// TestDecodeReadmeSummary covers the README response shape.
func TestDecodeReadmeSummary(t *testing.T) {
	got, err := DecodeReadmeSummary(`{"summary": "  A CLI for syncing docs.  "}`)
	if err != nil {
		t.Fatalf("Failed to decode valid response: %v", err)
	}
	if got != "A CLI for syncing docs." {
		t.Errorf("Expected trimmed summary, got %q", got)
	}

	if _, err := DecodeReadmeSummary(`{"text": "x"}`); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode for missing summary, got %v", err)
	}
	if _, err := DecodeReadmeSummary(`{"summary": "   "}`); !errors.Is(err, ErrEmptySummary) {
		t.Errorf("Expected ErrEmptySummary, got %v", err)
	}
}

// TestTruncateContent verifies truncation works correctly for very long content.
func TestTruncateContent(t *testing.T) {
	o := NewOpenAI(nil, "", 0, nil)

	// ~100k chars, well over 16k tokens
	longContent := strings.Repeat("This is a test content. ", 4000)

	truncated := o.truncateContent(longContent)

	expectedMaxChars := DefaultMaxTokens * 4
	if len(truncated) != expectedMaxChars {
		t.Errorf("Expected truncated length %d, got %d", expectedMaxChars, len(truncated))
	}
	if !strings.HasPrefix(longContent, truncated) {
		t.Error("Truncated content should be a prefix of original content")
	}
}

// TestTruncateContent_Short verifies short content is not truncated.
func TestTruncateContent_Short(t *testing.T) {
	o := NewOpenAI(nil, "", 0, nil)

	shortContent := strings.Repeat("Short. ", 140)

	if truncated := o.truncateContent(shortContent); truncated != shortContent {
		t.Error("Short content should not be truncated")
	}
}

// TestTruncateContent_RuneBoundary verifies a multi-byte rune is never split.
func TestTruncateContent_RuneBoundary(t *testing.T) {
	o := NewOpenAI(nil, "", 1, nil) // 4 chars

	truncated := o.truncateContent("abcé日本")

	if truncated != "abc" {
		t.Errorf("Expected %q, got %q", "abc", truncated)
	}
}
