// Package summary extracts structured technical summaries from commit patches
// and short summaries from repository READMEs using a generative model.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bull/commitscope/internal/storage"
)

// Summarizer is implemented by every provider.
type Summarizer interface {
	// SummarizeCommit extracts the technical summary of a commit from the
	// enrichment text (patch, optionally preceded by a README summary).
	SummarizeCommit(ctx context.Context, text string) (storage.CommitSummary, error)
	// SummarizeReadme returns a short summary of README text.
	SummarizeReadme(ctx context.Context, text string) (string, error)
}

const commitInstruction = "Analyze the code changes and extract technical details into the specified structure. " +
	"Focus on technical aspects that would indicate developer expertise and skills required. Be concise and specific."

const readmeInstruction = "Provide a concise summary of this repository's README, focusing on the project's purpose, " +
	"key features, and technical aspects."

// commitWire has pointer fields so a missing or null member is detectable.
type commitWire struct {
	Languages            *[]string `json:"languages"`
	FrameworksLibraries  *[]string `json:"frameworks_libraries"`
	Patterns             *[]string `json:"patterns"`
	SpecializedKnowledge *[]string `json:"specialized_knowledge"`
}

type readmeWire struct {
	Summary *string `json:"summary"`
}

// DecodeCommitSummary parses model output into a normalized CommitSummary.
// All four arrays are required.
func DecodeCommitSummary(text string) (storage.CommitSummary, error) {
	var wire commitWire
	if err := json.Unmarshal([]byte(stripFence(text)), &wire); err != nil {
		return storage.CommitSummary{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var missing []string
	if wire.Languages == nil {
		missing = append(missing, "languages")
	}
	if wire.FrameworksLibraries == nil {
		missing = append(missing, "frameworks_libraries")
	}
	if wire.Patterns == nil {
		missing = append(missing, "patterns")
	}
	if wire.SpecializedKnowledge == nil {
		missing = append(missing, "specialized_knowledge")
	}
	if len(missing) > 0 {
		return storage.CommitSummary{}, fmt.Errorf("%w: missing %s", ErrDecode, strings.Join(missing, ", "))
	}

	return storage.CommitSummary{
		Languages:            *wire.Languages,
		FrameworksLibraries:  *wire.FrameworksLibraries,
		Patterns:             *wire.Patterns,
		SpecializedKnowledge: *wire.SpecializedKnowledge,
	}.Normalize(), nil
}

// DecodeReadmeSummary parses model output of the form {"summary": "..."}.
func DecodeReadmeSummary(text string) (string, error) {
	var wire readmeWire
	if err := json.Unmarshal([]byte(stripFence(text)), &wire); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if wire.Summary == nil {
		return "", fmt.Errorf("%w: missing summary", ErrDecode)
	}

	summary := strings.TrimSpace(*wire.Summary)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

// stripFence removes a ```json fence some models wrap JSON output in.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
