package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/bull/commitscope/internal/storage"
)

// DefaultGeminiModel is used when GeminiConfig.Model is empty.
const DefaultGeminiModel = "gemini-1.5-flash-8b"

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, e.g. a test server.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Gemini summarizes with the Gemini API using JSON response schemas.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client, model: cfg.Model, logger: cfg.Logger}, nil
}

// commitSchema requires all four string arrays.
var commitSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"languages":             stringArray("Programming languages used in the changes"),
		"frameworks_libraries":  stringArray("Frameworks and libraries used or touched"),
		"patterns":              stringArray("Design and architectural patterns applied"),
		"specialized_knowledge": stringArray("Domain or specialized technical knowledge required"),
	},
	Required: []string{"languages", "frameworks_libraries", "patterns", "specialized_knowledge"},
}

var readmeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString},
	},
	Required: []string{"summary"},
}

func stringArray(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: description,
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

func generationConfig(instruction string, schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
		Temperature:       genai.Ptr[float32](0.2),
		TopK:              genai.Ptr[float32](40),
		TopP:              genai.Ptr[float32](0.95),
		MaxOutputTokens:   8192,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}
}

// SummarizeCommit implements Summarizer.
func (g *Gemini) SummarizeCommit(ctx context.Context, text string) (storage.CommitSummary, error) {
	out, err := g.generate(ctx, text, generationConfig(commitInstruction, commitSchema))
	if err != nil {
		return storage.CommitSummary{}, err
	}
	return DecodeCommitSummary(out)
}

// SummarizeReadme implements Summarizer.
func (g *Gemini) SummarizeReadme(ctx context.Context, text string) (string, error) {
	out, err := g.generate(ctx, text, generationConfig(readmeInstruction, readmeSchema))
	if err != nil {
		return "", err
	}
	return DecodeReadmeSummary(out)
}

// generate calls the Gemini API and returns the text of the first part of
// the first candidate.
func (g *Gemini) generate(ctx context.Context, text string, config *genai.GenerateContentConfig) (string, error) {
	var result *genai.GenerateContentResponse
	err := retryRateLimited(ctx, func() error {
		var err error
		result, err = g.client.Models.GenerateContent(ctx,
			g.model,
			[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}}},
			config,
		)
		return err
	}, isGeminiRateLimit)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	return firstText(result)
}

func firstText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0] == nil {
		return "", ErrNoContent
	}

	return candidate.Content.Parts[0].Text, nil
}

func isGeminiRateLimit(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests
	}
	return false
}
