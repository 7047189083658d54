package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go"

	"github.com/bull/commitscope/internal/storage"
)

// DefaultMaxTokens is the maximum input length before truncation (in tokens).
const DefaultMaxTokens = 16000

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.ChatModelGPT4o

const commitShape = `Respond in JSON format:
{"languages": [], "frameworks_libraries": [], "patterns": [], "specialized_knowledge": []}
Every key is required; use an empty array when nothing applies.`

const readmeShape = `Respond in JSON format:
{"summary": "..."}`

// OpenAI summarizes with chat completions in JSON object mode.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewOpenAI creates a provider on an existing OpenAI client. An empty model
// selects DefaultOpenAIModel; maxTokens <= 0 selects DefaultMaxTokens.
func NewOpenAI(client *openai.Client, model string, maxTokens int, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// SummarizeCommit implements Summarizer.
func (o *OpenAI) SummarizeCommit(ctx context.Context, text string) (storage.CommitSummary, error) {
	out, err := o.complete(ctx, commitInstruction+"\n\n"+commitShape, text)
	if err != nil {
		return storage.CommitSummary{}, err
	}
	return DecodeCommitSummary(out)
}

// SummarizeReadme implements Summarizer.
func (o *OpenAI) SummarizeReadme(ctx context.Context, text string) (string, error) {
	out, err := o.complete(ctx, readmeInstruction+"\n\n"+readmeShape, text)
	if err != nil {
		return "", err
	}
	return DecodeReadmeSummary(out)
}

func (o *OpenAI) complete(ctx context.Context, instruction, text string) (string, error) {
	var resp *openai.ChatCompletion
	err := retryRateLimited(ctx, func() error {
		var err error
		resp, err = o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(instruction),
				openai.UserMessage(o.truncateContent(text)),
			},
			Model:       o.model,
			Temperature: openai.Float(0.2),
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{
					Type: "json_object",
				},
			},
		})
		return err
	}, isOpenAIRateLimit)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoCandidates
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrNoContent
	}
	return content, nil
}

// truncateContent truncates content to fit within token limits.
// Uses rough estimate of 4 characters per token.
func (o *OpenAI) truncateContent(content string) string {
	maxChars := o.maxTokens * 4

	if len(content) <= maxChars {
		return content
	}

	o.logger.Warn("truncating content",
		"from_chars", len(content),
		"to_chars", maxChars,
		"estimated_tokens", o.maxTokens)

	return strings.ToValidUTF8(content[:maxChars], "")
}

func isOpenAIRateLimit(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
