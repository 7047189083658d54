package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/commitscope/internal/config"
	"github.com/bull/commitscope/internal/embedding"
	"github.com/bull/commitscope/internal/summary"
)

func TestNewSummarizer(t *testing.T) {
	client, err := embedding.NewClient("sk-test")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("gemini", func(t *testing.T) {
		s, err := newSummarizer(ctx, config.Config{SummaryProvider: config.ProviderGemini, GeminiAPIKey: "g-key"}, client, nil)
		require.NoError(t, err)
		assert.IsType(t, &summary.Gemini{}, s)
	})

	t.Run("gemini without key", func(t *testing.T) {
		_, err := newSummarizer(ctx, config.Config{SummaryProvider: config.ProviderGemini}, client, nil)
		assert.Error(t, err)
	})

	t.Run("openai", func(t *testing.T) {
		s, err := newSummarizer(ctx, config.Config{SummaryProvider: config.ProviderOpenAI}, client, nil)
		require.NoError(t, err)
		assert.IsType(t, &summary.OpenAI{}, s)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := newSummarizer(ctx, config.Config{SummaryProvider: "claude"}, client, nil)
		assert.Error(t, err)
	})
}

func TestNew_SQLBackend(t *testing.T) {
	cfg := config.Config{
		GitHubToken:     "ghp_test",
		StoreBackend:    "sql",
		DBURL:           "sqlite:///:memory:",
		OpenAIAPIKey:    "sk-test",
		EmbeddingCache:  true,
		SummaryProvider: config.ProviderOpenAI,
		DefaultBranch:   "main",
		CommitsPerPage:  50,
		MaxPatchBytes:   50000,
	}

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Pipeline)
	assert.NotNil(t, a.Ranker)
	assert.NoError(t, a.Store.Health(context.Background()))

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "commitscope_ingest_run_seconds")
}
