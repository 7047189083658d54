// Package app assembles the ingestion pipeline and search ranker from
// configuration. Both commands share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bull/commitscope/internal/config"
	"github.com/bull/commitscope/internal/embedding"
	ghclient "github.com/bull/commitscope/internal/github"
	"github.com/bull/commitscope/internal/ingest"
	"github.com/bull/commitscope/internal/markdown"
	"github.com/bull/commitscope/internal/search"
	"github.com/bull/commitscope/internal/storage"
	"github.com/bull/commitscope/internal/summary"
)

// App owns the long-lived components of a process.
type App struct {
	Store    storage.Store
	Pipeline *ingest.Pipeline
	Ranker   *search.Ranker
	Registry *prometheus.Registry
}

// New connects to the store and builds every component. Close releases the store.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.Open(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	app, err := build(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg config.Config, store storage.Store, logger *slog.Logger) (*App, error) {
	gh, err := ghclient.NewClient(cfg.GitHubToken,
		ghclient.WithLogger(logger),
		ghclient.WithCommitsPerPage(cfg.CommitsPerPage),
	)
	if err != nil {
		return nil, fmt.Errorf("create GitHub client: %w", err)
	}

	openaiClient, err := embedding.NewClient(cfg.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("create OpenAI client: %w", err)
	}

	summarizer, err := newSummarizer(ctx, cfg, openaiClient, logger)
	if err != nil {
		return nil, err
	}

	var embedder embedding.Vectorizer = embedding.NewEmbedder(openaiClient, cfg.EmbeddingModel, 0)
	if cfg.EmbeddingCache {
		embedder = embedding.NewCachedEmbedder(embedder, store, logger)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipeline := ingest.NewPipeline(ingest.Deps{
		Discoverer: gh,
		Commits:    gh,
		Readmes:    ghclient.NewReadmeFetcher(gh, store, logger),
		Summarizer: summarizer,
		Embedder:   embedder,
		Store:      store,
		Digester:   markdown.NewDigester(),
	}, ingest.Config{
		DefaultBranch:     cfg.DefaultBranch,
		MaxPatchBytes:     cfg.MaxPatchBytes,
		ReadmeDigestChars: cfg.ReadmeDigestChars,
	}, ingest.NewMetrics(registry), logger)

	return &App{
		Store:    store,
		Pipeline: pipeline,
		Ranker:   search.NewRanker(store, embedder, logger),
		Registry: registry,
	}, nil
}

// newSummarizer selects the summary provider named by SUMMARY_PROVIDER.
func newSummarizer(ctx context.Context, cfg config.Config, openaiClient *embedding.Client, logger *slog.Logger) (summary.Summarizer, error) {
	switch cfg.SummaryProvider {
	case config.ProviderGemini:
		g, err := summary.NewGemini(ctx, summary.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create Gemini client: %w", err)
		}
		return g, nil
	case config.ProviderOpenAI:
		return summary.NewOpenAI(openaiClient.Client(), cfg.OpenAISummaryModel, 0, logger), nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.SummaryProvider)
	}
}

// Close releases the store connection.
func (a *App) Close() error {
	return a.Store.Close()
}
