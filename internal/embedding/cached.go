package embedding

import (
	"context"
	"log/slog"

	"github.com/bull/commitscope/internal/storage"
)

// Vectorizer produces an embedding for one text with a named model.
type Vectorizer interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// CachedEmbedder consults the embedding cache before calling the model.
// Cache failures are logged and bypassed; they never fail an embedding.
type CachedEmbedder struct {
	inner  Vectorizer
	cache  storage.EmbeddingCache
	logger *slog.Logger
}

// NewCachedEmbedder wraps inner with cache.
func NewCachedEmbedder(inner Vectorizer, cache storage.EmbeddingCache, logger *slog.Logger) *CachedEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{inner: inner, cache: cache, logger: logger}
}

// Model returns the wrapped model name.
func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Embed returns the cached vector for text or computes and caches it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := c.inner.Model()

	cached, err := c.cache.GetCachedEmbedding(ctx, model, text)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "model", model, "error", err)
	} else if len(cached) > 0 {
		return cached, nil
	}

	embedding, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.CacheEmbedding(ctx, model, text, embedding); err != nil {
		c.logger.Warn("embedding cache write failed", "model", model, "error", err)
	}
	return embedding, nil
}
