// Package search ranks stored commits against a natural-language query.
package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/bull/commitscope/internal/storage"
)

// CommitReader is the part of the commit store search reads from.
type CommitReader interface {
	GetAll(ctx context.Context) ([]*storage.CommitDocument, error)
}

// Embedder turns the query into a vector in the same space as the commits.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchResult is one ranked commit.
type SearchResult struct {
	Similarity float32                 `json:"similarity"`
	Commit     *storage.CommitDocument `json:"commit"`
}

// Ranker performs exhaustive cosine ranking over the whole store.
type Ranker struct {
	store    CommitReader
	embedder Embedder
	logger   *slog.Logger
}

// NewRanker creates a ranker.
func NewRanker(store CommitReader, embedder Embedder, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{store: store, embedder: embedder, logger: logger}
}

// Search returns every stored commit ordered by descending similarity to
// query. Commits with equal similarity keep store order. Search degrades to
// an empty result instead of failing.
func (r *Ranker) Search(ctx context.Context, query string) []SearchResult {
	docs, err := r.store.GetAll(ctx)
	if err != nil {
		r.logger.Warn("Failed to read commits for search", "error", err)
		return []SearchResult{}
	}
	if len(docs) == 0 {
		return []SearchResult{}
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("Failed to embed search query", "error", err)
		return []SearchResult{}
	}

	results := make([]SearchResult, len(docs))
	for i, doc := range docs {
		results[i] = SearchResult{
			Similarity: CosineSimilarity(vector, doc.Embedding),
			Commit:     doc,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	r.logger.Debug("Ranked commits", "query", query, "results", len(results))
	return results
}
