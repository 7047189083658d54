package github

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/bull/commitscope/internal/storage"
)

// ReadmeFetcher reads a repository README through the README cache.
type ReadmeFetcher struct {
	client *Client
	cache  storage.ReadmeCache
	logger *slog.Logger
	now    func() time.Time
}

// NewReadmeFetcher creates a fetcher backed by cache.
func NewReadmeFetcher(client *Client, cache storage.ReadmeCache, logger *slog.Logger) *ReadmeFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadmeFetcher{
		client: client,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Readme returns the decoded README of owner/repo. ok is false when the
// repository has none or it cannot be fetched or decoded; those cases are
// logged, not returned. Cache errors are returned.
func (f *ReadmeFetcher) Readme(ctx context.Context, owner, repo string) (content string, ok bool, err error) {
	cached, err := f.cache.GetCachedReadme(ctx, owner, repo)
	if err != nil {
		return "", false, fmt.Errorf("failed to read README cache: %w", err)
	}
	if cached != nil {
		f.logger.Debug("using cached README", "repo", owner+"/"+repo)
		return cached.Content, true, nil
	}

	file, _, err := f.client.Repositories.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		f.logger.Warn("failed to fetch README", "repo", owner+"/"+repo, "error", err)
		return "", false, nil
	}

	decoded, err := file.GetContent()
	if err != nil {
		f.logger.Warn("failed to decode README", "repo", owner+"/"+repo, "error", err)
		return "", false, nil
	}
	if !utf8.ValidString(decoded) {
		f.logger.Warn("README is not valid UTF-8", "repo", owner+"/"+repo)
		return "", false, nil
	}

	doc := &storage.ReadmeDocument{
		Owner:    owner,
		Repo:     repo,
		Content:  decoded,
		CachedAt: f.now().UTC(),
	}
	if err := f.cache.UpsertReadme(ctx, doc); err != nil {
		return "", false, fmt.Errorf("failed to cache README: %w", err)
	}

	return decoded, true, nil
}
