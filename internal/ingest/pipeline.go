// Package ingest runs the per-user commit ingestion: discovery, commit
// listing, policy gates, enrichment, embedding and storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/commitscope/internal/github"
	"github.com/bull/commitscope/internal/storage"
	"github.com/bull/commitscope/internal/summary"
)

// Discoverer finds the repositories a user contributed to and their identity.
type Discoverer interface {
	ListContributedRepos(ctx context.Context, username string) ([]github.Repository, error)
	ResolveUserID(ctx context.Context, username string) (id string, ok bool, err error)
}

// CommitSource lists a branch's commits and fetches their patches.
type CommitSource interface {
	ListCommits(ctx context.Context, owner, name, branch, authorID string) ([]github.CommitInfo, error)
	FetchPatch(ctx context.Context, owner, name, sha string) (string, error)
}

// ReadmeSource returns a repository README, ok=false when there is none.
type ReadmeSource interface {
	Readme(ctx context.Context, owner, repo string) (content string, ok bool, err error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Digester condenses README markdown before it is summarized.
type Digester interface {
	Digest(source []byte, maxChars int) (string, error)
}

// CommitWriter is the part of the commit store the pipeline writes through.
type CommitWriter interface {
	Exists(ctx context.Context, sha string) (bool, error)
	Insert(ctx context.Context, doc *storage.CommitDocument) error
}

// Deps are the collaborators of a Pipeline. Digester may be nil, in which
// case README content is summarized as fetched.
type Deps struct {
	Discoverer Discoverer
	Commits    CommitSource
	Readmes    ReadmeSource
	Summarizer summary.Summarizer
	Embedder   Embedder
	Store      CommitWriter
	Digester   Digester
}

// Config holds the policy values the pipeline reads.
type Config struct {
	// DefaultBranch is used when a repository reports no default branch.
	DefaultBranch string
	// MaxPatchBytes is the largest patch that is still processed.
	MaxPatchBytes int
	// ReadmeDigestChars bounds the digested README text; zero means unbounded.
	ReadmeDigestChars int
}

// ProcessResult is the outcome of a successful run.
type ProcessResult struct {
	// TotalExpected is the sum of contribution counts; an upper bound only.
	TotalExpected int32 `json:"total_expected"`
	// TotalProcessed counts commits inserted during this run.
	TotalProcessed int32 `json:"total_processed"`
	// Repositories lists every visited repository as "owner/name".
	Repositories []string `json:"repositories"`
}

// Pipeline orchestrates ingestion for one user at a time.
type Pipeline struct {
	deps    Deps
	cfg     Config
	metrics *Metrics
	logger  *slog.Logger
}

// NewPipeline creates a pipeline. metrics may be nil.
func NewPipeline(deps Deps, cfg Config, metrics *Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		deps:    deps,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Process ingests the commits username authored in the repositories they
// contributed to. Repositories and commits are handled sequentially. The
// first collaborator failure aborts the run with an *Error; commits inserted
// before it stay in the store, so a later run resumes where this one stopped.
func (p *Pipeline) Process(ctx context.Context, username string) (*ProcessResult, error) {
	start := time.Now()
	result, err := p.process(ctx, username)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	p.metrics.run(outcome, time.Since(start).Seconds())

	if err != nil {
		p.logger.Error("Ingestion failed", "user", username, "error", err)
		return nil, err
	}
	p.logger.Info("Ingestion complete",
		"user", username,
		"expected", result.TotalExpected,
		"processed", result.TotalProcessed,
		"repositories", len(result.Repositories),
		"duration", time.Since(start),
	)
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, username string) (*ProcessResult, error) {
	result := &ProcessResult{Repositories: []string{}}

	// 1. Discovery
	repos, err := p.deps.Discoverer.ListContributedRepos(ctx, username)
	if err != nil {
		return nil, newError(KindDiscovery, username, err)
	}
	for _, repo := range repos {
		result.TotalExpected += int32(repo.CommitCount)
	}
	p.logger.Info("Starting ingestion", "user", username, "repositories", len(repos), "expected", result.TotalExpected)

	// 2. Identity
	authorID, ok, err := p.deps.Discoverer.ResolveUserID(ctx, username)
	if err != nil {
		return nil, newError(KindIdentity, username, err)
	}
	if !ok {
		return nil, &Error{Kind: KindIdentity, Op: username, Err: ErrUserNotFound}
	}

	// 3. Repositories in discovery order
	for _, repo := range repos {
		inserted, err := p.processRepository(ctx, repo, authorID)
		result.TotalProcessed += inserted
		if err != nil {
			return nil, err
		}
		result.Repositories = append(result.Repositories, repo.FullName())
	}

	return result, nil
}

// repoRun carries per-repository state across its commits.
type repoRun struct {
	repo          github.Repository
	readmeLoaded  bool
	readmeSummary string
}

func (p *Pipeline) processRepository(ctx context.Context, repo github.Repository, authorID string) (int32, error) {
	branch := repo.DefaultBranch
	if branch == "" {
		branch = p.cfg.DefaultBranch
	}

	commits, err := p.deps.Commits.ListCommits(ctx, repo.Owner, repo.Name, branch, authorID)
	if err != nil {
		return 0, newError(KindCommits, repo.FullName(), err)
	}
	p.logger.Debug("Listed commits", "repo", repo.FullName(), "branch", branch, "count", len(commits))

	run := &repoRun{repo: repo}
	var inserted int32
	for _, commit := range commits {
		stored, err := p.processCommit(ctx, run, commit)
		if err != nil {
			return inserted, err
		}
		if stored {
			inserted++
		}
	}
	return inserted, nil
}

// processCommit returns true when the commit was inserted.
func (p *Pipeline) processCommit(ctx context.Context, run *repoRun, commit github.CommitInfo) (bool, error) {
	repo := run.repo
	logger := p.logger.With("repo", repo.FullName(), "sha", commit.OID)

	exists, err := p.deps.Store.Exists(ctx, commit.OID)
	if err != nil {
		return false, newError(KindStore, commit.OID, err)
	}
	if exists {
		logger.Debug("Skipping stored commit")
		p.metrics.skipped(SkipDuplicate)
		return false, nil
	}

	patch, err := p.deps.Commits.FetchPatch(ctx, repo.Owner, repo.Name, commit.OID)
	if err != nil {
		return false, newError(KindPatch, commit.OID, err)
	}
	if len(patch) > p.cfg.MaxPatchBytes {
		logger.Warn("Skipping oversized patch", "bytes", len(patch), "max", p.cfg.MaxPatchBytes)
		p.metrics.skipped(SkipOversized)
		return false, nil
	}
	if patch == "" {
		logger.Warn("Skipping empty patch")
		p.metrics.skipped(SkipEmpty)
		return false, nil
	}

	readmeSummary, err := p.readmeSummary(ctx, run)
	if err != nil {
		return false, err
	}

	commitSummary, err := p.deps.Summarizer.SummarizeCommit(ctx, enrichmentInput(readmeSummary, patch))
	if err != nil {
		return false, newError(KindEnrichment, commit.OID, err)
	}

	canonical, err := commitSummary.Canonical()
	if err != nil {
		return false, newError(KindSerialize, commit.OID, err)
	}

	vector, err := p.deps.Embedder.Embed(ctx, canonical)
	if err != nil {
		return false, newError(KindEmbedding, commit.OID, err)
	}

	doc := &storage.CommitDocument{
		SHA:       commit.OID,
		Message:   commit.MessageHeadline,
		Date:      commit.CommittedDate,
		Org:       repo.Owner,
		Repo:      repo.Name,
		Patch:     patch,
		Summary:   commitSummary.Normalize(),
		Embedding: vector,
	}
	err = p.deps.Store.Insert(ctx, doc)
	if errors.Is(err, storage.ErrDuplicateCommit) {
		// Another run inserted it after the dedup gate.
		logger.Warn("Commit inserted concurrently")
		p.metrics.skipped(SkipDuplicate)
		return false, nil
	}
	if err != nil {
		return false, newError(KindStore, commit.OID, err)
	}

	logger.Debug("Stored commit", "patch_bytes", len(patch))
	p.metrics.processed()
	return true, nil
}

// readmeSummary summarizes the repository README once per run, on first use.
// An absent README yields an empty summary.
func (p *Pipeline) readmeSummary(ctx context.Context, run *repoRun) (string, error) {
	if run.readmeLoaded {
		return run.readmeSummary, nil
	}
	repo := run.repo

	content, ok, err := p.deps.Readmes.Readme(ctx, repo.Owner, repo.Name)
	if err != nil {
		return "", newError(KindReadme, repo.FullName(), err)
	}
	if !ok {
		p.logger.Debug("No README, enriching from patches only", "repo", repo.FullName())
		run.readmeLoaded = true
		return "", nil
	}

	text := content
	if p.deps.Digester != nil {
		text, err = p.deps.Digester.Digest([]byte(content), p.cfg.ReadmeDigestChars)
		if err != nil {
			return "", newError(KindReadme, repo.FullName(), err)
		}
	}

	s, err := p.deps.Summarizer.SummarizeReadme(ctx, text)
	if err != nil {
		return "", newError(KindEnrichment, repo.FullName(), err)
	}

	run.readmeLoaded = true
	run.readmeSummary = s
	return s, nil
}

// enrichmentInput is the text the commit summary is generated from.
func enrichmentInput(readmeSummary, patch string) string {
	if readmeSummary == "" {
		return patch
	}
	return fmt.Sprintf("Repository README Summary:\n%s\n\nCommit Changes:\n%s", readmeSummary, patch)
}
