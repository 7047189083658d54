package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultMaxResults = 10

// errProcessFailed hides ingestion details from tool callers; they are logged.
var errProcessFailed = errors.New("ingestion failed")

// makeSearchHandler creates the search_commits tool handler.
func makeSearchHandler(searcher Searcher) func(
	context.Context, *mcp.CallToolRequest, SearchCommitsInput,
) (*mcp.CallToolResult, SearchCommitsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchCommitsInput) (
		*mcp.CallToolResult, SearchCommitsOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = defaultMaxResults
		}

		ranked := searcher.Search(ctx, input.Query)
		if len(ranked) > maxResults {
			ranked = ranked[:maxResults]
		}

		results := make([]CommitHit, 0, len(ranked))
		for _, r := range ranked {
			c := r.Commit
			results = append(results, CommitHit{
				SHA:        c.SHA,
				Message:    c.Message,
				Date:       c.Date,
				Org:        c.Org,
				Repo:       c.Repo,
				Similarity: r.Similarity,
				Summary:    c.Summary.Normalize(),
			})
		}

		if len(results) == 0 {
			return nil, SearchCommitsOutput{
				Results: []CommitHit{},
				Message: "No commits found. Ingest a user with process_user first.",
			}, nil
		}
		return nil, SearchCommitsOutput{Results: results}, nil
	}
}

// makeProcessHandler creates the process_user tool handler.
func makeProcessHandler(processor Processor, logger *slog.Logger) func(
	context.Context, *mcp.CallToolRequest, ProcessUserInput,
) (*mcp.CallToolResult, ProcessUserOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProcessUserInput) (
		*mcp.CallToolResult, ProcessUserOutput, error,
	) {
		if input.User == "" {
			return nil, ProcessUserOutput{}, errors.New("user is required")
		}

		result, err := processor.Process(ctx, input.User)
		if err != nil {
			logger.Error("process_user failed", "user", input.User, "error", err)
			return nil, ProcessUserOutput{}, errProcessFailed
		}

		return nil, ProcessUserOutput{
			TotalExpected:  result.TotalExpected,
			TotalProcessed: result.TotalProcessed,
			Repositories:   result.Repositories,
		}, nil
	}
}
