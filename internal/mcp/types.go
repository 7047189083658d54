// Package mcp exposes commit search and ingestion as Model Context Protocol tools.
package mcp

import "github.com/bull/commitscope/internal/storage"

// SearchCommitsInput defines the input parameters for the search_commits tool.
type SearchCommitsInput struct {
	// Query is the natural-language search query.
	Query string `json:"query" jsonschema:"Natural-language description of the change or skill to look for"`
	// MaxResults caps the number of commits returned.
	MaxResults int `json:"max_results,omitempty" jsonschema:"Maximum number of commits to return (default 10)"`
}

// SearchCommitsOutput contains the ranked commits.
type SearchCommitsOutput struct {
	Results []CommitHit `json:"results"`
	// Message is set when nothing matched.
	Message string `json:"message,omitempty"`
}

// CommitHit is a ranked commit without its patch or embedding.
type CommitHit struct {
	SHA        string                `json:"sha"`
	Message    string                `json:"message"`
	Date       string                `json:"date"`
	Org        string                `json:"org"`
	Repo       string                `json:"repo"`
	Similarity float32               `json:"similarity"`
	Summary    storage.CommitSummary `json:"summary"`
}

// ProcessUserInput defines the input parameters for the process_user tool.
type ProcessUserInput struct {
	User string `json:"user" jsonschema:"GitHub login whose commits should be ingested"`
}

// ProcessUserOutput reports the ingestion counts.
type ProcessUserOutput struct {
	TotalExpected  int32    `json:"total_expected"`
	TotalProcessed int32    `json:"total_processed"`
	Repositories   []string `json:"repositories"`
}
