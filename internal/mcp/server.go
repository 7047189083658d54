package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/commitscope/internal/ingest"
	"github.com/bull/commitscope/internal/search"
)

// Searcher ranks stored commits against a query.
type Searcher interface {
	Search(ctx context.Context, query string) []search.SearchResult
}

// Processor ingests a user's commits.
type Processor interface {
	Process(ctx context.Context, username string) (*ingest.ProcessResult, error)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Searcher  Searcher
	Processor Processor
	Version   string
	Logger    *slog.Logger
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "commitscope",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_commits",
		Description: "Semantic search over ingested GitHub commits. Returns commits ranked by similarity with their technical summaries (languages, libraries, patterns, specialized knowledge).",
	}, makeSearchHandler(cfg.Searcher))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_user",
		Description: "Ingest the commits a GitHub user made to the repositories they contributed to. Already stored commits are skipped.",
	}, makeProcessHandler(cfg.Processor, logger))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
