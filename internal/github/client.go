// Package github discovers a user's contributed repositories and reads their
// commits, patches and READMEs through the GitHub GraphQL and REST APIs.
package github

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// DefaultCommitsPerPage bounds the commit history listed per repository.
const DefaultCommitsPerPage = 50

// Client wraps the GitHub API client with rate limiting support
type Client struct {
	*github.Client
	logger         *slog.Logger
	commitsPerPage int
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	logger         *slog.Logger
	baseURL        string
	commitsPerPage int
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithBaseURL points the client at another API root, e.g. a test server.
// GraphQL requests go to <baseURL>/graphql.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) { o.baseURL = baseURL }
}

// WithCommitsPerPage sets how many commits ListCommits requests per repository.
func WithCommitsPerPage(n int) Option {
	return func(o *clientOptions) { o.commitsPerPage = n }
}

// NewClient creates a new GitHub client with authentication and rate limiting.
// Rate limiting is automatically handled by waiting out primary and secondary limits.
func NewClient(token string, opts ...Option) (*Client, error) {
	o := clientOptions{commitsPerPage: DefaultCommitsPerPage}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.commitsPerPage <= 0 {
		o.commitsPerPage = DefaultCommitsPerPage
	}

	// Handles both primary rate limits (5000 req/hour authenticated)
	// and secondary rate limits (abuse detection) with automatic retry
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	if o.baseURL != "" {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", o.baseURL, err)
		}
		ghClient.BaseURL = u
	}

	return &Client{
		Client:         ghClient,
		logger:         o.logger,
		commitsPerPage: o.commitsPerPage,
	}, nil
}
