package github

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
)

//go:embed queries/*.graphql
var queryFS embed.FS

var (
	userContributedReposQuery = mustQuery("user_contributed_repos.graphql")
	userIDQuery               = mustQuery("user_id.graphql")
	commitsQuery              = mustQuery("commits.graphql")
	commitsByAuthorQuery      = mustQuery("commits_by_author.graphql")
)

func mustQuery(name string) string {
	data, err := queryFS.ReadFile("queries/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded query %s: %v", name, err))
	}
	return string(data)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage     `json:"data"`
	Errors []GraphQLErrorEntry `json:"errors"`
}

// graphql posts a query through the REST client so it shares auth and the
// rate limit transport, then decodes the data member into out.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	req, err := c.NewRequest(http.MethodPost, "graphql", graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to build graphql request: %w", err)
	}

	var resp graphQLResponse
	if _, err := c.Do(ctx, req, &resp); err != nil {
		return fmt.Errorf("graphql request failed: %w", err)
	}

	if len(resp.Errors) > 0 {
		return &GraphQLError{Errors: resp.Errors}
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%w: response has no data", ErrDecode)
	}

	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
