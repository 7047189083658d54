package github

import (
	"context"
	"errors"
	"fmt"
)

// Repository is a repository the user has committed to in the current
// contribution window.
type Repository struct {
	Owner string
	Name  string
	// DefaultBranch is empty when the repository reports none.
	DefaultBranch string
	// CommitCount is the user's contribution count; an upper bound on what
	// will be ingested.
	CommitCount int
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

type contributedReposData struct {
	User *struct {
		ContributionsCollection struct {
			CommitContributionsByRepository []repoContribution `json:"commitContributionsByRepository"`
		} `json:"contributionsCollection"`
	} `json:"user"`
}

type repoContribution struct {
	Contributions struct {
		TotalCount *int `json:"totalCount"`
	} `json:"contributions"`
	Repository struct {
		Name  *string `json:"name"`
		Owner struct {
			Login *string `json:"login"`
		} `json:"owner"`
		DefaultBranchRef *struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	} `json:"repository"`
}

// ListContributedRepos returns repositories with a positive contribution
// count, in the order GitHub reports them.
func (c *Client) ListContributedRepos(ctx context.Context, username string) ([]Repository, error) {
	var data contributedReposData
	if err := c.graphql(ctx, userContributedReposQuery, map[string]any{"username": username}, &data); err != nil {
		return nil, fmt.Errorf("failed to list contributed repositories for %s: %w", username, err)
	}
	if data.User == nil {
		return nil, fmt.Errorf("%w: user %s missing from contributions response", ErrDecode, username)
	}

	var repos []Repository
	for i, contribution := range data.User.ContributionsCollection.CommitContributionsByRepository {
		repo := contribution.Repository
		if repo.Name == nil || repo.Owner.Login == nil || contribution.Contributions.TotalCount == nil {
			return nil, fmt.Errorf("%w: contribution %d is missing name, owner or count", ErrDecode, i)
		}

		count := *contribution.Contributions.TotalCount
		if count <= 0 {
			continue
		}

		r := Repository{
			Owner:       *repo.Owner.Login,
			Name:        *repo.Name,
			CommitCount: count,
		}
		if repo.DefaultBranchRef != nil {
			r.DefaultBranch = repo.DefaultBranchRef.Name
		}
		repos = append(repos, r)
	}

	c.logger.Debug("discovered repositories", "user", username, "count", len(repos))
	return repos, nil
}

type userIDData struct {
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
}

// ResolveUserID returns the GraphQL node id of a user. ok is false when the
// user does not exist.
func (c *Client) ResolveUserID(ctx context.Context, username string) (id string, ok bool, err error) {
	var data userIDData
	err = c.graphql(ctx, userIDQuery, map[string]any{"login": username}, &data)

	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) && gqlErr.NotFound() {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve user id for %s: %w", username, err)
	}

	if data.User == nil || data.User.ID == "" {
		return "", false, nil
	}
	return data.User.ID, true, nil
}
