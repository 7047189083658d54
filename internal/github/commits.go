package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v81/github"
)

// CommitInfo is one commit from a branch history listing.
type CommitInfo struct {
	OID             string
	MessageHeadline string
	CommittedDate   string
	Author          CommitAuthor
}

// CommitAuthor fields are optional on GitHub's side.
type CommitAuthor struct {
	Name  string
	Email string
}

type commitsData struct {
	Repository *struct {
		Ref *struct {
			Target struct {
				History struct {
					Edges []struct {
						Node *commitNode `json:"node"`
					} `json:"edges"`
				} `json:"history"`
			} `json:"target"`
		} `json:"ref"`
	} `json:"repository"`
}

type commitNode struct {
	OID             *string `json:"oid"`
	MessageHeadline *string `json:"messageHeadline"`
	CommittedDate   *string `json:"committedDate"`
	Author          *struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	} `json:"author"`
}

// ListCommits lists up to the configured page size of commits on branch,
// newest first. A non-empty authorID restricts the history to that author.
// A branch that does not exist yields an empty list.
func (c *Client) ListCommits(ctx context.Context, owner, name, branch, authorID string) ([]CommitInfo, error) {
	query := commitsQuery
	variables := map[string]any{
		"owner":  owner,
		"name":   name,
		"branch": "refs/heads/" + branch,
		"first":  c.commitsPerPage,
	}
	if authorID != "" {
		query = commitsByAuthorQuery
		variables["authorId"] = authorID
	}

	var data commitsData
	if err := c.graphql(ctx, query, variables, &data); err != nil {
		return nil, fmt.Errorf("failed to list commits for %s/%s@%s: %w", owner, name, branch, err)
	}

	if data.Repository == nil {
		return nil, fmt.Errorf("%w: repository %s/%s missing from commits response", ErrDecode, owner, name)
	}
	if data.Repository.Ref == nil {
		c.logger.Warn("branch not found", "repo", owner+"/"+name, "branch", branch)
		return []CommitInfo{}, nil
	}

	edges := data.Repository.Ref.Target.History.Edges
	commits := make([]CommitInfo, 0, len(edges))
	for i, edge := range edges {
		node := edge.Node
		if node == nil {
			continue
		}
		if node.OID == nil || *node.OID == "" || node.MessageHeadline == nil || node.CommittedDate == nil {
			return nil, fmt.Errorf("%w: commit %d in %s/%s is missing oid, headline or date", ErrDecode, i, owner, name)
		}

		info := CommitInfo{
			OID:             *node.OID,
			MessageHeadline: *node.MessageHeadline,
			CommittedDate:   *node.CommittedDate,
		}
		if node.Author != nil {
			if node.Author.Name != nil {
				info.Author.Name = *node.Author.Name
			}
			if node.Author.Email != nil {
				info.Author.Email = *node.Author.Email
			}
		}
		commits = append(commits, info)
	}

	return commits, nil
}

// FetchPatch returns the unified diff of a commit. An empty commit yields "".
func (c *Client) FetchPatch(ctx context.Context, owner, name, sha string) (string, error) {
	patch, _, err := c.Repositories.GetCommitRaw(ctx, owner, name, sha, github.RawOptions{Type: github.Diff})
	if err != nil {
		return "", fmt.Errorf("failed to fetch patch for %s in %s/%s: %w", sha, owner, name, err)
	}
	if patch == "" {
		c.logger.Warn("empty patch", "sha", sha, "repo", owner+"/"+name)
	}
	return patch, nil
}
