package github

import (
	"errors"
	"strings"
)

var (
	// ErrDecode means a response did not have the expected shape.
	ErrDecode = errors.New("unexpected github response")
	// ErrGraphQL means the GraphQL endpoint answered with an errors array.
	ErrGraphQL = errors.New("github graphql error")
)

// GraphQLError carries the errors array of a GraphQL response.
// It matches ErrGraphQL with errors.Is.
type GraphQLError struct {
	Errors []GraphQLErrorEntry
}

// GraphQLErrorEntry is one element of a GraphQL errors array.
type GraphQLErrorEntry struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, entry := range e.Errors {
		msgs[i] = entry.Message
	}
	return ErrGraphQL.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *GraphQLError) Is(target error) bool {
	return target == ErrGraphQL
}

// NotFound reports whether every entry is a NOT_FOUND error.
func (e *GraphQLError) NotFound() bool {
	if len(e.Errors) == 0 {
		return false
	}
	for _, entry := range e.Errors {
		if entry.Type != "NOT_FOUND" {
			return false
		}
	}
	return true
}
