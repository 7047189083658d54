package ingest

import (
	"errors"
	"fmt"

	"github.com/bull/commitscope/internal/embedding"
	"github.com/bull/commitscope/internal/github"
	"github.com/bull/commitscope/internal/summary"
)

// Kind tags the stage an ingestion failure came from.
type Kind string

const (
	KindDiscovery  Kind = "discovery"
	KindIdentity   Kind = "identity"
	KindCommits    Kind = "commits"
	KindPatch      Kind = "patch"
	KindReadme     Kind = "readme"
	KindEnrichment Kind = "enrichment"
	KindEmbedding  Kind = "embedding"
	KindSerialize  Kind = "serialize"
	KindStore      Kind = "store"
	KindDecode     Kind = "decode"
)

// ErrUserNotFound is wrapped by identity failures.
var ErrUserNotFound = errors.New("user not found")

// Error is the single failure a run reports.
type Error struct {
	Kind Kind
	// Op names the subject of the failed call, e.g. "org/repo" or a commit SHA.
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether running again could succeed without a change on
// the caller's side. Malformed payloads and unknown users will fail again.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindDecode, KindSerialize, KindIdentity:
		return false
	default:
		return true
	}
}

// newError tags err with kind, promoting payload shape failures to KindDecode.
func newError(kind Kind, op string, err error) *Error {
	if isDecodeError(err) {
		kind = KindDecode
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func isDecodeError(err error) bool {
	return errors.Is(err, github.ErrDecode) ||
		errors.Is(err, summary.ErrDecode) ||
		errors.Is(err, summary.ErrNoCandidates) ||
		errors.Is(err, summary.ErrNoContent) ||
		errors.Is(err, summary.ErrEmptySummary) ||
		errors.Is(err, embedding.ErrNoEmbeddings)
}
