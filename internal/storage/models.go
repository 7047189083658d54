package storage

import (
	"encoding/json"
	"strings"
	"time"
)

// CommitSummary is the structured technical summary extracted from a commit.
// Every field is a set of strings; Normalize enforces the set semantics.
type CommitSummary struct {
	Languages            []string `json:"languages" bson:"languages"`
	FrameworksLibraries  []string `json:"frameworks_libraries" bson:"frameworks_libraries"`
	Patterns             []string `json:"patterns" bson:"patterns"`
	SpecializedKnowledge []string `json:"specialized_knowledge" bson:"specialized_knowledge"`
}

// Normalize trims entries, drops empty ones and removes duplicates while
// keeping first-occurrence order. Nil fields become empty slices.
func (s CommitSummary) Normalize() CommitSummary {
	return CommitSummary{
		Languages:            dedupe(s.Languages),
		FrameworksLibraries:  dedupe(s.FrameworksLibraries),
		Patterns:             dedupe(s.Patterns),
		SpecializedKnowledge: dedupe(s.SpecializedKnowledge),
	}
}

// Canonical returns the text form that is embedded for a commit.
// Field order is fixed by the struct, so equal summaries give equal text.
func (s CommitSummary) Canonical() (string, error) {
	data, err := json.Marshal(s.Normalize())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CommitDocument is the persisted unit: one enriched commit.
// SHA is the primary key; documents are never updated once inserted.
type CommitDocument struct {
	SHA       string        `json:"sha" bson:"sha"`
	Message   string        `json:"message" bson:"message"`
	Date      string        `json:"date" bson:"date"`
	Org       string        `json:"org" bson:"org"`
	Repo      string        `json:"repo" bson:"repo"`
	Patch     string        `json:"patch" bson:"patch"`
	Summary   CommitSummary `json:"summary" bson:"summary"`
	Embedding []float32     `json:"embedding" bson:"embedding"`
}

// ReadmeDocument is a cached README keyed by (Owner, Repo).
type ReadmeDocument struct {
	Owner    string    `json:"owner" bson:"owner"`
	Repo     string    `json:"repo" bson:"repo"`
	Content  string    `json:"content" bson:"content"`
	CachedAt time.Time `json:"cached_at" bson:"cached_at"`
}

// EmbeddingCacheEntry is a cached embedding keyed by (Model, Input).
type EmbeddingCacheEntry struct {
	Model     string    `bson:"model"`
	Input     string    `bson:"input"`
	InputHash string    `bson:"input_hash"`
	Embedding []float32 `bson:"embedding"`
}

// Collection and table names shared by the backends.
const (
	CommitsCollection    = "commits"
	ReadmesCollection    = "readmes"
	EmbeddingsCollection = "embeddings"
)

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536
