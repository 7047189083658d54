//go:build integration
// +build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStorage creates a test storage instance in a throwaway collection.
// Skips test if Qdrant is not running.
func setupTestStorage(t *testing.T) *QdrantStorage {
	collection := "commitscope-test-" + uuid.New().String()
	storage, err := NewQdrantStorage("localhost", 6334, collection, VectorDimension)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	err = storage.EnsureCollection(context.Background())
	require.NoError(t, err, "Failed to ensure collection")

	t.Cleanup(func() {
		_ = storage.client.DeleteCollection(context.Background(), collection)
		storage.Close()
	})

	return storage
}

func testEmbedding(value float32) []float32 {
	embedding := make([]float32, VectorDimension)
	for i := range embedding {
		embedding[i] = value
	}
	return embedding
}

func TestQdrantCommitRoundTrip(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	doc := &CommitDocument{
		SHA:     "abc123",
		Message: "Add retry to HTTP client",
		Date:    "2024-05-01T10:00:00Z",
		Org:     "alice",
		Repo:    "api",
		Patch:   "diff --git a/client.go b/client.go",
		Summary: CommitSummary{
			Languages:            []string{"Go"},
			FrameworksLibraries:  []string{"net/http"},
			Patterns:             []string{"retry"},
			SpecializedKnowledge: []string{},
		},
		Embedding: testEmbedding(0.1),
	}

	require.NoError(t, storage.Insert(ctx, doc))

	exists, err := storage.Exists(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, doc.SHA, got.SHA)
	assert.Equal(t, doc.Message, got.Message)
	assert.Equal(t, doc.Org, got.Org)
	assert.Equal(t, doc.Repo, got.Repo)
	assert.Equal(t, doc.Patch, got.Patch)
	assert.Equal(t, doc.Summary, got.Summary)
	assert.Len(t, got.Embedding, VectorDimension)
}

func TestQdrantDuplicateInsert(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	doc := &CommitDocument{SHA: "dup1", Embedding: testEmbedding(0.2)}
	require.NoError(t, storage.Insert(ctx, doc))

	err := storage.Insert(ctx, &CommitDocument{SHA: "dup1", Message: "other", Embedding: testEmbedding(0.3)})
	assert.ErrorIs(t, err, ErrDuplicateCommit)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, all[0].Message, "first insert must win")
}

func TestQdrantInsertionOrder(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	shas := []string{"c3", "a1", "b2"}
	for _, sha := range shas {
		require.NoError(t, storage.Insert(ctx, &CommitDocument{SHA: sha, Embedding: testEmbedding(0.5)}))
	}

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, sha := range shas {
		assert.Equal(t, sha, all[i].SHA)
	}
}

func TestQdrantDimensionValidation(t *testing.T) {
	storage := setupTestStorage(t)

	err := storage.Insert(context.Background(), &CommitDocument{SHA: "wrong", Embedding: make([]float32, 512)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQdrantReadmeCache(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	miss, err := storage.GetCachedReadme(ctx, "alice", "api")
	require.NoError(t, err)
	assert.Nil(t, miss)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, storage.UpsertReadme(ctx, &ReadmeDocument{Owner: "alice", Repo: "api", Content: "v1", CachedAt: now}))
	require.NoError(t, storage.UpsertReadme(ctx, &ReadmeDocument{Owner: "alice", Repo: "api", Content: "v2", CachedAt: now}))

	hit, err := storage.GetCachedReadme(ctx, "alice", "api")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "v2", hit.Content)
	assert.WithinDuration(t, now, hit.CachedAt, time.Second)
}

func TestQdrantEmbeddingCache(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	miss, err := storage.GetCachedEmbedding(ctx, "text-embedding-3-small", "hello")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, storage.CacheEmbedding(ctx, "text-embedding-3-small", "hello", []float32{0.5, 0.25}))
	require.NoError(t, storage.CacheEmbedding(ctx, "text-embedding-3-small", "hello", []float32{1, 1}))

	hit, err := storage.GetCachedEmbedding(ctx, "text-embedding-3-small", "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, hit)
}

func TestPersistence(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Insert(ctx, &CommitDocument{SHA: "persist123", Embedding: testEmbedding(0.1)}))

	// Create NEW storage connection (simulates restart)
	storage2, err := NewQdrantStorage("localhost", 6334, storage.collection, VectorDimension)
	require.NoError(t, err, "Failed to reconnect to Qdrant")
	defer storage2.Close()

	exists, err := storage2.Exists(ctx, "persist123")
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := storage2.GetCollectionInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.PointsCount)
}
