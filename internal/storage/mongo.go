package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStorage implements Store on MongoDB with one collection per document kind.
type MongoStorage struct {
	client   *mongo.Client
	database string
}

// NewMongoStorage connects to uri, verifies the connection and creates the
// unique indexes the stores rely on.
func NewMongoStorage(ctx context.Context, uri, database string) (*MongoStorage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	s := &MongoStorage{client: client, database: database}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStorage) collection(name string) *mongo.Collection {
	return s.client.Database(s.database).Collection(name)
}

// ensureIndexes is idempotent; MongoDB ignores an identical existing index.
func (s *MongoStorage) ensureIndexes(ctx context.Context) error {
	indexes := map[string]mongo.IndexModel{
		CommitsCollection: {
			Keys:    bson.D{{Key: "sha", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("sha_unique"),
		},
		ReadmesCollection: {
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "repo", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("owner_repo_unique"),
		},
		EmbeddingsCollection: {
			Keys:    bson.D{{Key: "model", Value: 1}, {Key: "input_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("model_input_unique"),
		},
	}

	for name, model := range indexes {
		if _, err := s.collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}
	return nil
}

// Exists implements CommitStore.
func (s *MongoStorage) Exists(ctx context.Context, sha string) (bool, error) {
	count, err := s.collection(CommitsCollection).CountDocuments(ctx, bson.M{"sha": sha}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count documents for sha %s: %w", sha, err)
	}
	return count > 0, nil
}

// Insert implements CommitStore.
func (s *MongoStorage) Insert(ctx context.Context, doc *CommitDocument) error {
	_, err := s.collection(CommitsCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateCommit, doc.SHA)
	}
	if err != nil {
		return fmt.Errorf("failed to insert commit %s: %w", doc.SHA, err)
	}
	return nil
}

// GetAll implements CommitStore. Documents come back in natural order.
func (s *MongoStorage) GetAll(ctx context.Context) ([]*CommitDocument, error) {
	cursor, err := s.collection(CommitsCollection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to find commits: %w", err)
	}

	var docs []*CommitDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to collect commits: %w", err)
	}
	return docs, nil
}

// GetCachedReadme implements ReadmeCache.
func (s *MongoStorage) GetCachedReadme(ctx context.Context, owner, repo string) (*ReadmeDocument, error) {
	var doc ReadmeDocument
	err := s.collection(ReadmesCollection).FindOne(ctx, bson.M{"owner": owner, "repo": repo}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cached README for %s/%s: %w", owner, repo, err)
	}
	return &doc, nil
}

// UpsertReadme implements ReadmeCache.
func (s *MongoStorage) UpsertReadme(ctx context.Context, doc *ReadmeDocument) error {
	filter := bson.M{"owner": doc.Owner, "repo": doc.Repo}
	_, err := s.collection(ReadmesCollection).ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to cache README for %s/%s: %w", doc.Owner, doc.Repo, err)
	}
	return nil
}

// GetCachedEmbedding implements EmbeddingCache.
func (s *MongoStorage) GetCachedEmbedding(ctx context.Context, model, input string) ([]float32, error) {
	var entry EmbeddingCacheEntry
	filter := bson.M{"model": model, "input_hash": hashInput(model, input)}
	err := s.collection(EmbeddingsCollection).FindOne(ctx, filter).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cached embedding: %w", err)
	}
	return entry.Embedding, nil
}

// CacheEmbedding implements EmbeddingCache.
func (s *MongoStorage) CacheEmbedding(ctx context.Context, model, input string, embedding []float32) error {
	entry := EmbeddingCacheEntry{
		Model:     model,
		Input:     input,
		InputHash: hashInput(model, input),
		Embedding: embedding,
	}
	_, err := s.collection(EmbeddingsCollection).InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cache embedding: %w", err)
	}
	return nil
}

// Health pings the primary.
func (s *MongoStorage) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStorage) Close() error {
	return s.client.Disconnect(context.Background())
}
