package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Point types sharing the single collection.
const (
	pointTypeCommit    = "commit"
	pointTypeReadme    = "readme"
	pointTypeEmbedding = "embedding"
)

// summaryVector is the named vector holding a commit's summary embedding.
const summaryVector = "summary"

// DefaultQdrantCollection is used when no collection name is configured.
const DefaultQdrantCollection = "commitscope"

// QdrantStorage wraps the Qdrant client with connection management and health checks.
// Commits are points with a "summary" vector; README and embedding cache
// entries are payload-only points in the same collection.
type QdrantStorage struct {
	client     *qdrant.Client
	host       string
	port       int
	collection string
	dimension  int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(host string, port int, collection string, dimension int) (*QdrantStorage, error) {
	if collection == "" {
		collection = DefaultQdrantCollection
	}
	if dimension <= 0 {
		dimension = VectorDimension
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client:     client,
		host:       host,
		port:       port,
		collection: collection,
		dimension:  dimension,
	}

	if err := storage.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// healthCheckWithRetry performs health check with exponential backoff.
func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(newBackoff(), ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection creates the collection with a cosine "summary" vector and
// keyword payload indexes. Idempotent.
func (s *QdrantStorage) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			summaryVector: {
				Size:     uint64(s.dimension),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.createPayloadIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create payload indexes: %w", err)
	}

	return nil
}

func (s *QdrantStorage) createPayloadIndexes(ctx context.Context) error {
	fields := []string{
		"type",
		"sha",
		"org",
		"repo",
		"owner",
		"model",
	}

	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	return nil
}

// ClearCollection drops and recreates the collection.
func (s *QdrantStorage) ClearCollection(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return s.EnsureCollection(ctx)
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *QdrantStorage) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx))
}

// pointID derives a stable UUID from a natural key.
func pointID(kind, key string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+":"+key)).String())
}

func (s *QdrantStorage) get(ctx context.Context, id *qdrant.PointId, withVectors bool) (*qdrant.RetrievedPoint, error) {
	result, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{id},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(withVectors),
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

// Exists implements CommitStore.
func (s *QdrantStorage) Exists(ctx context.Context, sha string) (bool, error) {
	point, err := s.get(ctx, pointID(pointTypeCommit, sha), false)
	if err != nil {
		return false, fmt.Errorf("failed to get commit %s: %w", sha, err)
	}
	return point != nil, nil
}

// Insert implements CommitStore. Qdrant has no unique constraint, so the
// point is checked first; two concurrent inserts of one SHA can still race.
func (s *QdrantStorage) Insert(ctx context.Context, doc *CommitDocument) error {
	if len(doc.Embedding) != s.dimension {
		return fmt.Errorf("%w: commit %s has %d dimensions, expected %d",
			ErrDimensionMismatch, doc.SHA, len(doc.Embedding), s.dimension)
	}

	exists, err := s.Exists(ctx, doc.SHA)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommit, doc.SHA)
	}

	point := &qdrant.PointStruct{
		Id: pointID(pointTypeCommit, doc.SHA),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
			summaryVector: qdrant.NewVector(doc.Embedding...),
		}),
		Payload: qdrant.NewValueMap(map[string]any{
			"type":                  pointTypeCommit,
			"sha":                   doc.SHA,
			"message":               doc.Message,
			"date":                  doc.Date,
			"org":                   doc.Org,
			"repo":                  doc.Repo,
			"patch":                 doc.Patch,
			"languages":             toList(doc.Summary.Languages),
			"frameworks_libraries":  toList(doc.Summary.FrameworksLibraries),
			"patterns":              toList(doc.Summary.Patterns),
			"specialized_knowledge": toList(doc.Summary.SpecializedKnowledge),
			"inserted_at":           time.Now().UnixNano(),
		}),
	}

	if err := s.upsertWithRetry(ctx, []*qdrant.PointStruct{point}); err != nil {
		return fmt.Errorf("failed to insert commit %s: %w", doc.SHA, err)
	}
	return nil
}

// GetAll implements CommitStore. Results are ordered by insertion time.
func (s *QdrantStorage) GetAll(ctx context.Context) ([]*CommitDocument, error) {
	type ordered struct {
		doc        *CommitDocument
		insertedAt int64
	}

	var all []ordered
	var offset *qdrant.PointId
	batchSize := uint32(100)

	for {
		resp, err := s.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{qdrant.NewMatch("type", pointTypeCommit)},
			},
			Limit:       qdrant.PtrOf(batchSize),
			Offset:      offset,
			WithPayload: qdrant.NewWithPayload(true),
			WithVectors: qdrant.NewWithVectorsInclude(summaryVector),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll commits: %w", err)
		}

		for _, point := range resp.GetResult() {
			payload := point.Payload
			doc := &CommitDocument{
				SHA:     payload["sha"].GetStringValue(),
				Message: payload["message"].GetStringValue(),
				Date:    payload["date"].GetStringValue(),
				Org:     payload["org"].GetStringValue(),
				Repo:    payload["repo"].GetStringValue(),
				Patch:   payload["patch"].GetStringValue(),
				Summary: CommitSummary{
					Languages:            fromList(payload["languages"]),
					FrameworksLibraries:  fromList(payload["frameworks_libraries"]),
					Patterns:             fromList(payload["patterns"]),
					SpecializedKnowledge: fromList(payload["specialized_knowledge"]),
				},
				Embedding: vectorData(point.GetVectors().GetVectors().GetVectors()[summaryVector]),
			}
			all = append(all, ordered{doc: doc, insertedAt: payload["inserted_at"].GetIntegerValue()})
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].insertedAt < all[j].insertedAt
	})

	docs := make([]*CommitDocument, len(all))
	for i, o := range all {
		docs[i] = o.doc
	}
	return docs, nil
}

// GetCachedReadme implements ReadmeCache.
func (s *QdrantStorage) GetCachedReadme(ctx context.Context, owner, repo string) (*ReadmeDocument, error) {
	point, err := s.get(ctx, pointID(pointTypeReadme, owner+"/"+repo), false)
	if err != nil {
		return nil, fmt.Errorf("failed to get cached README for %s/%s: %w", owner, repo, err)
	}
	if point == nil {
		return nil, nil
	}

	payload := point.Payload
	cachedAt, err := time.Parse(time.RFC3339, payload["cached_at"].GetStringValue())
	if err != nil {
		cachedAt = time.Time{}
	}
	return &ReadmeDocument{
		Owner:    payload["owner"].GetStringValue(),
		Repo:     payload["repo"].GetStringValue(),
		Content:  payload["content"].GetStringValue(),
		CachedAt: cachedAt,
	}, nil
}

// UpsertReadme implements ReadmeCache. Same key, same point: upsert overwrites.
func (s *QdrantStorage) UpsertReadme(ctx context.Context, doc *ReadmeDocument) error {
	point := &qdrant.PointStruct{
		Id:      pointID(pointTypeReadme, doc.Owner+"/"+doc.Repo),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{}),
		Payload: qdrant.NewValueMap(map[string]any{
			"type":      pointTypeReadme,
			"owner":     doc.Owner,
			"repo":      doc.Repo,
			"content":   doc.Content,
			"cached_at": doc.CachedAt.UTC().Format(time.RFC3339),
		}),
	}
	if err := s.upsertWithRetry(ctx, []*qdrant.PointStruct{point}); err != nil {
		return fmt.Errorf("failed to cache README for %s/%s: %w", doc.Owner, doc.Repo, err)
	}
	return nil
}

// GetCachedEmbedding implements EmbeddingCache.
func (s *QdrantStorage) GetCachedEmbedding(ctx context.Context, model, input string) ([]float32, error) {
	point, err := s.get(ctx, pointID(pointTypeEmbedding, hashInput(model, input)), false)
	if err != nil {
		return nil, fmt.Errorf("failed to get cached embedding: %w", err)
	}
	if point == nil {
		return nil, nil
	}

	values := point.Payload["embedding"].GetListValue().GetValues()
	embedding := make([]float32, len(values))
	for i, v := range values {
		embedding[i] = float32(v.GetDoubleValue())
	}
	return embedding, nil
}

// CacheEmbedding implements EmbeddingCache. An existing entry is kept.
func (s *QdrantStorage) CacheEmbedding(ctx context.Context, model, input string, embedding []float32) error {
	key := hashInput(model, input)
	existing, err := s.get(ctx, pointID(pointTypeEmbedding, key), false)
	if err != nil {
		return fmt.Errorf("failed to check cached embedding: %w", err)
	}
	if existing != nil {
		return nil
	}

	values := make([]any, len(embedding))
	for i, v := range embedding {
		values[i] = float64(v)
	}
	point := &qdrant.PointStruct{
		Id:      pointID(pointTypeEmbedding, key),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{}),
		Payload: qdrant.NewValueMap(map[string]any{
			"type":       pointTypeEmbedding,
			"model":      model,
			"input":      input,
			"input_hash": key,
			"embedding":  values,
		}),
	}
	if err := s.upsertWithRetry(ctx, []*qdrant.PointStruct{point}); err != nil {
		return fmt.Errorf("failed to cache embedding: %w", err)
	}
	return nil
}

// CollectionInfo contains collection statistics
type CollectionInfo struct {
	PointsCount uint64
}

// GetCollectionInfo retrieves collection statistics including total points count.
func (s *QdrantStorage) GetCollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	return &CollectionInfo{
		PointsCount: collection.GetPointsCount(),
	}, nil
}

func toList(values []string) []any {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}
	return list
}

func fromList(value *qdrant.Value) []string {
	values := value.GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStringValue())
	}
	return out
}

// vectorData reads a dense vector from either output encoding the server uses.
func vectorData(v *qdrant.VectorOutput) []float32 {
	if dense := v.GetDense(); dense != nil {
		return dense.GetData()
	}
	return v.GetData()
}
