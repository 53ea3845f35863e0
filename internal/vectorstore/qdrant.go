package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/qdrant/go-client/qdrant"
)

const (
	payloadText   = "text"
	payloadSource = "source"
	payloadIndex  = "chunk_index"

	upsertBatchSize = 100
)

type QdrantConfig struct {
	// Addr is the gRPC address, host:port.
	Addr       string
	APIKey     string
	Collection string
	Dimensions int
}

// QdrantStore keeps one Qdrant collection with cosine distance.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimensions uint64
}

func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant store needs a positive dimension, got %d", cfg.Dimensions)
	}

	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant address %q: %w", cfg.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	s := &QdrantStore{
		client:     client,
		collection: cfg.Collection,
		dimensions: uint64(cfg.Dimensions),
	}
	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimensions,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Reset drops and recreates the collection.
func (s *QdrantStore) Reset(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return s.ensureCollection(ctx)
}

func (s *QdrantStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(r.Embedding...),
			Payload: map[string]*qdrant.Value{
				payloadText:   qdrant.NewValueString(r.Text),
				payloadSource: qdrant.NewValueString(r.Source),
				payloadIndex:  qdrant.NewValueInt(int64(r.Index)),
			},
		}
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(points))
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points[start:end],
		})
		if err != nil {
			return fmt.Errorf("failed to upsert points %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	results := make([]domain.ScoredChunk, 0, len(points))
	for _, p := range points {
		results = append(results, domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:    p.GetId().GetUuid(),
				Index: int(p.GetPayload()[payloadIndex].GetIntegerValue()),
				Text:  p.GetPayload()[payloadText].GetStringValue(),
			},
			Source: p.GetPayload()[payloadSource].GetStringValue(),
			Score:  float64(p.GetScore()),
		})
	}
	return results, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}
