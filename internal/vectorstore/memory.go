// Package vectorstore holds the embedded and remote vector indexes that back retrieval.
// Every store ranks by similarity, nearest first; scores are higher for nearer records.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

// ErrDimensionMismatch is returned when a vector does not match the store's size.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// MemoryStore is a brute-force cosine index kept in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.VectorRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if len(s.records) > 0 && len(r.Embedding) != len(s.records[0].Embedding) {
			return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, len(s.records[0].Embedding), len(r.Embedding))
		}
		replaced := false
		for i := range s.records {
			if s.records[i].ID == r.ID {
				s.records[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			s.records = append(s.records, r)
		}
	}
	return nil
}

// Replace swaps the whole index for records. Records must agree on their dimension.
func (s *MemoryStore) Replace(ctx context.Context, records []domain.VectorRecord) error {
	for _, r := range records {
		if len(r.Embedding) != len(records[0].Embedding) {
			return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, len(records[0].Embedding), len(r.Embedding))
		}
	}

	replaced := make([]domain.VectorRecord, len(records))
	copy(replaced, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = replaced
	return nil
}

// Query ranks by cosine similarity. Ties keep insertion order.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.records) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(vector) != len(s.records[0].Embedding) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, len(s.records[0].Embedding), len(vector))
	}

	results := make([]domain.ScoredChunk, len(s.records))
	for i, r := range s.records {
		results[i] = domain.ScoredChunk{
			Chunk:  domain.Chunk{ID: r.ID, Index: r.Index, Text: r.Text},
			Source: r.Source,
			Score:  cosine(vector, r.Embedding),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
