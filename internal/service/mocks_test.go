package service

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockVectorStore) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredChunk), args.Error(1)
}

func (m *MockVectorStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockQueryLogger struct {
	mock.Mock
}

func (m *MockQueryLogger) Log(ctx context.Context, entries []domain.LogEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Name() string {
	return "Mock"
}

func (m *MockBackend) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Text(data []byte) (string, int, error) {
	args := m.Called(data)
	return args.String(0), args.Int(1), args.Error(2)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) PutPDF(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

type MockUUIDGenerator struct {
	mock.Mock
}

func (m *MockUUIDGenerator) NewString() string {
	args := m.Called()
	return args.String(0)
}

// echoBackend answers with the prompt it was given.
type echoBackend struct {
	mu    sync.Mutex
	calls int
}

func (b *echoBackend) Name() string {
	return "Echo"
}

func (b *echoBackend) Generate(ctx context.Context, prompt string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	return prompt, nil
}

// wordHashEmbedder is a deterministic bag-of-words embedder: texts sharing words point in
// similar directions.
type wordHashEmbedder struct {
	dims int
}

func (e wordHashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector := make([]float32, e.dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!;:\"'")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vector[h.Sum32()%uint32(e.dims)]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vector {
			vector[i] = float32(float64(vector[i]) / norm)
		}
	}
	return vector, nil
}
