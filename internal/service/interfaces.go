package service

import (
	"context"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/google/uuid"
)

// Embedder turns text into a vector. Indexing and retrieval must share one instance.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists embedded chunks and answers nearest-neighbour queries.
type VectorStore interface {
	Reset(ctx context.Context) error
	Upsert(ctx context.Context, records []domain.VectorRecord) error
	Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Replacer is implemented by stores that can swap their whole contents in one step. A
// failed Replace leaves the previous contents in place.
type Replacer interface {
	Replace(ctx context.Context, records []domain.VectorRecord) error
}

// QueryLogger appends answered questions to an external log.
type QueryLogger interface {
	Log(ctx context.Context, entries []domain.LogEntry) error
}

// PDFExtractor returns the page-ordered text of a PDF and its page count.
type PDFExtractor interface {
	Text(data []byte) (string, int, error)
}

// Archiver keeps a copy of every uploaded PDF. It is optional.
type Archiver interface {
	PutPDF(ctx context.Context, key string, data []byte) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
