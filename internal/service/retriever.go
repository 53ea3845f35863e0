package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

// Retriever finds the chunks nearest to a question.
type Retriever struct {
	embedder Embedder
	store    VectorStore
}

func NewRetriever(embedder Embedder, store VectorStore) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve returns at most k chunks, nearest first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return []domain.ScoredChunk{}, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexing, "failed to embed query", err)
	}

	hits, err := r.store.Query(ctx, vector, k)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to query vector store", err)
	}

	if len(hits) > k {
		hits = hits[:k]
	}
	if hits == nil {
		hits = []domain.ScoredChunk{}
	}
	return hits, nil
}
