package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

// IndexPolicy decides what happens to previously indexed records.
type IndexPolicy string

const (
	// IndexReplace clears the store before loading a document.
	IndexReplace IndexPolicy = "replace"
	// IndexAccumulate keeps earlier documents and adds the new one.
	IndexAccumulate IndexPolicy = "accumulate"
)

// Indexer embeds chunks and writes them to a vector store.
type Indexer struct {
	embedder Embedder
	store    VectorStore
	policy   IndexPolicy
	uuidGen  UUIDGenerator
}

func NewIndexer(embedder Embedder, store VectorStore, policy IndexPolicy) *Indexer {
	return NewIndexerWithUUIDGen(embedder, store, policy, &DefaultUUIDGenerator{})
}

// NewIndexerWithUUIDGen creates an Indexer with custom UUID generator (for testing)
func NewIndexerWithUUIDGen(embedder Embedder, store VectorStore, policy IndexPolicy, uuidGen UUIDGenerator) *Indexer {
	if policy == "" {
		policy = IndexReplace
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		policy:   policy,
		uuidGen:  uuidGen,
	}
}

func (i *Indexer) Policy() IndexPolicy {
	return i.policy
}

// Index embeds every chunk of source and stores the result, returning the number of
// records written. All embeddings are computed before the store is touched, so an
// embedding failure leaves the previous index in place. Under IndexReplace a store that
// implements Replacer is swapped atomically. Other stores are reset and then upserted, and
// an upsert failure there leaves the store empty.
func (i *Indexer) Index(ctx context.Context, source string, chunks []domain.Chunk) (int, error) {
	records := make([]domain.VectorRecord, 0, len(chunks))
	for _, c := range chunks {
		vector, err := i.embedder.Embed(ctx, c.Text)
		if err != nil {
			return 0, domain.NewDomainErrorWithCause(domain.ErrCodeIndexing,
				fmt.Sprintf("failed to embed chunk %d of %s", c.Index, source), err)
		}
		records = append(records, domain.VectorRecord{
			ID:        i.uuidGen.NewString(),
			Source:    source,
			Index:     c.Index,
			Text:      c.Text,
			Embedding: vector,
		})
	}

	if i.policy == IndexReplace {
		if r, ok := i.store.(Replacer); ok {
			if err := r.Replace(ctx, records); err != nil {
				return 0, domain.NewDomainErrorWithCause(domain.ErrCodeStorage,
					fmt.Sprintf("failed to replace index with %d records", len(records)), err)
			}
			return len(records), nil
		}
		if err := i.store.Reset(ctx); err != nil {
			return 0, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to clear vector store", err)
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	if err := i.store.Upsert(ctx, records); err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeStorage,
			fmt.Sprintf("failed to store %d records", len(records)), err)
	}

	return len(records), nil
}
