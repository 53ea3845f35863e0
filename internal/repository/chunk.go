package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository stores document chunks and their embeddings in Postgres with pgvector.
// Each repository is scoped to one collection.
type ChunkRepository struct {
	db         txBeginner
	collection string
}

func NewChunkRepository(pool *pgxpool.Pool, collection string) *ChunkRepository {
	return &ChunkRepository{db: pool, collection: collection}
}

// Reset deletes every chunk in the collection.
func (r *ChunkRepository) Reset(ctx context.Context) error {
	return r.deleteAll(ctx, r.db)
}

// Upsert writes all records in one transaction.
func (r *ChunkRepository) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return r.insertAll(ctx, tx, records)
	})
}

// Replace deletes the collection and inserts records in one transaction, so readers see
// either the old chunks or the new ones.
func (r *ChunkRepository) Replace(ctx context.Context, records []domain.VectorRecord) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.deleteAll(ctx, tx); err != nil {
			return err
		}
		return r.insertAll(ctx, tx, records)
	})
}

func (r *ChunkRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ChunkRepository) deleteAll(ctx context.Context, db dbtx) error {
	_, err := db.Exec(ctx, `DELETE FROM document_chunks WHERE collection = $1`, r.collection)
	return err
}

func (r *ChunkRepository) insertAll(ctx context.Context, db dbtx, records []domain.VectorRecord) error {
	for _, rec := range records {
		_, err := db.Exec(ctx,
			`INSERT INTO document_chunks (id, collection, source, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE
			 SET source = EXCLUDED.source, chunk_index = EXCLUDED.chunk_index,
			     content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
			rec.ID,
			r.collection,
			rec.Source,
			rec.Index,
			rec.Text,
			pgvector.NewVector(rec.Embedding),
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", rec.ID, err)
		}
	}
	return nil
}

// Query ranks by cosine distance, scoring 1/(1+distance).
func (r *ChunkRepository) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id::text, source, chunk_index, content, 1.0 / (1.0 + (embedding <=> $1)) AS score
		 FROM document_chunks
		 WHERE collection = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(vector),
		r.collection,
		k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ScoredChunk, 0, k)
	for rows.Next() {
		var c domain.ScoredChunk
		if err := rows.Scan(&c.ID, &c.Source, &c.Index, &c.Text, &c.Score); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks WHERE collection = $1`, r.collection).Scan(&n)
	return n, err
}

// Close is a no-op; the pool is owned by the caller.
func (r *ChunkRepository) Close() error {
	return nil
}
