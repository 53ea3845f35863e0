package repository

import (
	"context"
	"time"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QALogRepository appends question/answer pairs to the qa_logs table.
type QALogRepository struct {
	db txBeginner
}

func NewQALogRepository(pool *pgxpool.Pool) *QALogRepository {
	return &QALogRepository{db: pool}
}

// Log inserts all entries in one transaction. Rows are never updated or read back here.
func (r *QALogRepository) Log(ctx context.Context, entries []domain.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, e := range entries {
		askedAt := e.Timestamp
		if askedAt.IsZero() {
			askedAt = time.Now().UTC()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO qa_logs (asked_at, query, answer) VALUES ($1, $2, $3)`,
			askedAt, e.Query, e.Answer,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Recent returns the newest entries first.
func (r *QALogRepository) Recent(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT asked_at, query, answer FROM qa_logs ORDER BY asked_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.Timestamp, &e.Query, &e.Answer); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
