package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/cloo-solutions/kbagent/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chunks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    record_id   TEXT NOT NULL UNIQUE,
    source      TEXT NOT NULL DEFAULT '',
    chunk_index INTEGER NOT NULL,
    content     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQLiteStore persists chunks in a single SQLite file inside a data directory, with
// vectors held in a sqlite-vec vec0 table. Nearest means smallest L2 distance.
type SQLiteStore struct {
	db         *sql.DB
	path       string
	dimensions int
}

// OpenSQLite creates dir if needed and opens <dir>/<collection>.db. A database built
// with a different vector size is rejected.
func OpenSQLite(dir, collection string, dimensions int) (*SQLiteStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("sqlite store needs a positive dimension, got %d", dimensions)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, collection+".db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// vec0 tables and the chunks table are written together; one connection keeps
	// writes serialized.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, dimensions: dimensions}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	var stored string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'dimensions'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec(`INSERT INTO meta (key, value) VALUES ('dimensions', ?)`, strconv.Itoa(s.dimensions)); err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read meta: %w", err)
	case stored != strconv.Itoa(s.dimensions):
		return fmt.Errorf("%w: %s was built with %s dimensions, configured %d", ErrDimensionMismatch, s.path, stored, s.dimensions)
	}

	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d]
)`, s.dimensions)
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("create vec table: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	return s.inTx(ctx, clearTx)
}

func (s *SQLiteStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.upsertTx(ctx, tx, records)
	})
}

// Replace clears the store and writes records in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, records []domain.VectorRecord) error {
	return s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := clearTx(ctx, tx); err != nil {
			return err
		}
		return s.upsertTx(ctx, tx, records)
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_chunks`); err != nil {
		return fmt.Errorf("clear vectors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return nil
}

func (s *SQLiteStore) upsertTx(ctx context.Context, tx *sql.Tx, records []domain.VectorRecord) error {
	for _, r := range records {
		if len(r.Embedding) != s.dimensions {
			return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.dimensions, len(r.Embedding))
		}
		blob, err := sqlite_vec.SerializeFloat32(r.Embedding)
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", r.ID, err)
		}

		var rowID int64
		err = tx.QueryRowContext(ctx, `SELECT id FROM chunks WHERE record_id = ?`, r.ID).Scan(&rowID)
		switch {
		case err == sql.ErrNoRows:
			res, err := tx.ExecContext(ctx,
				`INSERT INTO chunks (record_id, source, chunk_index, content) VALUES (?, ?, ?, ?)`,
				r.ID, r.Source, r.Index, r.Text)
			if err != nil {
				return fmt.Errorf("insert chunk %s: %w", r.ID, err)
			}
			if rowID, err = res.LastInsertId(); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE chunks SET source = ?, chunk_index = ?, content = ? WHERE id = ?`,
				r.Source, r.Index, r.Text, rowID); err != nil {
				return fmt.Errorf("update chunk %s: %w", r.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM vec_chunks WHERE chunk_id = ?`, rowID); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)`, rowID, blob); err != nil {
			return fmt.Errorf("insert embedding for %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.dimensions, len(vector))
	}
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		WITH knn AS (
			SELECT chunk_id, distance
			FROM vec_chunks
			WHERE embedding MATCH ? AND k = ?
		)
		SELECT c.record_id, c.source, c.chunk_index, c.content, knn.distance
		FROM knn
		JOIN chunks c ON c.id = knn.chunk_id
		ORDER BY knn.distance
	`, blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ScoredChunk, 0, k)
	for rows.Next() {
		var r domain.ScoredChunk
		var distance float64
		if err := rows.Scan(&r.ID, &r.Source, &r.Index, &r.Text, &distance); err != nil {
			return nil, err
		}
		r.Score = 1.0 / (1.0 + distance)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
