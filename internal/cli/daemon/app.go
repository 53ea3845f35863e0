// Package daemon holds the kbagentd commands and the composition root that wires the
// pipeline from configuration.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloo-solutions/kbagent/internal/config"
	"github.com/cloo-solutions/kbagent/internal/database"
	"github.com/cloo-solutions/kbagent/internal/embedding"
	"github.com/cloo-solutions/kbagent/internal/llm"
	"github.com/cloo-solutions/kbagent/internal/pdftext"
	"github.com/cloo-solutions/kbagent/internal/querylog"
	"github.com/cloo-solutions/kbagent/internal/repository"
	"github.com/cloo-solutions/kbagent/internal/service"
	"github.com/cloo-solutions/kbagent/internal/storage"
	"github.com/cloo-solutions/kbagent/internal/vectorstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App is a fully wired pipeline. Close releases the store and the database pool.
type App struct {
	QA      *service.QAService
	Store   service.VectorStore
	QALog   *repository.QALogRepository
	Archive *storage.S3Client
	pool    *pgxpool.Pool
	logger  *zap.Logger
}

type BuildOptions struct {
	SkipMigrations bool
}

// Build creates every collaborator named by cfg. The embedder is shared by indexing and
// retrieval.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts BuildOptions) (*App, error) {
	app := &App{logger: logger}

	if cfg.NeedsDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.pool = pool
		logger.Info("connected to database")

		if !opts.SkipMigrations {
			if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
				app.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
	}

	store, err := app.newStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	var archiver service.Archiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.Info("pdf archive ready", zap.String("bucket", s3Client.Bucket()))
		app.Archive = s3Client
		archiver = s3Client
	}

	embedder := embedding.NewClient(embedding.Config{
		APIKey:     cfg.EmbeddingKey(),
		BaseURL:    cfg.EmbeddingBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})

	app.QA = service.NewQAService(service.QADependencies{
		Extractor: pdftext.NewExtractor(),
		Embedder:  embedder,
		Store:     store,
		Answerer: service.NewAnswerer(NewBackend(cfg), service.AnswererConfig{
			MaxPromptChars: cfg.MaxPromptChars,
			Timeout:        cfg.LLMTimeout,
		}),
		Composer: service.NewPromptComposer(cfg.ContextChars),
		QueryLog: app.newQueryLogger(cfg),
		Archiver: archiver,
		Policy:   service.IndexPolicy(cfg.IndexPolicy),
		Logger:   logger,
	}, service.QAConfig{
		Chunking:   service.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
		TopK:       cfg.TopK,
		Collection: cfg.Collection,
	})

	logger.Info("pipeline ready",
		zap.String("vector_store", cfg.VectorStore),
		zap.String("llm_backend", cfg.LLMBackend),
		zap.String("log_store", cfg.LogStore),
		zap.String("embedding_model", cfg.EmbeddingModel),
	)

	return app, nil
}

func (a *App) newStore(ctx context.Context, cfg *config.Config) (service.VectorStore, error) {
	switch cfg.VectorStore {
	case config.VectorStoreMemory:
		return vectorstore.NewMemoryStore(), nil
	case config.VectorStoreSQLite:
		store, err := vectorstore.OpenSQLite(cfg.DataDir, cfg.Collection, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		a.logger.Info("sqlite vector store opened", zap.String("path", store.Path()))
		return store, nil
	case config.VectorStoreQdrant:
		store, err := vectorstore.NewQdrantStore(ctx, vectorstore.QdrantConfig{
			Addr:       cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
			Dimensions: cfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
		}
		return store, nil
	case config.VectorStorePGVector:
		if a.pool == nil {
			return nil, errors.New("pgvector store requires a database connection")
		}
		return repository.NewChunkRepository(a.pool, cfg.Collection), nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.VectorStore)
	}
}

func (a *App) newQueryLogger(cfg *config.Config) service.QueryLogger {
	switch cfg.LogStore {
	case config.LogStorePostgres:
		a.QALog = repository.NewQALogRepository(a.pool)
		return a.QALog
	case config.LogStoreSheets:
		if !cfg.HasSheets() {
			a.logger.Warn("LOG_STORE=sheets without SPREADSHEET_ID, questions will not be logged")
			return querylog.Discard{}
		}
		return querylog.NewSheetsLogger(querylog.SheetsConfig{
			SpreadsheetID: cfg.SpreadsheetID,
			Range:         cfg.SheetRange,
			Credentials:   cfg,
		})
	default:
		return querylog.Discard{}
	}
}

// NewBackend returns the language model backend selected by LLM_BACKEND.
func NewBackend(cfg *config.Config) llm.Backend {
	if cfg.LLMBackend == config.LLMBackendOllama {
		return llm.NewProcessBackend(llm.ProcessConfig{
			Command: cfg.LocalLLMCommand,
			Model:   cfg.LocalLLMModel,
		})
	}
	return llm.NewChatBackend(llm.ChatConfig{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
	})
}

func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.logger.Warn("failed to close vector store", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
