package service

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/cloo-solutions/kbagent/internal/querylog"
	"github.com/cloo-solutions/kbagent/internal/telemetry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// DefaultTopK is the number of chunks retrieved for each question.
const DefaultTopK = 2

type QAConfig struct {
	Chunking   ChunkConfig
	TopK       int
	Collection string
}

// QADependencies are the collaborators of a QAService. Archiver may be nil.
type QADependencies struct {
	Extractor PDFExtractor
	Embedder  Embedder
	Store     VectorStore
	Answerer  *Answerer
	Composer  *PromptComposer
	QueryLog  QueryLogger
	Archiver  Archiver
	Policy    IndexPolicy
	Logger    *zap.Logger
}

// QAService runs the ingest and question pipelines over one vector store.
// Indexing holds the write lock, so readers never see a half-replaced index.
type QAService struct {
	mu sync.RWMutex

	extractor PDFExtractor
	store     VectorStore
	indexer   *Indexer
	retriever *Retriever
	composer  *PromptComposer
	answerer  *Answerer
	queryLog  QueryLogger
	archiver  Archiver
	logger    *zap.Logger

	cfg     QAConfig
	uuidGen UUIDGenerator
	now     func() time.Time
}

func NewQAService(deps QADependencies, cfg QAConfig) *QAService {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Chunking == (ChunkConfig{}) {
		cfg.Chunking = DefaultChunkConfig()
	}
	if deps.Composer == nil {
		deps.Composer = NewPromptComposer(DefaultContextChars)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.QueryLog == nil {
		deps.QueryLog = querylog.Discard{}
	}

	return &QAService{
		extractor: deps.Extractor,
		store:     deps.Store,
		indexer:   NewIndexer(deps.Embedder, deps.Store, deps.Policy),
		retriever: NewRetriever(deps.Embedder, deps.Store),
		composer:  deps.Composer,
		answerer:  deps.Answerer,
		queryLog:  deps.QueryLog,
		archiver:  deps.Archiver,
		logger:    deps.Logger,
		cfg:       cfg,
		uuidGen:   &DefaultUUIDGenerator{},
		now:       time.Now,
	}
}

// Ingest validates a PDF upload, archives it when an archiver is configured, extracts
// its text and indexes the chunks under the document's file name.
func (s *QAService) Ingest(ctx context.Context, filename string, data []byte) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "qa.ingest", telemetry.SpanAttributes{
		Source:     filename,
		Collection: s.cfg.Collection,
		Operation:  "ingest",
	})
	defer span.End()

	if err := domain.ValidatePDF(filename, data); err != nil {
		span.SetStatus(sentry.SpanStatusInvalidArgument)
		return nil, err
	}

	doc := &domain.Document{
		ID:        s.uuidGen.NewString(),
		Filename:  filename,
		SizeBytes: int64(len(data)),
	}

	if s.archiver != nil {
		key := path.Join("documents", doc.ID, path.Base(filename))
		if err := s.archiver.PutPDF(ctx, key, data); err != nil {
			s.logger.Warn("pdf archive failed", zap.String("filename", filename), zap.Error(err))
			telemetry.CaptureError(ctx, err)
		} else {
			doc.ArchiveKey = key
		}
	}

	text, pages, err := s.extractor.Text(data)
	if err != nil {
		span.SetError(err)
		if domain.CodeOf(err) == "" {
			err = domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to extract text from "+filename, err)
		}
		return nil, err
	}
	doc.Pages = pages

	chunks, err := Chunk(text, s.cfg.Chunking)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	n, err := s.indexer.Index(ctx, filename, chunks)
	s.mu.Unlock()
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	doc.Chunks = n
	doc.IndexedAt = s.now().UTC()

	s.logger.Info("document indexed",
		zap.String("document_id", doc.ID),
		zap.String("filename", filename),
		zap.Int("pages", pages),
		zap.Int("chunks", n),
		zap.String("policy", string(s.indexer.Policy())),
	)
	if n == 0 {
		s.logger.Warn("document produced no text", zap.String("filename", filename))
	}

	return doc, nil
}

// Ask answers one question from the indexed documents. Only retrieval failures are
// returned as errors: backend failures are part of the answer and a failed log append
// is reported through Session.Warning.
func (s *QAService) Ask(ctx context.Context, query string) (*domain.Session, error) {
	session := &domain.Session{
		ID:      s.uuidGen.NewString(),
		Query:   query,
		Sources: []domain.ScoredChunk{},
		AskedAt: s.now().UTC(),
	}

	if strings.TrimSpace(query) == "" {
		session.Answer = GuidanceAnswer
		return session, nil
	}

	sources, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	session.Sources = sources
	session.Prompt = s.composer.Compose(query, sources)

	answerCtx, answerSpan := telemetry.StartSpan(ctx, "qa.answer", telemetry.SpanAttributes{
		Backend:   s.answerer.BackendName(),
		Operation: "answer",
	})
	session.Answer = s.answerer.Answer(answerCtx, session.Prompt)
	answerSpan.End()

	s.log(ctx, session)

	return session, nil
}

func (s *QAService) retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "qa.retrieve", telemetry.SpanAttributes{
		Collection: s.cfg.Collection,
		Operation:  "retrieve",
	})
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.retriever.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return hits, nil
}

func (s *QAService) log(ctx context.Context, session *domain.Session) {
	ctx, span := telemetry.StartSpan(ctx, "qa.log", telemetry.SpanAttributes{Operation: "log"})
	defer span.End()

	if err := s.queryLog.Log(ctx, []domain.LogEntry{domain.NewLogEntry(session)}); err != nil {
		s.logger.Warn("query log append failed",
			zap.String("session_id", session.ID),
			zap.String("error_code", domain.CodeOf(err)),
			zap.Error(err),
		)
		telemetry.CaptureError(ctx, err)
		span.SetStatus(sentry.SpanStatusUnavailable)
		session.Warning = "answer was not logged: " + err.Error()
	}
}

// Stats returns the number of records in the vector store.
func (s *QAService) Stats(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to count records", err)
	}
	return n, nil
}
