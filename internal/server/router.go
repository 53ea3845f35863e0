package server

import (
	"net/http"

	"github.com/cloo-solutions/kbagent/internal/api/handlers"
	"github.com/cloo-solutions/kbagent/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps request bodies, uploads included.
const DefaultMaxBodyBytes int64 = 20 << 20

type RouterConfig struct {
	Logger       *zap.Logger
	MaxBodyBytes int64
	QA           handlers.QAService
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	pageHandler := handlers.NewPageHandler(cfg.QA, cfg.Logger)
	documentHandler := handlers.NewDocumentHandler(cfg.QA)
	askHandler := handlers.NewAskHandler(cfg.QA)
	healthHandler := handlers.NewHealthHandler(cfg.QA)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(cfg.MaxBodyBytes))

	r.Get("/health", healthHandler.Health)

	r.Get("/", pageHandler.Index)
	r.Post("/upload", pageHandler.Upload)
	r.Post("/ask", pageHandler.Ask)

	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", documentHandler.Upload)
		r.Post("/ask", askHandler.Ask)
	})

	return r
}
