package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/cloo-solutions/kbagent/internal/api"
	"github.com/cloo-solutions/kbagent/internal/domain"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Records  int
	Query    string
	Document *domain.Document
	Session  *domain.Session
	Error    string
}

// PageHandler serves the single-page web UI. Form posts re-render the page.
type PageHandler struct {
	svc    QAService
	logger *zap.Logger
}

func NewPageHandler(svc QAService, logger *zap.Logger) *PageHandler {
	return &PageHandler{svc: svc, logger: logger}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, &pageData{})
}

func (h *PageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	filename, data, err := readUpload(r)
	if err != nil {
		h.render(w, r, api.DomainErrorToHTTP(err), &pageData{Error: err.Error()})
		return
	}

	doc, err := h.svc.Ingest(r.Context(), filename, data)
	if err != nil {
		h.render(w, r, api.DomainErrorToHTTP(err), &pageData{Error: err.Error()})
		return
	}

	h.render(w, r, http.StatusOK, &pageData{Document: doc})
}

func (h *PageHandler) Ask(w http.ResponseWriter, r *http.Request) {
	query := r.FormValue("query")

	session, err := h.svc.Ask(r.Context(), query)
	if err != nil {
		h.render(w, r, api.DomainErrorToHTTP(err), &pageData{Query: query, Error: err.Error()})
		return
	}

	h.render(w, r, http.StatusOK, &pageData{Query: query, Session: session})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	records, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.Warn("record count unavailable", zap.Error(err))
	}
	data.Records = records

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("render page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
