package handlers

import (
	"net/http"

	"github.com/cloo-solutions/kbagent/internal/api"
)

type DocumentHandler struct {
	svc QAService
}

func NewDocumentHandler(svc QAService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload indexes a PDF sent as the multipart field "file".
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	filename, data, err := readUpload(r)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	doc, err := h.svc.Ingest(r.Context(), filename, data)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, doc)
}
