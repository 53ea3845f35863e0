package handlers

import (
	"net/http"

	"github.com/cloo-solutions/kbagent/internal/api"
)

type HealthHandler struct {
	svc QAService
}

func NewHealthHandler(svc QAService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, HealthResponse{Status: "ok", Records: records})
}
