package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cloo-solutions/kbagent/internal/api"
	"github.com/cloo-solutions/kbagent/internal/domain"
)

type AskHandler struct {
	svc QAService
}

func NewAskHandler(svc QAService) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	Query string `json:"query"`
}

// Ask answers a question. An empty query is not an error: the session carries the
// guidance answer.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
		return
	}

	session, err := h.svc.Ask(r.Context(), req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, session)
}
