// Package api holds the JSON envelopes shared by every handler.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response. Code is the domain error code, when
// there is one.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// codeStatus maps domain error codes to HTTP statuses. Unlisted codes are 500.
var codeStatus = map[string]int{
	domain.ErrCodeValidation: http.StatusBadRequest,
	domain.ErrCodeExtraction: http.StatusUnprocessableEntity,
	domain.ErrCodeIndexing:   http.StatusBadGateway,
	domain.ErrCodeBackend:    http.StatusBadGateway,
	domain.ErrCodeStorage:    http.StatusServiceUnavailable,
}

// DomainErrorToHTTP maps an error to its HTTP status. Bodies cut off by the upload limit
// are 413 whatever wraps them.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	if status, ok := codeStatus[domain.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError writes the error envelope for err.
func HandleError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxBytesErr.Limit))
		return
	}
	JSON(w, DomainErrorToHTTP(err), ErrorResponse{Error: err.Error(), Code: domain.CodeOf(err)})
}
