package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the outermost DomainError in err's chain, or "".
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// Error codes
const (
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeIndexing      = "INDEXING_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeCredential    = "CREDENTIAL_ERROR"
	ErrCodeBackend       = "BACKEND_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeExtraction    = "EXTRACTION_ERROR"
)

// Configuration errors
var (
	ErrInvalidChunkParams = NewDomainError(ErrCodeConfiguration, "chunk size must be greater than overlap and overlap must not be negative")
	ErrMissingCredentials = NewDomainError(ErrCodeCredential, "no google credentials configured")
)

// Validation errors
var (
	ErrEmptyUpload    = NewDomainError(ErrCodeValidation, "uploaded file is empty")
	ErrNotPDF         = NewDomainError(ErrCodeValidation, "uploaded file is not a PDF")
	ErrMissingField   = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidRequest = NewDomainError(ErrCodeValidation, "invalid request body")
)
