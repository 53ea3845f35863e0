package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

// multipartMemory is the part of a multipart upload kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// QAService is the pipeline the handlers drive.
type QAService interface {
	Ingest(ctx context.Context, filename string, data []byte) (*domain.Document, error)
	Ask(ctx context.Context, query string) (*domain.Session, error)
	Stats(ctx context.Context) (int, error)
}

// readUpload returns the name and content of the multipart "file" field.
func readUpload(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, err
		}
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid multipart form", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "file is required", domain.ErrMissingField)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}

	return filepath.Base(header.Filename), data, nil
}
