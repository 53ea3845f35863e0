package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Document describes one ingested PDF.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	Pages      int       `json:"pages"`
	Chunks     int       `json:"chunks"`
	ArchiveKey string    `json:"archive_key,omitempty"`
	IndexedAt  time.Time `json:"indexed_at"`
}

var pdfMagic = []byte("%PDF-")

// ValidatePDF checks that an upload is non-empty and looks like a PDF.
func ValidatePDF(filename string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyUpload
	}
	if len(data) >= len(pdfMagic) && string(data[:len(pdfMagic)]) == string(pdfMagic) {
		return nil
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return NewDomainError(ErrCodeValidation, "file has a .pdf extension but no PDF header")
	}
	return ErrNotPDF
}
