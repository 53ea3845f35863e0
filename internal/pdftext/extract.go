// Package pdftext extracts page-ordered plain text from PDF files.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/ledongthuc/pdf"
)

// Extractor reads PDFs held in memory.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Pages returns one string per page. Pages without a content object or whose text
// cannot be decoded come back as "".
func (e *Extractor) Pages(data []byte) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to parse PDF", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to parse PDF", err)
	}

	count := reader.NumPage()
	pages = make([]string, count)
	for i := 1; i <= count; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = strings.TrimSpace(text)
	}

	return pages, nil
}

// Text returns all pages joined by newlines.
func (e *Extractor) Text(data []byte) (string, int, error) {
	pages, err := e.Pages(data)
	if err != nil {
		return "", 0, err
	}
	return strings.Join(pages, "\n"), len(pages), nil
}
