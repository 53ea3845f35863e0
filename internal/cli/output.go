package cli

import (
	"fmt"
	"io"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

// PrintSession writes a human-readable answer.
func PrintSession(w io.Writer, s *domain.Session, showSources bool) {
	fmt.Fprintln(w, s.Answer)
	if s.HasWarning() {
		fmt.Fprintf(w, "\nwarning: %s\n", s.Warning)
	}
	if !showSources || len(s.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, c := range s.Sources {
		fmt.Fprintf(w, "  %d. %s #%d (score %.3f)\n", i+1, c.Source, c.Index, c.Score)
	}
}

// PrintDocument writes an indexing summary.
func PrintDocument(w io.Writer, d *domain.Document) {
	fmt.Fprintf(w, "Indexed %s: %d pages, %d chunks\n", d.Filename, d.Pages, d.Chunks)
	if d.ArchiveKey != "" {
		fmt.Fprintf(w, "Archived as %s\n", d.ArchiveKey)
	}
}
