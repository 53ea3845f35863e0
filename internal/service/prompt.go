package service

import (
	"strings"

	"github.com/cloo-solutions/kbagent/internal/domain"
)

const (
	// DefaultContextChars bounds the retrieved context placed in a prompt, in runes.
	DefaultContextChars = 1200

	// UnknownAnswer is what the model is told to say when the context has no answer.
	UnknownAnswer = "I don't know"

	contextSeparator = "\n\n"

	promptTemplate = "Answer the question using the context below.\n" +
		"If the answer is not in the context, say \"" + UnknownAnswer + "\".\n\n" +
		"Context:\n%CONTEXT%\n\n" +
		"Question: %QUERY%\n\n" +
		"Answer:"
)

// PromptComposer renders retrieved chunks and a question into a single prompt.
type PromptComposer struct {
	contextChars int
}

func NewPromptComposer(contextChars int) *PromptComposer {
	if contextChars <= 0 {
		contextChars = DefaultContextChars
	}
	return &PromptComposer{contextChars: contextChars}
}

// Compose joins chunk texts in retrieval order, cuts the result to the context budget
// and fills the template. Cuts may land mid-sentence.
func (p *PromptComposer) Compose(query string, chunks []domain.ScoredChunk) string {
	contextText := truncateRunes(strings.Join(domain.Texts(chunks), contextSeparator), p.contextChars)

	return strings.NewReplacer("%CONTEXT%", contextText, "%QUERY%", query).Replace(promptTemplate)
}

// TemplateOverhead is the length of the template without context and question.
func TemplateOverhead() int {
	return len([]rune(promptTemplate)) - len("%CONTEXT%") - len("%QUERY%")
}

func truncateRunes(s string, limit int) string {
	if limit < 0 || len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
