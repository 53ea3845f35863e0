package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/stretchr/testify/assert"
)

func scored(texts ...string) []domain.ScoredChunk {
	chunks := make([]domain.ScoredChunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.ScoredChunk{Chunk: domain.Chunk{Index: i, Text: t}}
	}
	return chunks
}

func TestPromptComposer_Compose(t *testing.T) {
	prompt := NewPromptComposer(0).Compose("What is the capital of France?", scored("Paris is the capital of France.", "It is on the Seine."))

	expected := "Answer the question using the context below.\n" +
		"If the answer is not in the context, say \"I don't know\".\n\n" +
		"Context:\nParis is the capital of France.\n\nIt is on the Seine.\n\n" +
		"Question: What is the capital of France?\n\n" +
		"Answer:"
	assert.Equal(t, expected, prompt)
}

func TestPromptComposer_Compose_Budget(t *testing.T) {
	tests := []struct {
		name   string
		budget int
		texts  []string
		query  string
	}{
		{name: "no chunks", budget: 1200, query: "anything?"},
		{name: "exact fit", budget: 10, texts: []string{"0123456789"}, query: "q"},
		{name: "long ascii", budget: 1200, texts: []string{strings.Repeat("word ", 400), strings.Repeat("more ", 400)}, query: "q"},
		{name: "multibyte", budget: 7, texts: []string{"héllo wörld ñ"}, query: "¿qué?"},
		{name: "tiny budget", budget: 1, texts: []string{"abc", "def"}, query: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompt string
			assert.NotPanics(t, func() {
				prompt = NewPromptComposer(tt.budget).Compose(tt.query, scored(tt.texts...))
			})

			limit := tt.budget + TemplateOverhead() + utf8.RuneCountInString(tt.query)
			assert.LessOrEqual(t, utf8.RuneCountInString(prompt), limit)
			assert.True(t, utf8.ValidString(prompt))
			assert.Contains(t, prompt, "Question: "+tt.query)
		})
	}
}

func TestPromptComposer_Compose_MidSentenceCut(t *testing.T) {
	prompt := NewPromptComposer(12).Compose("q", scored("The river is long and wide."))

	assert.Contains(t, prompt, "Context:\nThe river is\n\nQuestion")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo wörld", 5))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "", truncateRunes("abc", 0))
}
