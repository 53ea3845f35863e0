// Package llm provides the language-model backends used to answer questions.
package llm

import "context"

// Backend generates a completion for a fully composed prompt.
type Backend interface {
	// Name is the human-readable tag used when reporting failures.
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}
