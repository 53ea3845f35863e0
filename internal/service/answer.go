package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/kbagent/internal/llm"
)

const (
	// GuidanceAnswer is returned for an empty question without calling a backend.
	GuidanceAnswer = "Please enter a question."

	DefaultMaxPromptChars = 4000
	DefaultLLMTimeout     = 60 * time.Second
)

type AnswererConfig struct {
	MaxPromptChars int
	Timeout        time.Duration
}

// Answerer sends prompts to a language model backend. Backend failures become the
// answer text "<backend> Error: <message>" rather than errors.
type Answerer struct {
	backend        llm.Backend
	maxPromptChars int
	timeout        time.Duration
}

func NewAnswerer(backend llm.Backend, cfg AnswererConfig) *Answerer {
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = DefaultMaxPromptChars
	}
	return &Answerer{
		backend:        backend,
		maxPromptChars: cfg.MaxPromptChars,
		timeout:        cfg.Timeout,
	}
}

func (a *Answerer) BackendName() string {
	return a.backend.Name()
}

// Answer returns the backend's reply to prompt. No retries.
func (a *Answerer) Answer(ctx context.Context, prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return GuidanceAnswer
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	answer, err := a.backend.Generate(ctx, truncateRunes(prompt, a.maxPromptChars))
	if err != nil {
		return fmt.Sprintf("%s Error: %s", a.backend.Name(), err.Error())
	}
	return answer
}
