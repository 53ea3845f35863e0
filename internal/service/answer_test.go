package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAnswerer_Answer_EmptyPrompt(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t"} {
		backend := new(MockBackend)
		answerer := NewAnswerer(backend, AnswererConfig{})

		assert.Equal(t, GuidanceAnswer, answerer.Answer(context.Background(), prompt))
		backend.AssertNumberOfCalls(t, "Generate", 0)
	}
}

func TestAnswerer_Answer_Success(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Generate", mock.Anything, "prompt").Return("Paris.", nil).Once()

	answer := NewAnswerer(backend, AnswererConfig{}).Answer(context.Background(), "prompt")

	assert.Equal(t, "Paris.", answer)
	backend.AssertExpectations(t)
}

func TestAnswerer_Answer_EmptyCompletionPassesThrough(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Generate", mock.Anything, "prompt").Return("", nil).Once()

	answer := NewAnswerer(backend, AnswererConfig{}).Answer(context.Background(), "prompt")

	assert.Empty(t, answer)
	assert.NotContains(t, answer, "Error")
}

func TestAnswerer_Answer_BackendErrorBecomesText(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Generate", mock.Anything, "prompt").Return("", errors.New("401 invalid api key")).Once()

	answer := NewAnswerer(backend, AnswererConfig{}).Answer(context.Background(), "prompt")

	assert.Equal(t, "Mock Error: 401 invalid api key", answer)
	backend.AssertNumberOfCalls(t, "Generate", 1)
}

func TestAnswerer_Answer_TruncatesPrompt(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return utf8.RuneCountInString(p) == DefaultMaxPromptChars
	})).Return("ok", nil).Once()

	answer := NewAnswerer(backend, AnswererConfig{}).Answer(context.Background(), strings.Repeat("é", DefaultMaxPromptChars+500))

	assert.Equal(t, "ok", answer)
	backend.AssertExpectations(t)
}

func TestAnswerer_Answer_Timeout(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Generate", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), "prompt").Return("", context.DeadlineExceeded).Once()

	answerer := NewAnswerer(backend, AnswererConfig{Timeout: time.Second})

	assert.Equal(t, "Mock Error: context deadline exceeded", answerer.Answer(context.Background(), "prompt"))
	assert.Equal(t, "Mock", answerer.BackendName())
}
