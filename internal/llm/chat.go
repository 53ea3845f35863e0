package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultGroqModel is used when no model override is configured.
	DefaultGroqModel = "llama3-8b-8192"
	// DefaultGroqBaseURL is Groq's OpenAI-compatible API.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

	// SystemPrompt fixes the assistant's behavior for every hosted request.
	SystemPrompt = "You are a helpful assistant that answers questions strictly from the provided document context. Keep answers short and factual."
)

var (
	ErrNoAPIKey  = errors.New("GROQ_API_KEY not set")
	ErrNoChoices = errors.New("completion returned no choices")
)

// ChatAPI is the subset of the go-openai client used by ChatBackend.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type ChatConfig struct {
	Name         string
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
}

// ChatBackend sends one chat-completion request per prompt to an OpenAI-compatible
// endpoint, Groq by default.
type ChatBackend struct {
	api          ChatAPI
	name         string
	hasKey       bool
	model        string
	systemPrompt string
}

func NewChatBackend(cfg ChatConfig) *ChatBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if clientCfg.BaseURL == "" {
		clientCfg.BaseURL = DefaultGroqBaseURL
	}
	return NewChatBackendWithAPI(openai.NewClientWithConfig(clientCfg), cfg)
}

// NewChatBackendWithAPI builds a backend around an existing client.
func NewChatBackendWithAPI(api ChatAPI, cfg ChatConfig) *ChatBackend {
	if cfg.Name == "" {
		cfg.Name = "Groq"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	return &ChatBackend{
		api:          api,
		name:         cfg.Name,
		hasKey:       cfg.APIKey != "",
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}
}

func (b *ChatBackend) Name() string {
	return b.name
}

// Model returns the model identifier sent with each request.
func (b *ChatBackend) Model() string {
	return b.model
}

// Generate returns the first choice's message content.
func (b *ChatBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if !b.hasKey {
		return "", ErrNoAPIKey
	}

	resp, err := b.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	// an empty completion is still the model's answer
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
