// Package embedding turns text into vectors through an OpenAI-compatible embeddings
// endpoint. The same Client must be used for indexing and for querying.
package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is all-MiniLM-L6-v2 as published by Ollama.
	DefaultModel = "all-minilm"
	// DefaultDimensions matches DefaultModel.
	DefaultDimensions = 384
	// DefaultBaseURL is a local Ollama server's OpenAI-compatible API.
	DefaultBaseURL = "http://localhost:11434/v1"
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding does not have the configured size
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoData is returned when the endpoint answers without any embedding
	ErrNoData = errors.New("no embedding data returned")
)

// API defines the raw embedding call.
type API interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// OpenAIAdapter calls the embeddings endpoint through go-openai.
type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey, baseURL string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// CreateEmbeddings calls the embeddings endpoint for a single input
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, ErrNoData
	}

	return resp.Data[0].Embedding, nil
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// Client validates embeddings returned by an API.
type Client struct {
	api        API
	model      string
	dimensions int
}

// NewClient creates a client from explicit configuration. Zero values fall back to the
// local Ollama defaults.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	adapter := NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, openai.EmbeddingModel(cfg.Model))
	return NewClientWithAPI(adapter, cfg.Model, cfg.Dimensions)
}

// NewClientWithAPI wraps any API. dimensions <= 0 disables the size check.
func NewClientWithAPI(api API, model string, dimensions int) *Client {
	return &Client{
		api:        api,
		model:      model,
		dimensions: dimensions,
	}
}

// Model returns the embedding model name.
func (c *Client) Model() string {
	return c.model
}

// Dimensions returns the expected vector size, or 0 when unchecked.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Embed generates an embedding for the given text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vector, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if c.dimensions > 0 && len(vector) != c.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(vector))
	}

	return vector, nil
}
