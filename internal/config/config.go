package config

import (
	"fmt"
	"time"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "KBAGENT"

// Backend, store and policy names accepted in configuration.
const (
	LLMBackendGroq   = "groq"
	LLMBackendOllama = "ollama"

	VectorStoreSQLite   = "sqlite"
	VectorStorePGVector = "pgvector"
	VectorStoreQdrant   = "qdrant"
	VectorStoreMemory   = "memory"

	IndexPolicyReplace    = "replace"
	IndexPolicyAccumulate = "accumulate"

	LogStoreSheets   = "sheets"
	LogStorePostgres = "postgres"
	LogStoreNone     = "none"
)

// Config is resolved once at startup. Every variable may be given with the KBAGENT_
// prefix or without it; the prefixed form wins.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`

	LLMBackend      string        `envconfig:"LLM_BACKEND" default:"groq"`
	GroqAPIKey      string        `envconfig:"GROQ_API_KEY"`
	GroqModel       string        `envconfig:"GROQ_MODEL" default:"llama3-8b-8192"`
	GroqBaseURL     string        `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	LocalLLMCommand string        `envconfig:"LOCAL_LLM_COMMAND" default:"ollama"`
	LocalLLMModel   string        `envconfig:"LOCAL_LLM_MODEL" default:"llama3"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`

	EmbeddingBaseURL    string `envconfig:"EMBEDDING_BASE_URL" default:"http://localhost:11434/v1"`
	EmbeddingAPIKey     string `envconfig:"EMBEDDING_API_KEY"`
	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"all-minilm"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"384"`

	VectorStore    string `envconfig:"VECTOR_STORE" default:"sqlite"`
	DataDir        string `envconfig:"DATA_DIR" default:"vector_db"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`
	QdrantURL      string `envconfig:"QDRANT_URL" default:"localhost:6334"`
	QdrantAPIKey   string `envconfig:"QDRANT_API_KEY"`
	Collection     string `envconfig:"COLLECTION" default:"documents"`
	IndexPolicy    string `envconfig:"INDEX_POLICY" default:"replace"`

	ChunkSize      int `envconfig:"CHUNK_SIZE" default:"200"`
	ChunkOverlap   int `envconfig:"CHUNK_OVERLAP" default:"50"`
	TopK           int `envconfig:"TOP_K" default:"2"`
	ContextChars   int `envconfig:"CONTEXT_CHARS" default:"1200"`
	MaxPromptChars int `envconfig:"MAX_PROMPT_CHARS" default:"4000"`

	LogStore           string `envconfig:"LOG_STORE" default:"sheets"`
	SpreadsheetID      string `envconfig:"SPREADSHEET_ID"`
	SheetRange         string `envconfig:"SHEET_RANGE" default:"Sheet1!A1"`
	GCPKeyB64          string `envconfig:"GCP_KEY_B64"`
	GCPCredentialsFile string `envconfig:"GCP_CREDENTIALS_FILE"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"kbagent-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`
}

// Load reads configuration from the environment, after merging a .env file if present.
// Variables already set in the process environment are never overridden by .env.
func Load() (*Config, error) {
	cfg, err := LoadUnvalidated()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadUnvalidated is Load without Validate, for callers that apply overrides first.
func LoadUnvalidated() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.ChunkSize <= c.ChunkOverlap || c.ChunkOverlap < 0 {
		return domain.NewDomainErrorWithCause(domain.ErrCodeConfiguration,
			fmt.Sprintf("invalid chunking: size=%d overlap=%d", c.ChunkSize, c.ChunkOverlap),
			domain.ErrInvalidChunkParams)
	}
	if c.TopK <= 0 {
		return configError("TOP_K must be positive, got %d", c.TopK)
	}
	if c.ContextChars <= 0 || c.MaxPromptChars <= 0 {
		return configError("CONTEXT_CHARS and MAX_PROMPT_CHARS must be positive")
	}

	switch c.LLMBackend {
	case LLMBackendGroq, LLMBackendOllama:
	default:
		return configError("unknown LLM_BACKEND %q", c.LLMBackend)
	}

	switch c.VectorStore {
	case VectorStoreSQLite, VectorStoreMemory, VectorStoreQdrant:
	case VectorStorePGVector:
		if c.DatabaseURL == "" {
			return configError("VECTOR_STORE=pgvector requires DATABASE_URL")
		}
	default:
		return configError("unknown VECTOR_STORE %q", c.VectorStore)
	}

	switch c.IndexPolicy {
	case IndexPolicyReplace, IndexPolicyAccumulate:
	default:
		return configError("unknown INDEX_POLICY %q", c.IndexPolicy)
	}

	switch c.LogStore {
	case LogStoreSheets, LogStoreNone:
	case LogStorePostgres:
		if c.DatabaseURL == "" {
			return configError("LOG_STORE=postgres requires DATABASE_URL")
		}
	default:
		return configError("unknown LOG_STORE %q", c.LogStore)
	}

	return nil
}

func configError(format string, args ...any) error {
	return domain.NewDomainError(domain.ErrCodeConfiguration, fmt.Sprintf(format, args...))
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// HasSheets reports whether the Google Sheets log store should be used.
func (c *Config) HasSheets() bool {
	return c.LogStore == LogStoreSheets && c.SpreadsheetID != ""
}

// NeedsDatabase reports whether any component talks to Postgres.
func (c *Config) NeedsDatabase() bool {
	return c.VectorStore == VectorStorePGVector || c.LogStore == LogStorePostgres
}

// EmbeddingKey returns the credential sent to the embeddings endpoint.
func (c *Config) EmbeddingKey() string {
	if c.EmbeddingAPIKey != "" {
		return c.EmbeddingAPIKey
	}
	return c.OpenAIAPIKey
}
