package config

import (
	"testing"
	"time"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("KBAGENT_PORT", "9090")
	t.Setenv("KBAGENT_DEBUG", "true")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("GROQ_MODEL", "llama-3.1-8b-instant")
	t.Setenv("KBAGENT_LLM_TIMEOUT", "5s")
	t.Setenv("KBAGENT_VECTOR_STORE", "memory")
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("KBAGENT_TOP_K", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "gsk-test", cfg.GroqAPIKey)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.GroqModel)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, VectorStoreMemory, cfg.VectorStore)
	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, 4, cfg.TopK)
}

func TestLoad_PrefixedWinsOverPlain(t *testing.T) {
	t.Setenv("GROQ_MODEL", "plain")
	t.Setenv("KBAGENT_GROQ_MODEL", "prefixed")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.GroqModel)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 200, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 2, cfg.TopK)
	assert.Equal(t, 1200, cfg.ContextChars)
	assert.Equal(t, 4000, cfg.MaxPromptChars)
	assert.Equal(t, "Sheet1!A1", cfg.SheetRange)
	assert.Equal(t, IndexPolicyReplace, cfg.IndexPolicy)
	assert.Equal(t, "kbagent-documents", cfg.S3Bucket)
}

func TestLoad_InvalidChunking(t *testing.T) {
	t.Setenv("KBAGENT_CHUNK_SIZE", "50")
	t.Setenv("KBAGENT_CHUNK_OVERLAP", "50")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ErrCodeConfiguration))
}

func TestLoadUnvalidated_DefersValidation(t *testing.T) {
	t.Setenv("KBAGENT_CHUNK_SIZE", "50")
	t.Setenv("KBAGENT_CHUNK_OVERLAP", "50")

	cfg, err := LoadUnvalidated()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.ChunkSize)

	cfg.ChunkOverlap = 10
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LLMBackend:     LLMBackendGroq,
			VectorStore:    VectorStoreSQLite,
			IndexPolicy:    IndexPolicyReplace,
			LogStore:       LogStoreSheets,
			ChunkSize:      200,
			ChunkOverlap:   50,
			TopK:           2,
			ContextChars:   1200,
			MaxPromptChars: 4000,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "negative overlap", mutate: func(c *Config) { c.ChunkOverlap = -1 }, wantErr: true},
		{name: "overlap equals size", mutate: func(c *Config) { c.ChunkOverlap = 200 }, wantErr: true},
		{name: "zero top k", mutate: func(c *Config) { c.TopK = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.LLMBackend = "gpt" }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.VectorStore = "chroma" }, wantErr: true},
		{name: "pgvector without url", mutate: func(c *Config) { c.VectorStore = VectorStorePGVector }, wantErr: true},
		{name: "pgvector with url", mutate: func(c *Config) {
			c.VectorStore = VectorStorePGVector
			c.DatabaseURL = "postgres://localhost/kb"
		}, wantErr: false},
		{name: "unknown policy", mutate: func(c *Config) { c.IndexPolicy = "merge" }, wantErr: true},
		{name: "postgres log without url", mutate: func(c *Config) { c.LogStore = LogStorePostgres }, wantErr: true},
		{name: "unknown log store", mutate: func(c *Config) { c.LogStore = "csv" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.ErrCodeConfiguration, domain.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHasS3(t *testing.T) {
	cfg := &Config{
		S3Endpoint:  "http://localhost:9000",
		S3AccessKey: "key",
		S3SecretKey: "secret",
	}
	assert.True(t, cfg.HasS3())

	cfg.S3Endpoint = ""
	assert.False(t, cfg.HasS3())
}

func TestHasSheets(t *testing.T) {
	cfg := &Config{LogStore: LogStoreSheets, SpreadsheetID: "abc"}
	assert.True(t, cfg.HasSheets())

	cfg.SpreadsheetID = ""
	assert.False(t, cfg.HasSheets())

	cfg = &Config{LogStore: LogStoreNone, SpreadsheetID: "abc"}
	assert.False(t, cfg.HasSheets())
}

func TestEmbeddingKey(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-openai"}
	assert.Equal(t, "sk-openai", cfg.EmbeddingKey())

	cfg.EmbeddingAPIKey = "sk-embed"
	assert.Equal(t, "sk-embed", cfg.EmbeddingKey())
}

func TestNeedsDatabase(t *testing.T) {
	assert.False(t, (&Config{VectorStore: VectorStoreSQLite, LogStore: LogStoreSheets}).NeedsDatabase())
	assert.True(t, (&Config{VectorStore: VectorStorePGVector}).NeedsDatabase())
	assert.True(t, (&Config{LogStore: LogStorePostgres}).NeedsDatabase())
}
