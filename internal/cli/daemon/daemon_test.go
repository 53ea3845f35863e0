package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloo-solutions/kbagent/internal/cli"
	"github.com/cloo-solutions/kbagent/internal/config"
	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/cloo-solutions/kbagent/internal/llm"
	"github.com/cloo-solutions/kbagent/internal/querylog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeModelServer answers both the embeddings and the chat completions endpoints.
func fakeModelServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/embeddings":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`))
		case "/v1/chat/completions":
			resp := map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": answer}}},
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setTestEnv(t *testing.T, srvURL string) {
	t.Helper()
	t.Setenv("KBAGENT_VECTOR_STORE", "memory")
	t.Setenv("KBAGENT_LOG_STORE", "none")
	t.Setenv("KBAGENT_LLM_BACKEND", "groq")
	t.Setenv("KBAGENT_GROQ_API_KEY", "test-key")
	t.Setenv("KBAGENT_GROQ_BASE_URL", srvURL+"/v1")
	t.Setenv("KBAGENT_EMBEDDING_BASE_URL", srvURL+"/v1")
	t.Setenv("KBAGENT_EMBEDDING_DIMENSIONS", "3")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskCmd_EmptyIndex(t *testing.T) {
	srv := fakeModelServer(t, "I don't know")
	setTestEnv(t, srv.URL)

	out, err := execute(t, "ask", "What", "is", "this?")

	require.NoError(t, err)
	assert.Equal(t, "I don't know\n", out)
}

func TestAskCmd_JSON(t *testing.T) {
	srv := fakeModelServer(t, "Paris.")
	setTestEnv(t, srv.URL)

	out, err := execute(t, "ask", "--output", "What is the capital of France?")
	require.NoError(t, err)

	var session domain.Session
	require.NoError(t, json.Unmarshal([]byte(out), &session))
	assert.Equal(t, "What is the capital of France?", session.Query)
	assert.Equal(t, "Paris.", session.Answer)
}

func TestIngestCmd_RejectsNonPDF(t *testing.T) {
	srv := fakeModelServer(t, "")
	setTestEnv(t, srv.URL)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := execute(t, "ingest", path)

	assert.ErrorIs(t, err, domain.ErrNotPDF)
}

func TestIngestCmd_MissingFile(t *testing.T) {
	srv := fakeModelServer(t, "")
	setTestEnv(t, srv.URL)

	_, err := execute(t, "ingest", filepath.Join(t.TempDir(), "missing.pdf"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestHistoryCmd_RequiresPostgres(t *testing.T) {
	srv := fakeModelServer(t, "")
	setTestEnv(t, srv.URL)

	_, err := execute(t, "history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_STORE=postgres")
}

func TestLoadConfig_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("KBAGENT_TOP_K", "5")
	t.Setenv("KBAGENT_VECTOR_STORE", "qdrant")

	cmd := NewRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--top-k", "3", "--llm-timeout", "5s", "--index-policy", "accumulate"}))

	cfg, err := loadConfig(cmd)

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, config.IndexPolicyAccumulate, cfg.IndexPolicy)
	assert.Equal(t, config.VectorStoreQdrant, cfg.VectorStore)
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	cmd := NewRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--chunk-size", "10", "--chunk-overlap", "10"}))

	_, err := loadConfig(cmd)

	assert.True(t, domain.IsCode(err, domain.ErrCodeConfiguration))
}

func TestNewBackend(t *testing.T) {
	cfg := &config.Config{LLMBackend: config.LLMBackendOllama, LocalLLMCommand: "ollama", LocalLLMModel: "llama3"}
	assert.IsType(t, &llm.ProcessBackend{}, NewBackend(cfg))
	assert.Equal(t, "Ollama", NewBackend(cfg).Name())

	cfg.LLMBackend = config.LLMBackendGroq
	assert.IsType(t, &llm.ChatBackend{}, NewBackend(cfg))
	assert.Equal(t, "Groq", NewBackend(cfg).Name())
}

func TestBuild_SQLiteStore(t *testing.T) {
	cfg := &config.Config{
		VectorStore:         config.VectorStoreSQLite,
		DataDir:             t.TempDir(),
		Collection:          "documents",
		EmbeddingDimensions: 3,
		LLMBackend:          config.LLMBackendGroq,
		IndexPolicy:         config.IndexPolicyReplace,
		LogStore:            config.LogStoreSheets,
		ChunkSize:           200,
		ChunkOverlap:        50,
		TopK:                2,
		ContextChars:        1200,
		MaxPromptChars:      4000,
	}

	app, err := Build(context.Background(), cfg, zap.NewNop(), BuildOptions{})
	require.NoError(t, err)
	defer app.Close()

	n, err := app.QA.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Nil(t, app.QALog)
	assert.Nil(t, app.Archive)
	assert.FileExists(t, filepath.Join(cfg.DataDir, "documents.db"))
}

func TestNewQueryLogger(t *testing.T) {
	app := &App{logger: zap.NewNop()}

	assert.IsType(t, querylog.Discard{}, app.newQueryLogger(&config.Config{LogStore: config.LogStoreNone}))
	assert.IsType(t, querylog.Discard{}, app.newQueryLogger(&config.Config{LogStore: config.LogStoreSheets}))
	assert.IsType(t, &querylog.SheetsLogger{}, app.newQueryLogger(&config.Config{LogStore: config.LogStoreSheets, SpreadsheetID: "sheet"}))
}

func TestConfigFlags_AnnotatedWithEnv(t *testing.T) {
	schema := cli.GenerateSchema(NewRootCmd())

	envs := map[string]string{}
	for _, f := range schema.Flags {
		envs[f.Name] = f.Env
	}
	assert.Equal(t, "KBAGENT_VECTOR_STORE", envs["vector-store"])
	assert.Equal(t, "KBAGENT_TOP_K", envs["top-k"])
	assert.Empty(t, envs["no-migrate"])

	for _, sub := range schema.Subcommands {
		if sub.Name == "serve" {
			require.Len(t, sub.Flags, 1)
			assert.Equal(t, "KBAGENT_PORT", sub.Flags[0].Env)
		}
	}
}
