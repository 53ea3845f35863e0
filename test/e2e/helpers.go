//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/kbagent/internal/cli/client"
	"github.com/cloo-solutions/kbagent/internal/cli/daemon"
	"github.com/cloo-solutions/kbagent/internal/config"
	"github.com/cloo-solutions/kbagent/internal/server"
	"github.com/cloo-solutions/kbagent/internal/testutil"
	"go.uber.org/zap/zaptest"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T         *testing.T
	Ctx       context.Context
	PostgresC *testutil.PostgresContainer
	RustFSC   *testutil.RustFSContainer
	Models    *httptest.Server
	Server    *httptest.Server
	App       *daemon.App
	Client    *client.APIClient
}

// SetupE2EEnv starts Postgres and RustFS, wires the full pipeline against them and serves
// it over HTTP. Embeddings and completions come from a fake OpenAI-compatible server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	models := newModelServer(t)

	cfg := &config.Config{
		Environment:         "test",
		LLMBackend:          config.LLMBackendGroq,
		GroqAPIKey:          "test-key",
		GroqBaseURL:         models.URL + "/v1",
		GroqModel:           "llama3-8b-8192",
		LLMTimeout:          10 * time.Second,
		EmbeddingBaseURL:    models.URL + "/v1",
		EmbeddingModel:      "all-minilm",
		EmbeddingDimensions: 3,
		VectorStore:         config.VectorStorePGVector,
		DatabaseURL:         pgC.ConnectionString(),
		MigrationsPath:      "../../migrations",
		Collection:          "e2e",
		IndexPolicy:         config.IndexPolicyReplace,
		ChunkSize:           6,
		ChunkOverlap:        0,
		TopK:                1,
		ContextChars:        1200,
		MaxPromptChars:      4000,
		LogStore:            config.LogStorePostgres,
		S3Endpoint:          s3C.Endpoint(),
		S3AccessKey:         "rustfsadmin",
		S3SecretKey:         "rustfsadmin",
		S3Bucket:            "e2e-documents",
		S3Region:            "us-east-1",
		MaxUploadBytes:      server.DefaultMaxBodyBytes,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}

	logger := zaptest.NewLogger(t)
	app, err := daemon.Build(ctx, cfg, logger, daemon.BuildOptions{})
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}

	srv := httptest.NewServer(server.NewRouter(server.RouterConfig{
		Logger:       logger,
		MaxBodyBytes: cfg.MaxUploadBytes,
		QA:           app.QA,
	}))

	return &E2ETestEnv{
		T:         t,
		Ctx:       ctx,
		PostgresC: pgC,
		RustFSC:   s3C,
		Models:    models,
		Server:    srv,
		App:       app,
		Client:    client.NewAPIClientWithConfig(srv.URL),
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.App != nil {
		e.App.Close()
	}
	if e.Models != nil {
		e.Models.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// WritePDF stores a generated PDF under the test's temp dir and returns its path.
func (e *E2ETestEnv) WritePDF(name string, pages ...string) string {
	path := filepath.Join(e.T.TempDir(), name)
	if err := os.WriteFile(path, testutil.BuildPDF(pages...), 0o600); err != nil {
		e.T.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// topics are the embedding axes of the fake model server.
var topics = [][]string{
	{"paris", "france", "french"},
	{"berlin", "germany", "german"},
}

// embed maps text onto one axis per topic plus a constant bias so no vector is zero.
func embed(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(topics)+1)
	for i, words := range topics {
		for _, w := range words {
			if strings.Contains(lower, w) {
				vec[i]++
			}
		}
	}
	vec[len(topics)] = 0.1
	return vec
}

func newModelServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/embeddings":
			var req struct {
				Input []string `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data := make([]map[string]any, len(req.Input))
			for i, in := range req.Input {
				data[i] = map[string]any{"object": "embedding", "index": i, "embedding": embed(in)}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})

		case "/v1/chat/completions":
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			prompt := req.Messages[len(req.Messages)-1].Content
			answer := "I don't know"
			switch {
			case strings.Contains(prompt, "Paris is the capital"):
				answer = "Paris."
			case strings.Contains(prompt, "Berlin is the capital"):
				answer = "Berlin."
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-e2e",
				"object":  "chat.completion",
				"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": answer}, "finish_reason": "stop"}},
			})

		default:
			http.NotFound(w, r)
		}
	}))
}
