package daemon

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloo-solutions/kbagent/internal/cli"
	"github.com/cloo-solutions/kbagent/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// AddConfigFlags registers the persistent flags that override environment configuration.
func AddConfigFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.Bool("debug", false, "Development logging")
	f.String("llm-backend", "", "Language model backend: groq or ollama")
	f.String("vector-store", "", "Vector store: sqlite, pgvector, qdrant or memory")
	f.String("data-dir", "", "Directory of the sqlite vector store")
	f.String("collection", "", "Collection holding the indexed chunks")
	f.String("index-policy", "", "replace or accumulate")
	f.String("log-store", "", "Question log: sheets, postgres or none")
	f.Int("top-k", 0, "Chunks retrieved per question")
	f.Int("chunk-size", 0, "Words per chunk")
	f.Int("chunk-overlap", 0, "Words shared by consecutive chunks")
	f.Duration("llm-timeout", 0, "Timeout of one model call")
	f.Bool("no-migrate", false, "Skip automatic database migrations on startup")

	f.VisitAll(func(fl *pflag.Flag) {
		if fl.Name != "no-migrate" {
			annotateEnv(f, fl.Name)
		}
	})
}

// annotateEnv records the environment variable a flag overrides, for --help-json.
func annotateEnv(f *pflag.FlagSet, name string) {
	env := "KBAGENT_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	_ = f.SetAnnotation(name, cli.EnvAnnotation, []string{env})
}

// loadConfig resolves configuration as flag > environment > .env > default.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return nil, err
	}

	var flagErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if flagErr == nil {
			flagErr = applyFlag(cfg, f)
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlag(cfg *config.Config, f *pflag.Flag) error {
	value := f.Value.String()

	var err error
	switch f.Name {
	case "port":
		cfg.Port = value
	case "debug":
		cfg.Debug, err = strconv.ParseBool(value)
	case "llm-backend":
		cfg.LLMBackend = value
	case "vector-store":
		cfg.VectorStore = value
	case "data-dir":
		cfg.DataDir = value
	case "collection":
		cfg.Collection = value
	case "index-policy":
		cfg.IndexPolicy = value
	case "log-store":
		cfg.LogStore = value
	case "top-k":
		cfg.TopK, err = strconv.Atoi(value)
	case "chunk-size":
		cfg.ChunkSize, err = strconv.Atoi(value)
	case "chunk-overlap":
		cfg.ChunkOverlap, err = strconv.Atoi(value)
	case "llm-timeout":
		cfg.LLMTimeout, err = time.ParseDuration(value)
	}
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", f.Name, err)
	}
	return nil
}

// NewLogger builds the process logger: JSON in production, console with debug.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
