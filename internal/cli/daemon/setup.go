package daemon

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/kbagent/internal/config"
	"github.com/cloo-solutions/kbagent/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// environment is what every daemon command runs with.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	app    *App
	flush  func()
}

func setup(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}
	flush, _ := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
	}, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	app, err := Build(ctx, cfg, logger, BuildOptions{SkipMigrations: noMigrate})
	if err != nil {
		flush()
		_ = logger.Sync()
		return nil, err
	}

	return &environment{cfg: cfg, logger: logger, app: app, flush: flush}, nil
}

func (e *environment) close() {
	e.app.Close()
	e.flush()
	_ = e.logger.Sync()
}
