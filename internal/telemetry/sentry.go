// Package telemetry traces the ingest and question pipelines with Sentry.
package telemetry

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const (
	serviceName = "kbagent"

	flushTimeout = 5 * time.Second
)

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// Init initializes Sentry and returns a flush function. Without a DSN, or when the client
// cannot be created, tracing stays off and the daemon runs normally.
func Init(cfg Config, logger *zap.Logger) (func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		return noop, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate <= 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		TracesSampler:    sampler(cfg.TracesSampleRate),
	})
	if err != nil {
		logger.Warn("sentry init failed, continuing without tracing", zap.Error(err))
		return noop, nil
	}

	logger.Info("sentry tracing initialized",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", cfg.TracesSampleRate),
	)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// sampler drops health probes and keeps a child's sampling decision equal to its parent's.
func sampler(rate float64) sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		if strings.HasSuffix(ctx.Span.Name, " /health") {
			return 0
		}
		if ctx.Parent != nil {
			if ctx.Parent.Sampled.Bool() {
				return 1
			}
			return 0
		}
		return rate
	}
}

// SpanAttributes are tags attached to pipeline spans. Empty fields are skipped.
type SpanAttributes struct {
	Source     string
	Collection string
	Backend    string
	Operation  string
}

func (a SpanAttributes) apply(span *sentry.Span) {
	tags := map[string]string{
		"source":      a.Source,
		"collection":  a.Collection,
		"llm_backend": a.Backend,
	}
	for k, v := range tags {
		if v != "" {
			span.SetTag(k, v)
		}
	}
	if a.Operation != "" {
		span.SetData("operation", a.Operation)
	}
}

// Span is a pipeline stage. The zero value is a valid no-op span.
type Span struct {
	inner *sentry.Span
}

func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

func (s *Span) SetStatus(status sentry.SpanStatus) {
	if s.inner != nil {
		s.inner.Status = status
	}
}

// SetError marks the span failed, tags it with the error's domain code and captures err.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if code := domain.CodeOf(err); code != "" {
		s.inner.SetTag("error_code", code)
	}
	CaptureError(s.inner.Context(), err)
}

func (s *Span) Context() context.Context {
	if s.inner != nil {
		return s.inner.Context()
	}
	return context.Background()
}

// StartSpan starts a child of the span in ctx (the HTTP transaction when called from a
// handler), or a new transaction for CLI runs.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}
	attrs.apply(span)
	return span.Context(), &Span{inner: span}
}

// CaptureError reports err on the hub in ctx, falling back to the global hub. Domain
// errors carry their code as a tag so swallowed log failures can be filtered.
func CaptureError(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if code := domain.CodeOf(err); code != "" {
			scope.SetTag("error_code", code)
		}
		hub.CaptureException(err)
	})
}
