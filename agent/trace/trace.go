// Package trace provides Tracer sinks for orchestrator turns.
package trace

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
)

// Noop discards every span.
type Noop struct{}

var _ contractx.Tracer = Noop{}

func (Noop) StartSpan(ctx context.Context, _ string, _ map[string]any) (context.Context, contractx.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(any, error) {}

// Logger writes one debug line when a span starts and one line with its
// duration when it ends. Failed spans are logged at warn level.
type Logger struct {
	base zerolog.Logger
}

var _ contractx.Tracer = (*Logger)(nil)

func NewLogger(base zerolog.Logger) *Logger {
	return &Logger{base: base}
}

type spanKey struct{}

func (l *Logger) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, contractx.Span) {
	logger := l.base.With().Str("span", name).Logger()
	if parent, ok := ctx.Value(spanKey{}).(string); ok {
		logger = logger.With().Str("parent_span", parent).Logger()
	}
	if len(attrs) > 0 {
		logger = logger.With().Fields(attrs).Logger()
	}

	logger.Debug().Msg("span started")
	return context.WithValue(ctx, spanKey{}, name), &logSpan{logger: logger, started: time.Now()}
}

type logSpan struct {
	logger  zerolog.Logger
	started time.Time
}

func (s *logSpan) End(output any, err error) {
	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	if output != nil {
		event = event.Interface("output", output)
	}
	event.Dur("duration", time.Since(s.started)).Msg("span finished")
}
