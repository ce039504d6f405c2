// Package logctx carries a zerolog logger through context.Context so that
// fields such as run_id and batch_index reach every log line of a run.
//
//	ctx = logctx.WithRun(ctx, logging.WithPhase("summarize"))
//	...
//	log := logctx.FromContext(ctx)
package logctx

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Justice4Joffrey/log-parser/pkg/logging"
)

type loggerKey struct{}

type runIDKey struct{}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
			return logger
		}
	}
	return *logging.L()
}

// WithRun attaches base, enriched with a fresh run_id, and records the id.
func WithRun(ctx context.Context, base zerolog.Logger) context.Context {
	id := uuid.NewString()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, runIDKey{}, id)
	return WithLogger(ctx, base.With().Str("run_id", id).Logger())
}

// RunID returns the id recorded by WithRun, or "".
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// WithStr returns a new context whose logger has the string field added.
func WithStr(ctx context.Context, key, value string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Str(key, value).Logger())
}

// WithInt64 returns a new context whose logger has the int64 field added.
func WithInt64(ctx context.Context, key string, value int64) context.Context {
	return WithLogger(ctx, FromContext(ctx).With().Int64(key, value).Logger())
}

// WithBatch tags the context logger with the batch index.
func WithBatch(ctx context.Context, index int64) context.Context {
	return WithInt64(ctx, "batch_index", index)
}
