package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithRunID returns a context whose logger carries the orchestration run id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return withFields(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("run_id", runID)
	})
}

// WithAccount returns a context whose logger carries the account and marketplace.
func WithAccount(ctx context.Context, account, marketplace string) context.Context {
	return withFields(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("account", account).Str("marketplace", marketplace)
	})
}

// WithStage returns a context whose logger carries the pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return withFields(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("stage", stage)
	})
}

func withFields(ctx context.Context, fn func(zerolog.Context) zerolog.Context) context.Context {
	logger := fn(FromContext(ctx).With()).Logger()
	return WithLogger(ctx, &logger)
}
