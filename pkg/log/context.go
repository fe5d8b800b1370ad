package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns a context carrying the logger. The request
// middleware stores a per-request child here; anything deeper in the
// call chain picks it up through Ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the logger carried by the context, falling back to the
// global logger when the context has none.
func Ctx(ctx context.Context) zerolog.Logger {
	logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger)
	if !ok {
		return L()
	}
	return logger
}
