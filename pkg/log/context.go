package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the context logger, or the global logger when none is set.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// With derives a child of the context logger carrying key=value. Empty
// values are skipped and ctx is returned unchanged.
func With(ctx context.Context, key, value string) context.Context {
	if value == "" {
		return ctx
	}
	l := Ctx(ctx)
	return WithLogger(ctx, l.With().Str(key, value).Logger())
}
