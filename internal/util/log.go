package util

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const ctxKeyLogger contextKey = "logger"

// LogFromContext returns the logger attached to ctx, or the global logger.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKeyLogger).(*zerolog.Logger); ok && l != nil {
			return l
		}
	}

	return &log.Logger
}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, &l)
}

// ComponentLogger returns a sub-logger of the global logger tagged with component.
func ComponentLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
