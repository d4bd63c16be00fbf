package nblog

import (
	"context"

	"github.com/aidarkhanov/nanoid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type logPtr struct{}

// WithLogger attaches logger to ctx.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logPtr{}, logger)
}

// WithQuery derives a logger tagged with a fresh query ID from the context's logger
// and attaches it to the returned context.
func WithQuery(ctx context.Context) (context.Context, *zerolog.Logger) {
	logger := Log(ctx).With().Str("qid", nanoid.New()).Logger()
	return WithLogger(ctx, &logger), &logger
}

// Log returns a zerolog Logger with additional context information (i.e. query ID)
func Log(ctx context.Context) *zerolog.Logger {
	logger := ctx.Value(logPtr{})
	if logger == nil {
		return &log.Logger
	}

	return logger.(*zerolog.Logger)
}

// PgxLogger implements pgx's logger interface
type PgxLogger struct{}

// Log is pgx-compatible wrapper around log()
func (PgxLogger) Log(ctx context.Context, level pgx.LogLevel, msg string, data map[string]interface{}) {
	var zlevel zerolog.Level
	switch level {
	case pgx.LogLevelNone:
		zlevel = zerolog.NoLevel
	case pgx.LogLevelError:
		zlevel = zerolog.ErrorLevel
	case pgx.LogLevelWarn:
		zlevel = zerolog.WarnLevel
	case pgx.LogLevelInfo:
		zlevel = zerolog.InfoLevel
	case pgx.LogLevelDebug:
		zlevel = zerolog.DebugLevel
	default:
		zlevel = zerolog.DebugLevel
	}

	Log(ctx).WithLevel(zlevel).Str("module", "pgx").Fields(data).Msg(msg)
}
