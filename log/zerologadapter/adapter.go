// Package zerologadapter adapts github.com/rs/zerolog to log.Logger.
package zerologadapter

import (
	"context"

	"github.com/inad9300/pgeon/log"
	"github.com/rs/zerolog"
)

type Logger struct {
	logger zerolog.Logger
}

// NewLogger wraps logger, tagging every record with module=pgeon.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("module", "pgeon").Logger()}
}

func (l *Logger) Log(ctx context.Context, level log.LogLevel, msg string, data map[string]interface{}) {
	var zlevel zerolog.Level
	switch level {
	case log.LogLevelNone:
		zlevel = zerolog.NoLevel
	case log.LogLevelError:
		zlevel = zerolog.ErrorLevel
	case log.LogLevelWarn:
		zlevel = zerolog.WarnLevel
	case log.LogLevelNotice:
		zlevel = zerolog.WarnLevel
	case log.LogLevelInfo:
		zlevel = zerolog.InfoLevel
	case log.LogLevelDebug:
		zlevel = zerolog.DebugLevel
	case log.LogLevelTrace:
		zlevel = zerolog.TraceLevel
	default:
		zlevel = zerolog.DebugLevel
	}

	logger := l.logger.With().Fields(data).Logger()
	logger.WithLevel(zlevel).Msg(msg)
}
