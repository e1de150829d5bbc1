// Package kitlogadapter adapts github.com/go-kit/log to log.Logger.
package kitlogadapter

import (
	"context"

	kitlog "github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"
	"github.com/inad9300/pgeon/log"
)

type Logger struct {
	l kitlog.Logger
}

func NewLogger(l kitlog.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level log.LogLevel, msg string, data map[string]interface{}) {
	logger := l.l
	for k, v := range data {
		logger = kitlog.With(logger, k, v)
	}

	switch level {
	case log.LogLevelTrace:
		logger.Log("PGEON_LOG_LEVEL", level.String(), "msg", msg)
	case log.LogLevelDebug:
		kitlevel.Debug(logger).Log("msg", msg)
	case log.LogLevelInfo:
		kitlevel.Info(logger).Log("msg", msg)
	case log.LogLevelNotice, log.LogLevelWarn:
		kitlevel.Warn(logger).Log("msg", msg)
	case log.LogLevelError:
		kitlevel.Error(logger).Log("msg", msg)
	default:
		logger.Log("PGEON_LOG_LEVEL", level.String(), "msg", msg)
	}
}
