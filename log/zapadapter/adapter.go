// Package zapadapter adapts go.uber.org/zap to log.Logger.
package zapadapter

import (
	"context"

	"github.com/inad9300/pgeon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	l *zap.Logger
}

func NewLogger(l *zap.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level log.LogLevel, msg string, data map[string]interface{}) {
	var zlevel zapcore.Level
	switch level {
	case log.LogLevelTrace, log.LogLevelDebug:
		zlevel = zap.DebugLevel
	case log.LogLevelInfo:
		zlevel = zap.InfoLevel
	case log.LogLevelNotice, log.LogLevelWarn:
		zlevel = zap.WarnLevel
	case log.LogLevelError:
		zlevel = zap.ErrorLevel
	default:
		zlevel = zap.DebugLevel
	}

	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}
	l.l.Check(zlevel, msg).Write(fields...)
}
