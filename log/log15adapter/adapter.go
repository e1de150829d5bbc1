// Package log15adapter adapts gopkg.in/inconshreveable/log15.v2 to
// log.Logger.
package log15adapter

import (
	"context"

	"github.com/inad9300/pgeon/log"
)

// Log15Logger is the subset of log15.Logger this adapter uses.
type Log15Logger interface {
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
}

type Logger struct {
	l Log15Logger
}

func NewLogger(l Log15Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level log.LogLevel, msg string, data map[string]interface{}) {
	fields := flatten(data)

	switch level {
	case log.LogLevelTrace:
		l.l.Debug(msg, append(fields, "PGEON_LOG_LEVEL", level.String())...)
	case log.LogLevelDebug:
		l.l.Debug(msg, fields...)
	case log.LogLevelInfo:
		l.l.Info(msg, fields...)
	case log.LogLevelNotice, log.LogLevelWarn:
		l.l.Warn(msg, fields...)
	case log.LogLevelError:
		l.l.Error(msg, fields...)
	default:
		l.l.Error(msg, append(fields, "PGEON_LOG_LEVEL", level.String())...)
	}
}

func flatten(data map[string]interface{}) []interface{} {
	fields := make([]interface{}, 0, len(data)*2)
	for k, v := range data {
		fields = append(fields, k, v)
	}
	return fields
}
