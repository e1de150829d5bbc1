// Package logrusadapter adapts github.com/sirupsen/logrus to log.Logger.
package logrusadapter

import (
	"context"

	"github.com/inad9300/pgeon/log"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	l *logrus.Logger
}

func NewLogger(l *logrus.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level log.LogLevel, msg string, data map[string]interface{}) {
	var logger logrus.FieldLogger = l.l
	if data != nil {
		logger = l.l.WithFields(data)
	}

	switch level {
	case log.LogLevelTrace:
		logger.WithField("PGEON_LOG_LEVEL", level.String()).Debug(msg)
	case log.LogLevelDebug:
		logger.Debug(msg)
	case log.LogLevelInfo:
		logger.Info(msg)
	case log.LogLevelNotice, log.LogLevelWarn:
		logger.Warn(msg)
	case log.LogLevelError:
		logger.Error(msg)
	default:
		logger.WithField("PGEON_LOG_LEVEL", level.String()).Error(msg)
	}
}
