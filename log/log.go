// Package log defines the minimal logging facade this engine logs
// protocol-level events through — connect, auth, prepare, query, notice,
// idle-close, retry — modeled on the teacher's tracelog.Logger. Concrete
// backends live in the log/*adapter sub-packages.
package log

import "context"

// LogLevel orders the severities this engine logs at.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelNotice
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (ll LogLevel) String() string {
	switch ll {
	case LogLevelNone:
		return "none"
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelNotice:
		return "notice"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelTrace:
		return "trace"
	default:
		return "invalid"
	}
}

// LogLevelFromString parses one of "none", "error", "warn", "notice",
// "info", "debug", "trace" case-sensitively.
func LogLevelFromString(s string) (LogLevel, error) {
	switch s {
	case "none":
		return LogLevelNone, nil
	case "error":
		return LogLevelError, nil
	case "warn":
		return LogLevelWarn, nil
	case "notice":
		return LogLevelNotice, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	case "trace":
		return LogLevelTrace, nil
	default:
		return 0, &invalidLogLevelError{s}
	}
}

type invalidLogLevelError struct{ s string }

func (e *invalidLogLevelError) Error() string { return "log: invalid log level " + e.s }

// Logger is the interface every backend adapter implements. A nil Logger
// means discard.
type Logger interface {
	Log(ctx context.Context, level LogLevel, msg string, data map[string]interface{})
}

// maxLoggedQueryArgLen truncates each logged query argument, the way the
// teacher's logQueryArgs avoids flooding logs with megabyte-sized
// parameters (e.g. a bytea blob bound as $1).
const maxLoggedQueryArgLen = 64

// QueryArgs renders args for inclusion in a Log call's data map, truncating
// any stringified argument longer than maxLoggedQueryArgLen.
func QueryArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			out[i] = truncate(v)
		case []byte:
			out[i] = truncate(string(v))
		default:
			out[i] = a
		}
	}
	return out
}

func truncate(s string) string {
	if len(s) <= maxLoggedQueryArgLen {
		return s
	}
	return s[:maxLoggedQueryArgLen] + "..."
}
