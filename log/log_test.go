package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogLevelFromString(t *testing.T) {
	lvl, err := LogLevelFromString("debug")
	require.NoError(t, err)
	require.Equal(t, LogLevelDebug, lvl)

	_, err = LogLevelFromString("bogus")
	require.Error(t, err)
}

func TestQueryArgsTruncatesLongStrings(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	args := QueryArgs([]interface{}{"short", string(long), 42})
	require.Equal(t, "short", args[0])
	require.Less(t, len(args[1].(string)), 200)
	require.Equal(t, 42, args[2])
}
