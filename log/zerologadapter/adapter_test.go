package zerologadapter

import (
	"bytes"
	"context"
	"testing"

	"github.com/inad9300/pgeon/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLogWritesMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))

	l.Log(context.Background(), log.LogLevelInfo, "connected", map[string]interface{}{"host": "localhost"})

	out := buf.String()
	require.Contains(t, out, "connected")
	require.Contains(t, out, "localhost")
}
