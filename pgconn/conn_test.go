package pgconn

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/inad9300/pgeon/pgconn/ctxwatch"
	"github.com/inad9300/pgeon/pgio"
	"github.com/inad9300/pgeon/pgproto3"
	"github.com/stretchr/testify/require"
)

// frame builds a tagged backend message: type byte + length-prefixed body.
func frame(msgType byte, body []byte) []byte {
	buf := []byte{msgType}
	buf = pgio.AppendInt32(buf, int32(len(body)+4))
	return append(buf, body...)
}

// readFrontendFrame drains one tagged frontend message from r and returns
// its type and body. This client-only package has no frontend-message
// decoder, so tests that play the server role read the raw bytes directly.
func readFrontendFrame(t *testing.T, r io.Reader) (msgType byte, body []byte) {
	header := make([]byte, 5)
	_, err := io.ReadFull(r, header)
	require.NoError(t, err)

	msgType = header[0]
	bodyLen := int(binary.BigEndian.Uint32(header[1:])) - 4
	body = make([]byte, bodyLen)
	_, err = io.ReadFull(r, body)
	require.NoError(t, err)
	return msgType, body
}

// readUntaggedFrontendFrame drains one untagged frontend frame (the
// StartupMessage) of the form int32-length + payload.
func readUntaggedFrontendFrame(t *testing.T, r io.Reader) []byte {
	lenBuf := make([]byte, 4)
	_, err := io.ReadFull(r, lenBuf)
	require.NoError(t, err)

	bodyLen := int(binary.BigEndian.Uint32(lenBuf)) - 4
	body := make([]byte, bodyLen)
	_, err = io.ReadFull(r, body)
	require.NoError(t, err)
	return body
}

func writeAll(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// buildConnOverPipe wires up a *Conn directly around an established
// net.Conn, bypassing Connect's TCP dial, and runs the startup phase.
func buildConnOverPipe(t *testing.T, conn net.Conn, cfg *Config) *Conn {
	c := &Conn{
		cfg:           cfg,
		netConn:       conn,
		RuntimeParams: make(map[string]string),
	}
	c.fe = pgproto3.NewFrontend(conn, conn)
	c.cw = ctxwatch.NewContextWatcher(&connCtxHandler{conn: conn})

	require.NoError(t, c.startup())
	c.stmtCache = newStatementCache(c, 512, "pgeon_test")
	return c
}

func TestConnStartupAndExec(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cfg := &Config{Host: "ignored", Port: 5432, Database: "db", User: "alice", Password: "secret"}

	done := make(chan struct{})
	go func() {
		defer close(done)

		readUntaggedFrontendFrame(t, server) // StartupMessage
		require.NoError(t, writeAll(server, frame('R', []byte{0, 0, 0, 0})))
		require.NoError(t, writeAll(server, frame('Z', []byte{'I'})))

		msgType, _ := readFrontendFrame(t, server)
		require.Equal(t, byte('Q'), msgType)
		require.NoError(t, writeAll(server, frame('C', append([]byte("INSERT 0 1"), 0))))
		require.NoError(t, writeAll(server, frame('Z', []byte{'I'})))
	}()

	c := buildConnOverPipe(t, client, cfg)

	tag, _, err := c.Exec(context.Background(), "insert into t values (1)")
	require.NoError(t, err)
	require.Equal(t, "INSERT 0 1", tag.String())
	require.EqualValues(t, 1, tag.RowsAffected())

	<-done
}

func TestConnPrepareAndExecute(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cfg := &Config{Host: "ignored", Port: 5432, Database: "db", User: "alice", Password: "secret"}

	done := make(chan struct{})
	go func() {
		defer close(done)

		readUntaggedFrontendFrame(t, server)
		require.NoError(t, writeAll(server, frame('R', []byte{0, 0, 0, 0})))
		require.NoError(t, writeAll(server, frame('Z', []byte{'I'})))

		mt, _ := readFrontendFrame(t, server) // Parse
		require.Equal(t, byte('P'), mt)
		mt, _ = readFrontendFrame(t, server) // Describe
		require.Equal(t, byte('D'), mt)
		mt, _ = readFrontendFrame(t, server) // Sync
		require.Equal(t, byte('S'), mt)

		require.NoError(t, writeAll(server, frame('1', nil))) // ParseComplete

		paramDesc := pgio.AppendUint16(nil, 0)
		require.NoError(t, writeAll(server, frame('t', paramDesc))) // ParameterDescription: 0 params

		rowDesc := pgio.AppendUint16(nil, 1)
		rowDesc = pgio.AppendCString(rowDesc, "n")
		rowDesc = pgio.AppendUint32(rowDesc, 0)
		rowDesc = pgio.AppendUint16(rowDesc, 0)
		rowDesc = pgio.AppendUint32(rowDesc, 23) // int4
		rowDesc = pgio.AppendInt16(rowDesc, 4)
		rowDesc = pgio.AppendInt32(rowDesc, -1)
		rowDesc = pgio.AppendInt16(rowDesc, 1)
		require.NoError(t, writeAll(server, frame('T', rowDesc)))

		require.NoError(t, writeAll(server, frame('Z', []byte{'I'})))

		mt, _ = readFrontendFrame(t, server) // Bind
		require.Equal(t, byte('B'), mt)
		mt, _ = readFrontendFrame(t, server) // Execute
		require.Equal(t, byte('E'), mt)
		mt, _ = readFrontendFrame(t, server) // Sync
		require.Equal(t, byte('S'), mt)

		require.NoError(t, writeAll(server, frame('2', nil))) // BindComplete

		dataRow := pgio.AppendUint16(nil, 1)
		dataRow = pgio.AppendInt32(dataRow, 4)
		dataRow = pgio.AppendInt32(dataRow, 7)
		require.NoError(t, writeAll(server, frame('D', dataRow)))

		require.NoError(t, writeAll(server, frame('C', append([]byte("SELECT 1"), 0))))
		require.NoError(t, writeAll(server, frame('Z', []byte{'I'})))
	}()

	c := buildConnOverPipe(t, client, cfg)

	stmt, err := c.Prepare(context.Background(), "select 7 as n")
	require.NoError(t, err)
	require.True(t, stmt.HasResultSet)
	require.Len(t, stmt.Fields, 1)

	result, err := c.Execute(context.Background(), stmt, nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.EqualValues(t, 7, result.Rows[0][0])

	<-done
}
