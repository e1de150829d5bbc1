package pgproto3

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrontendSendReceiveRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewFrontend(clientConn, clientConn)

	go func() {
		// A real server decodes FrontendMessages, which this client-only
		// package does not implement; here it is enough to drain the
		// Query frame's bytes and reply with a fixed ReadyForQuery.
		header := make([]byte, 5)
		io.ReadFull(serverConn, header)
		bodyLen := int(header[1])<<24 | int(header[2])<<16 | int(header[3])<<8 | int(header[4]) - 4
		io.ReadFull(serverConn, make([]byte, bodyLen))

		serverConn.Write([]byte{'Z', 0, 0, 0, 5, 'I'})
	}()

	client.Send(&Query{String: "select 1"})
	require.NoError(t, client.Flush())

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := client.Receive()
	require.NoError(t, err)
	rfq, ok := msg.(*ReadyForQuery)
	require.True(t, ok)
	require.Equal(t, byte('I'), rfq.TxStatus)
}

func TestFrontendReceiveAcrossFragmentedReads(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	client := NewFrontend(clientConn, clientConn)

	full := []byte{'Z', 0, 0, 0, 5, 'I'}
	go func() {
		// Write the frame split across two separate writes to exercise
		// the leftover-fragment path.
		serverConn.Write(full[:3])
		time.Sleep(10 * time.Millisecond)
		serverConn.Write(full[3:])
	}()

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := client.Receive()
	require.NoError(t, err)
	rfq, ok := msg.(*ReadyForQuery)
	require.True(t, ok)
	require.Equal(t, byte('I'), rfq.TxStatus)
}
