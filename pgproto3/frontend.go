package pgproto3

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frontend is the client side of the wire protocol: it sends
// FrontendMessages and receives BackendMessages from a PostgreSQL server.
type Frontend struct {
	cr *chunkReader
	w  io.Writer

	wbuf []byte

	bodyLen    int
	msgType    byte
	partialMsg bool
}

// NewFrontend wraps r and w, which must be the two halves of a single
// connection (e.g. a net.Conn after any TLS upgrade has completed).
func NewFrontend(r io.Reader, w io.Writer) *Frontend {
	return &Frontend{cr: newChunkReader(r), w: w}
}

// Send appends msg's wire encoding to the pending write buffer. The bytes
// are not guaranteed to reach the server until Flush is called.
func (f *Frontend) Send(msg FrontendMessage) {
	f.wbuf = msg.Encode(f.wbuf)
}

// Flush writes any pending messages to the server.
func (f *Frontend) Flush() error {
	if len(f.wbuf) == 0 {
		return nil
	}
	_, err := f.w.Write(f.wbuf)
	f.wbuf = f.wbuf[:0]
	return err
}

// Receive reads and decodes the next backend message. Per §4.2, it needs
// at least 5 bytes of header; if the underlying reader offers fewer, the
// chunkReader retains them as a leftover fragment and blocks for more.
// Frames that span multiple underlying reads are coalesced transparently.
func (f *Frontend) Receive() (BackendMessage, error) {
	if !f.partialMsg {
		header, err := f.cr.Next(5)
		if err != nil {
			return nil, err
		}
		f.msgType = header[0]
		msgLen := int(binary.BigEndian.Uint32(header[1:]))
		if msgLen < 4 {
			return nil, fmt.Errorf("pgproto3: invalid message length %d", msgLen)
		}
		f.bodyLen = msgLen - 4
		f.partialMsg = true
	}

	body, err := f.cr.Next(f.bodyLen)
	if err != nil {
		return nil, err
	}
	f.partialMsg = false

	return decodeBackendMessage(f.msgType, body)
}

func decodeBackendMessage(msgType byte, body []byte) (BackendMessage, error) {
	switch msgType {
	case authenticationMsg:
		return decodeAuthentication(body)
	case backendKeyDataMsg:
		msg := &BackendKeyData{}
		return msg, msg.Decode(body)
	case bindCompleteMsg:
		msg := &BindComplete{}
		return msg, msg.Decode(body)
	case commandCompleteMsg:
		msg := &CommandComplete{}
		return msg, msg.Decode(body)
	case dataRowMsg:
		msg := &DataRow{}
		return msg, msg.Decode(body)
	case errorResponseMsg:
		msg := &ErrorResponse{}
		return msg, msg.Decode(body)
	case negotiateProtocolVersion:
		msg := &NegotiateProtocolVersion{}
		return msg, msg.Decode(body)
	case noDataMsg:
		msg := &NoData{}
		return msg, msg.Decode(body)
	case noticeResponseMsg:
		msg := &NoticeResponse{}
		return msg, msg.Decode(body)
	case parameterDescriptionMsg:
		msg := &ParameterDescription{}
		return msg, msg.Decode(body)
	case parameterStatusMsg:
		msg := &ParameterStatus{}
		return msg, msg.Decode(body)
	case parseCompleteMsg:
		msg := &ParseComplete{}
		return msg, msg.Decode(body)
	case readyForQueryMsg:
		msg := &ReadyForQuery{}
		return msg, msg.Decode(body)
	case rowDescriptionMsg:
		msg := &RowDescription{}
		return msg, msg.Decode(body)
	default:
		return nil, fmt.Errorf("pgproto3: unknown backend message type %q", msgType)
	}
}

// ReceiveSSLResponse reads the single-byte reply to an SSLRequest: 'S' to
// accept the TLS upgrade, 'N' to decline, or EOF for an unsupported
// pre-9.3 server.
func (f *Frontend) ReceiveSSLResponse() (byte, error) {
	b, err := f.cr.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
