package pgproto3

import "github.com/inad9300/pgeon/pgio"

// protocolVersionNumber is 3.0, encoded as (major<<16 | minor).
const protocolVersionNumber int32 = 196608

// sslRequestCode is the magic code that distinguishes an SSLRequest frame
// from a StartupMessage on the wire; both are untagged.
const sslRequestCode int32 = 80877103

// cancelRequestCode is the magic code identifying a CancelRequest frame.
const cancelRequestCode int32 = 80877102

// StartupMessage is the first frame sent on a new connection, naming the
// protocol version and startup parameters (user, database, ...).
type StartupMessage struct {
	ProtocolVersion int32
	Parameters      map[string]string
}

func (src *StartupMessage) Encode(buf []byte) []byte {
	lenPos := len(buf)
	buf = pgio.AppendInt32(buf, 0) // placeholder length

	protocolVersion := src.ProtocolVersion
	if protocolVersion == 0 {
		protocolVersion = protocolVersionNumber
	}
	buf = pgio.AppendInt32(buf, protocolVersion)

	for k, v := range src.Parameters {
		buf = pgio.AppendCString(buf, k)
		buf = pgio.AppendCString(buf, v)
	}
	buf = append(buf, 0)

	pgio.PatchInt32Length(buf, lenPos)
	return buf
}

// SSLRequest asks the server to upgrade the connection to TLS before the
// startup frame.
type SSLRequest struct{}

func (*SSLRequest) Encode(buf []byte) []byte {
	buf = pgio.AppendInt32(buf, 8)
	buf = pgio.AppendInt32(buf, sslRequestCode)
	return buf
}

// CancelRequest is sent on a fresh, separate connection to ask the server
// to cancel the statement running under ProcessID/SecretKey.
type CancelRequest struct {
	ProcessID uint32
	SecretKey uint32
}

func (src *CancelRequest) Encode(buf []byte) []byte {
	buf = pgio.AppendInt32(buf, 16)
	buf = pgio.AppendInt32(buf, cancelRequestCode)
	buf = pgio.AppendUint32(buf, src.ProcessID)
	buf = pgio.AppendUint32(buf, src.SecretKey)
	return buf
}

// Query sends a simple-query protocol message. This engine sends it from
// pgconn.Conn.Exec only.
type Query struct {
	String string
}

func (src *Query) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, queryMsg)
	buf = pgio.AppendCString(buf, src.String)
	return endFrame(buf, lenPos)
}

// Parse names and types a prepared statement.
type Parse struct {
	Name          string
	Query         string
	ParameterOIDs []uint32
}

func (src *Parse) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, parseMsg)
	buf = pgio.AppendCString(buf, src.Name)
	buf = pgio.AppendCString(buf, src.Query)
	buf = pgio.AppendUint16(buf, uint16(len(src.ParameterOIDs)))
	for _, oid := range src.ParameterOIDs {
		buf = pgio.AppendUint32(buf, oid)
	}
	return endFrame(buf, lenPos)
}

// Describe requests ParameterDescription and RowDescription/NoData for a
// named prepared statement or portal.
type Describe struct {
	ObjectType byte // DescribeStatement or DescribePortal
	Name       string
}

func (src *Describe) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, describeMsg)
	buf = append(buf, src.ObjectType)
	buf = pgio.AppendCString(buf, src.Name)
	return endFrame(buf, lenPos)
}

// Close asks the server to close a named prepared statement or portal.
type Close struct {
	ObjectType byte // CloseStatement or ClosePortal
	Name       string
}

func (src *Close) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, closeMsg)
	buf = append(buf, src.ObjectType)
	buf = pgio.AppendCString(buf, src.Name)
	return endFrame(buf, lenPos)
}

// Bind binds parameter values to a prepared statement, producing a portal.
// Per §4.2 the encoder grows on demand: if encoding a parameter would
// overflow the current buffer, it reallocates to max(2*current, 4*offset)
// and restarts encoding that parameter, since parameter encoders are
// idempotent (append-only, indexed by position, no partial side effects
// visible to the caller until Encode returns).
type Bind struct {
	DestinationPortal    string
	PreparedStatement    string
	ParameterFormatCodes []int16
	Parameters           [][]byte
	ResultFormatCodes    []int16
}

func (src *Bind) Encode(buf []byte) []byte {
	start := len(buf)
	limit := cap(buf)

	for {
		out, offset, ok := src.tryEncode(buf, start, limit)
		if ok {
			return out
		}

		grown := make([]byte, start, max2(2*limit, 4*offset))
		copy(grown, buf[:start])
		buf = grown
		limit = cap(buf)
	}
}

// tryEncode encodes the Bind message into buf starting at start, stopping
// and reporting failure (with the offset reached) the moment the payload
// would exceed limit bytes of capacity — per §4.2, indices into Parameters
// are idempotent, so the caller can safely restart encoding from start
// with a larger buffer.
func (src *Bind) tryEncode(buf []byte, start, limit int) (out []byte, offset int, ok bool) {
	buf = buf[:start]
	buf, lenPos := beginFrame(buf, bindMsg)
	buf = pgio.AppendCString(buf, src.DestinationPortal)
	buf = pgio.AppendCString(buf, src.PreparedStatement)

	buf = pgio.AppendUint16(buf, uint16(len(src.ParameterFormatCodes)))
	for _, fc := range src.ParameterFormatCodes {
		buf = pgio.AppendInt16(buf, fc)
	}

	buf = pgio.AppendUint16(buf, uint16(len(src.Parameters)))
	for _, p := range src.Parameters {
		if p == nil {
			buf = pgio.AppendInt32(buf, -1)
			continue
		}
		buf = pgio.AppendInt32(buf, int32(len(p)))
		if limit > 0 && len(buf)+len(p) > limit {
			return nil, len(buf) + len(p), false
		}
		buf = append(buf, p...)
	}

	buf = pgio.AppendUint16(buf, uint16(len(src.ResultFormatCodes)))
	for _, fc := range src.ResultFormatCodes {
		buf = pgio.AppendInt16(buf, fc)
	}

	if limit > 0 && len(buf) > limit {
		return nil, len(buf), false
	}

	return endFrame(buf, lenPos), 0, true
}

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Execute runs the unnamed portal, or a named one, requesting at most
// MaxRows rows (0 means unlimited).
type Execute struct {
	Portal  string
	MaxRows uint32
}

func (src *Execute) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, executeMsg)
	buf = pgio.AppendCString(buf, src.Portal)
	buf = pgio.AppendUint32(buf, src.MaxRows)
	return endFrame(buf, lenPos)
}

// Sync marks the end of an extended-query exchange; the server always
// replies with ReadyForQuery.
type Sync struct{}

func (*Sync) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, syncMsg)
	return endFrame(buf, lenPos)
}

// Terminate politely closes the connection.
type Terminate struct{}

func (*Terminate) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, terminateMsg)
	return endFrame(buf, lenPos)
}

// PasswordMessage replies to AuthenticationCleartextPassword or
// AuthenticationMD5Password.
type PasswordMessage struct {
	Password string
}

func (src *PasswordMessage) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, passwordMsg)
	buf = pgio.AppendCString(buf, src.Password)
	return endFrame(buf, lenPos)
}

// SASLInitialResponse begins a SASL exchange, naming the chosen mechanism
// and carrying the client-first message.
type SASLInitialResponse struct {
	AuthMechanism string
	Data          []byte
}

func (src *SASLInitialResponse) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, passwordMsg)
	buf = pgio.AppendCString(buf, src.AuthMechanism)
	buf = pgio.AppendInt32(buf, int32(len(src.Data)))
	buf = append(buf, src.Data...)
	return endFrame(buf, lenPos)
}

// SASLResponse carries a later message of the SASL exchange (the
// client-final message).
type SASLResponse struct {
	Data []byte
}

func (src *SASLResponse) Encode(buf []byte) []byte {
	buf, lenPos := beginFrame(buf, passwordMsg)
	buf = append(buf, src.Data...)
	return endFrame(buf, lenPos)
}

// beginFrame appends the type tag and a placeholder length, returning the
// buffer and the offset of the length field to patch in endFrame.
func beginFrame(buf []byte, msgType byte) ([]byte, int) {
	buf = append(buf, msgType)
	lenPos := len(buf)
	buf = pgio.AppendInt32(buf, 0)
	return buf, lenPos
}

// endFrame patches the length field at lenPos with the frame's total
// length, including the length field itself but excluding the type tag.
func endFrame(buf []byte, lenPos int) []byte {
	pgio.PatchInt32Length(buf, lenPos)
	return buf
}
