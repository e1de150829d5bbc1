// Package pgproto3 implements the PostgreSQL frontend/backend wire
// protocol, version 3.0: frontend message encoders, and a backend message
// reader that reassembles length-prefixed frames out of a raw byte stream.
package pgproto3

// FrontendMessage is a message sent from the client to the server.
type FrontendMessage interface {
	// Encode appends the wire representation of the message to buf and
	// returns the result.
	Encode(buf []byte) []byte
}

// BackendMessage is a message received from the server.
type BackendMessage interface {
	// Decode parses src, the message body excluding the 5-byte
	// type+length header, into the receiver.
	Decode(src []byte) error
}

// Backend message type tags.
const (
	authenticationMsg        = 'R'
	backendKeyDataMsg        = 'K'
	bindCompleteMsg          = '2'
	commandCompleteMsg       = 'C'
	dataRowMsg               = 'D'
	errorResponseMsg         = 'E'
	negotiateProtocolVersion = 'v'
	noDataMsg                = 'n'
	noticeResponseMsg        = 'N'
	parameterDescriptionMsg  = 't'
	parameterStatusMsg       = 'S'
	parseCompleteMsg         = '1'
	readyForQueryMsg         = 'Z'
	rowDescriptionMsg        = 'T'
)

// Authentication sub-message codes carried in the body of an
// AuthenticationMsg ('R').
const (
	authOK                = 0
	authCleartextPassword = 3
	authMD5Password       = 5
	authSASL              = 10
	authSASLContinue      = 11
	authSASLFinal         = 12
)

// Frontend message type tags.
const (
	bindMsg        = 'B'
	closeMsg       = 'C'
	describeMsg    = 'D'
	executeMsg     = 'E'
	parseMsg       = 'P'
	passwordMsg    = 'p'
	queryMsg       = 'Q'
	syncMsg        = 'S'
	terminateMsg   = 'X'
)

// DescribeTarget values for Describe.ObjectType.
const (
	DescribeStatement = 'S'
	DescribePortal    = 'P'
)

// CloseTarget values for Close.ObjectType.
const (
	CloseStatement = 'S'
	ClosePortal    = 'P'
)

// WireFormat is the format code carried alongside every bound parameter
// and requested result column. Per §6, this engine always uses Binary.
type WireFormat int16

const (
	TextFormat   WireFormat = 0
	BinaryFormat WireFormat = 1
)
