package pgproto3

import (
	"bytes"
	"fmt"

	"github.com/inad9300/pgeon/pgio"
)

// AuthenticationOk is sent once the server has accepted the client's
// credentials.
type AuthenticationOk struct{}

func (*AuthenticationOk) Decode(src []byte) error { return nil }

// AuthenticationCleartextPassword requests a PasswordMessage carrying the
// password in the clear.
type AuthenticationCleartextPassword struct{}

func (*AuthenticationCleartextPassword) Decode(src []byte) error { return nil }

// AuthenticationMD5Password requests a PasswordMessage carrying the
// MD5-hashed password, salted with Salt.
type AuthenticationMD5Password struct {
	Salt [4]byte
}

func (dst *AuthenticationMD5Password) Decode(src []byte) error {
	if len(src) != 4 {
		return fmt.Errorf("pgproto3: bad authentication message length for MD5: %d", len(src))
	}
	copy(dst.Salt[:], src)
	return nil
}

// AuthenticationSASL announces that SASL authentication is required and
// lists the mechanisms the server supports, NUL-separated and
// NUL-terminated.
type AuthenticationSASL struct {
	AuthMechanisms []string
}

func (dst *AuthenticationSASL) Decode(src []byte) error {
	dst.AuthMechanisms = nil
	for len(src) > 0 {
		idx := bytes.IndexByte(src, 0)
		if idx < 0 {
			return fmt.Errorf("pgproto3: invalid SASL mechanism list")
		}
		if idx > 0 {
			dst.AuthMechanisms = append(dst.AuthMechanisms, string(src[:idx]))
		}
		src = src[idx+1:]
	}
	return nil
}

// AuthenticationSASLContinue carries the server-first (or later) SASL
// challenge.
type AuthenticationSASLContinue struct {
	Data []byte
}

func (dst *AuthenticationSASLContinue) Decode(src []byte) error {
	dst.Data = append([]byte(nil), src...)
	return nil
}

// AuthenticationSASLFinal carries the SASL exchange's final message,
// including the server signature the client must verify.
type AuthenticationSASLFinal struct {
	Data []byte
}

func (dst *AuthenticationSASLFinal) Decode(src []byte) error {
	dst.Data = append([]byte(nil), src...)
	return nil
}

// decodeAuthentication dispatches an 'R' message body to the concrete
// Authentication* type named by its leading int32 sub-code.
func decodeAuthentication(src []byte) (BackendMessage, error) {
	if len(src) < 4 {
		return nil, fmt.Errorf("pgproto3: authentication message too short")
	}
	code := pgio.ReadInt32(src[:4])
	body := src[4:]

	switch code {
	case authOK:
		return &AuthenticationOk{}, nil
	case authCleartextPassword:
		return &AuthenticationCleartextPassword{}, nil
	case authMD5Password:
		msg := &AuthenticationMD5Password{}
		return msg, msg.Decode(body)
	case authSASL:
		msg := &AuthenticationSASL{}
		return msg, msg.Decode(body)
	case authSASLContinue:
		msg := &AuthenticationSASLContinue{}
		return msg, msg.Decode(body)
	case authSASLFinal:
		msg := &AuthenticationSASLFinal{}
		return msg, msg.Decode(body)
	default:
		return nil, fmt.Errorf("pgproto3: unsupported authentication code %d", code)
	}
}

// BackendKeyData carries the cancellation key for the session: the
// process ID and a secret, both needed to build a CancelRequest frame.
type BackendKeyData struct {
	ProcessID uint32
	SecretKey uint32
}

func (dst *BackendKeyData) Decode(src []byte) error {
	if len(src) != 8 {
		return fmt.Errorf("pgproto3: bad backend key data length: %d", len(src))
	}
	dst.ProcessID = pgio.ReadUint32(src[0:4])
	dst.SecretKey = pgio.ReadUint32(src[4:8])
	return nil
}

// ParameterStatus reports a single runtime parameter (e.g. server_version,
// TimeZone). Per §4.3 it is ignored by the startup state machine's control
// flow, but SPEC_FULL §D exposes the accumulated set on pgconn.Conn.
type ParameterStatus struct {
	Name  string
	Value string
}

func (dst *ParameterStatus) Decode(src []byte) error {
	idx := bytes.IndexByte(src, 0)
	if idx < 0 {
		return fmt.Errorf("pgproto3: invalid ParameterStatus")
	}
	dst.Name = string(src[:idx])
	rest := src[idx+1:]
	idx = bytes.IndexByte(rest, 0)
	if idx < 0 {
		return fmt.Errorf("pgproto3: invalid ParameterStatus")
	}
	dst.Value = string(rest[:idx])
	return nil
}

// ReadyForQuery marks the boundary between protocol phases. TxStatus is
// 'I' (idle), 'T' (in a transaction) or 'E' (failed transaction).
type ReadyForQuery struct {
	TxStatus byte
}

func (dst *ReadyForQuery) Decode(src []byte) error {
	if len(src) != 1 {
		return fmt.Errorf("pgproto3: bad ReadyForQuery length: %d", len(src))
	}
	dst.TxStatus = src[0]
	return nil
}

// FieldDescription describes one column of a RowDescription.
type FieldDescription struct {
	Name                 string
	TableOID             uint32
	TableAttributeNumber uint16
	DataTypeOID          uint32
	DataTypeSize         int16
	TypeModifier         int32
	Format               int16
}

// RowDescription lists the columns of the rows that follow, in order.
type RowDescription struct {
	Fields []FieldDescription
}

func (dst *RowDescription) Decode(src []byte) error {
	if len(src) < 2 {
		return fmt.Errorf("pgproto3: bad RowDescription")
	}
	fieldCount := int(pgio.ReadUint16(src[:2]))
	rp := 2

	dst.Fields = make([]FieldDescription, fieldCount)
	for i := 0; i < fieldCount; i++ {
		idx := bytes.IndexByte(src[rp:], 0)
		if idx < 0 {
			return fmt.Errorf("pgproto3: bad RowDescription field name")
		}
		name := string(src[rp : rp+idx])
		rp += idx + 1

		if len(src[rp:]) < 18 {
			return fmt.Errorf("pgproto3: bad RowDescription field")
		}
		dst.Fields[i] = FieldDescription{
			Name:                 name,
			TableOID:             pgio.ReadUint32(src[rp:]),
			TableAttributeNumber: pgio.ReadUint16(src[rp+4:]),
			DataTypeOID:          pgio.ReadUint32(src[rp+6:]),
			DataTypeSize:         pgio.ReadInt16(src[rp+10:]),
			TypeModifier:         pgio.ReadInt32(src[rp+12:]),
			Format:               pgio.ReadInt16(src[rp+16:]),
		}
		rp += 18
	}
	return nil
}

// DataRow carries one row's column values. A nil entry in Values means the
// column is NULL, per the wire convention of a -1 length prefix.
type DataRow struct {
	Values [][]byte
}

func (dst *DataRow) Decode(src []byte) error {
	if len(src) < 2 {
		return fmt.Errorf("pgproto3: bad DataRow")
	}
	colCount := int(pgio.ReadUint16(src[:2]))
	rp := 2

	dst.Values = make([][]byte, colCount)
	for i := 0; i < colCount; i++ {
		if len(src[rp:]) < 4 {
			return fmt.Errorf("pgproto3: bad DataRow column length")
		}
		size := pgio.ReadInt32(src[rp:])
		rp += 4

		if size == -1 {
			dst.Values[i] = nil
			continue
		}
		if int32(len(src[rp:])) < size {
			return fmt.Errorf("pgproto3: bad DataRow column body")
		}
		dst.Values[i] = src[rp : rp+int(size)]
		rp += int(size)
	}
	return nil
}

// CommandComplete carries the server's command tag, e.g. "INSERT 0 1".
type CommandComplete struct {
	CommandTag []byte
}

func (dst *CommandComplete) Decode(src []byte) error {
	idx := bytes.IndexByte(src, 0)
	if idx < 0 {
		dst.CommandTag = append([]byte(nil), src...)
		return nil
	}
	dst.CommandTag = append([]byte(nil), src[:idx]...)
	return nil
}

// ErrorResponse/NoticeResponse field type tags, per the protocol manual.
const (
	errFieldSeverity         = 'S'
	errFieldSeverityUnlocal  = 'V'
	errFieldCode             = 'C'
	errFieldMessage          = 'M'
	errFieldDetail           = 'D'
	errFieldHint             = 'H'
	errFieldPosition         = 'P'
	errFieldInternalPosition = 'p'
	errFieldInternalQuery    = 'q'
	errFieldWhere            = 'W'
	errFieldSchemaName       = 's'
	errFieldTableName        = 't'
	errFieldColumnName       = 'c'
	errFieldDataTypeName     = 'd'
	errFieldConstraintName   = 'n'
	errFieldFile             = 'F'
	errFieldLine             = 'L'
	errFieldRoutine          = 'R'
)

// PgError carries every optional field of an ErrorResponse or
// NoticeResponse, per §4.6. SQLSTATE is Code.
type PgError struct {
	Severity            string
	SeverityUnlocalized string
	Code                string
	Message             string
	Detail              string
	Hint                string
	Position            int32
	InternalPosition    int32
	InternalQuery       string
	Where               string
	SchemaName          string
	TableName           string
	ColumnName          string
	DataTypeName        string
	ConstraintName      string
	File                string
	Line                int32
	Routine             string
}

func decodePgErrorFields(src []byte) (PgError, error) {
	var e PgError
	for len(src) > 0 {
		fieldType := src[0]
		if fieldType == 0 {
			break
		}
		rest := src[1:]
		idx := bytes.IndexByte(rest, 0)
		if idx < 0 {
			return e, fmt.Errorf("pgproto3: malformed error/notice field")
		}
		value := string(rest[:idx])
		src = rest[idx+1:]

		switch fieldType {
		case errFieldSeverity:
			e.Severity = value
		case errFieldSeverityUnlocal:
			e.SeverityUnlocalized = value
		case errFieldCode:
			e.Code = value
		case errFieldMessage:
			e.Message = value
		case errFieldDetail:
			e.Detail = value
		case errFieldHint:
			e.Hint = value
		case errFieldPosition:
			e.Position = parseErrInt32(value)
		case errFieldInternalPosition:
			e.InternalPosition = parseErrInt32(value)
		case errFieldInternalQuery:
			e.InternalQuery = value
		case errFieldWhere:
			e.Where = value
		case errFieldSchemaName:
			e.SchemaName = value
		case errFieldTableName:
			e.TableName = value
		case errFieldColumnName:
			e.ColumnName = value
		case errFieldDataTypeName:
			e.DataTypeName = value
		case errFieldConstraintName:
			e.ConstraintName = value
		case errFieldFile:
			e.File = value
		case errFieldLine:
			e.Line = parseErrInt32(value)
		case errFieldRoutine:
			e.Routine = value
		}
	}
	return e, nil
}

func parseErrInt32(s string) int32 {
	var n int32
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int32(c-'0')
	}
	return n
}

// ErrorResponse terminates the current phase with a typed Postgres error.
type ErrorResponse struct {
	PgError
}

func (dst *ErrorResponse) Decode(src []byte) error {
	e, err := decodePgErrorFields(src)
	dst.PgError = e
	return err
}

// NoticeResponse is collected and forwarded to the logger; it never fails
// a phase.
type NoticeResponse struct {
	PgError
}

func (dst *NoticeResponse) Decode(src []byte) error {
	e, err := decodePgErrorFields(src)
	dst.PgError = e
	return err
}

// ParseComplete acknowledges a successful Parse.
type ParseComplete struct{}

func (*ParseComplete) Decode(src []byte) error { return nil }

// BindComplete acknowledges a successful Bind.
type BindComplete struct{}

func (*BindComplete) Decode(src []byte) error { return nil }

// NoData indicates that the prepared statement returns no rows (e.g. DDL).
type NoData struct{}

func (*NoData) Decode(src []byte) error { return nil }

// ParameterDescription lists, in order, the OID expected for each
// positional parameter of a prepared statement.
type ParameterDescription struct {
	ParameterOIDs []uint32
}

func (dst *ParameterDescription) Decode(src []byte) error {
	if len(src) < 2 {
		return fmt.Errorf("pgproto3: bad ParameterDescription")
	}
	count := int(pgio.ReadUint16(src[:2]))
	if len(src) != 2+count*4 {
		return fmt.Errorf("pgproto3: bad ParameterDescription length")
	}
	dst.ParameterOIDs = make([]uint32, count)
	for i := 0; i < count; i++ {
		dst.ParameterOIDs[i] = pgio.ReadUint32(src[2+i*4:])
	}
	return nil
}

// NegotiateProtocolVersion is sent when the server cannot speak the
// requested protocol version in full. Per §4.3 this is always fatal.
type NegotiateProtocolVersion struct {
	MinorProtocolVersion int32
	UnrecognizedOptions  []string
}

func (dst *NegotiateProtocolVersion) Decode(src []byte) error {
	if len(src) < 8 {
		return fmt.Errorf("pgproto3: bad NegotiateProtocolVersion")
	}
	dst.MinorProtocolVersion = pgio.ReadInt32(src[:4])
	count := int(pgio.ReadInt32(src[4:8]))
	rest := src[8:]
	dst.UnrecognizedOptions = make([]string, 0, count)
	for i := 0; i < count; i++ {
		idx := bytes.IndexByte(rest, 0)
		if idx < 0 {
			return fmt.Errorf("pgproto3: bad NegotiateProtocolVersion option list")
		}
		dst.UnrecognizedOptions = append(dst.UnrecognizedOptions, string(rest[:idx]))
		rest = rest[idx+1:]
	}
	return nil
}
