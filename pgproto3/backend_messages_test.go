package pgproto3

import (
	"testing"

	"github.com/inad9300/pgeon/pgio"
	"github.com/stretchr/testify/require"
)

func TestDecodeAuthenticationOk(t *testing.T) {
	body := pgio.AppendInt32(nil, 0)
	msg, err := decodeAuthentication(body)
	require.NoError(t, err)
	_, ok := msg.(*AuthenticationOk)
	require.True(t, ok)
}

func TestDecodeAuthenticationMD5(t *testing.T) {
	body := pgio.AppendInt32(nil, 5)
	body = append(body, 1, 2, 3, 4)
	msg, err := decodeAuthentication(body)
	require.NoError(t, err)
	md5, ok := msg.(*AuthenticationMD5Password)
	require.True(t, ok)
	require.Equal(t, [4]byte{1, 2, 3, 4}, md5.Salt)
}

func TestDecodeAuthenticationSASL(t *testing.T) {
	body := pgio.AppendInt32(nil, 10)
	body = append(body, []byte("SCRAM-SHA-256\x00\x00")...)
	msg, err := decodeAuthentication(body)
	require.NoError(t, err)
	sasl, ok := msg.(*AuthenticationSASL)
	require.True(t, ok)
	require.Equal(t, []string{"SCRAM-SHA-256"}, sasl.AuthMechanisms)
}

func TestDecodeErrorResponse(t *testing.T) {
	var body []byte
	body = append(body, 'S')
	body = append(body, "ERROR\x00"...)
	body = append(body, 'C')
	body = append(body, "42601\x00"...)
	body = append(body, 'M')
	body = append(body, "syntax error\x00"...)
	body = append(body, 0)

	e := &ErrorResponse{}
	require.NoError(t, e.Decode(body))
	require.Equal(t, "ERROR", e.Severity)
	require.Equal(t, "42601", e.Code)
	require.Equal(t, "syntax error", e.Message)
}

func TestDecodeRowDescriptionAndDataRow(t *testing.T) {
	var rd []byte
	rd = pgio.AppendUint16(rd, 1)
	rd = append(rd, "a\x00"...)
	rd = pgio.AppendUint32(rd, 0)
	rd = pgio.AppendUint16(rd, 0)
	rd = pgio.AppendUint32(rd, uint32(Int4OIDForTest))
	rd = pgio.AppendInt16(rd, 4)
	rd = pgio.AppendInt32(rd, -1)
	rd = pgio.AppendInt16(rd, 1)

	rdMsg := &RowDescription{}
	require.NoError(t, rdMsg.Decode(rd))
	require.Len(t, rdMsg.Fields, 1)
	require.Equal(t, "a", rdMsg.Fields[0].Name)

	var dr []byte
	dr = pgio.AppendUint16(dr, 2)
	dr = pgio.AppendInt32(dr, 4)
	dr = pgio.AppendInt32(dr, 1)
	dr = pgio.AppendInt32(dr, -1)

	drMsg := &DataRow{}
	require.NoError(t, drMsg.Decode(dr))
	require.Len(t, drMsg.Values, 2)
	require.Equal(t, pgio.AppendInt32(nil, 1), drMsg.Values[0])
	require.Nil(t, drMsg.Values[1])
}

// Int4OIDForTest avoids importing pgtype from pgproto3, which must not
// depend on it, while still using a realistic OID value in the fixture.
const Int4OIDForTest = 23
