package pgproto3

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryEncodeFraming(t *testing.T) {
	buf := (&Query{String: "select 1"}).Encode(nil)
	require.Equal(t, byte(queryMsg), buf[0])
	bodyLen := int(buf[1])<<24 | int(buf[2])<<16 | int(buf[3])<<8 | int(buf[4])
	require.Equal(t, len(buf)-1, bodyLen)
	require.Equal(t, "select 1\x00", string(buf[5:]))
}

func TestBindEncodeGrowsOnDemand(t *testing.T) {
	bind := &Bind{
		DestinationPortal:    "",
		PreparedStatement:    "stmt1",
		ParameterFormatCodes: []int16{1, 1},
		Parameters:           [][]byte{[]byte("hello world, this parameter is longer than the tiny seed buffer"), []byte("x")},
		ResultFormatCodes:    []int16{1},
	}

	// Seed with an intentionally tiny buffer to force at least one grow.
	seed := make([]byte, 0, 8)
	buf := bind.Encode(seed)

	require.Equal(t, byte(bindMsg), buf[0])
	bodyLen := int(buf[1])<<24 | int(buf[2])<<16 | int(buf[3])<<8 | int(buf[4])
	require.Equal(t, len(buf)-1, bodyLen)
}

func TestSSLRequestEncode(t *testing.T) {
	buf := (&SSLRequest{}).Encode(nil)
	require.Len(t, buf, 8)
	require.Equal(t, []byte{0, 0, 0, 8}, buf[0:4])
}

func TestCancelRequestEncode(t *testing.T) {
	buf := (&CancelRequest{ProcessID: 42, SecretKey: 99}).Encode(nil)
	require.Len(t, buf, 16)
}
