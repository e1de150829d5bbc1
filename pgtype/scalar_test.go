package pgtype

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrips(t *testing.T) {
	b, err := DecodeBool(EncodeBool(nil, true))
	require.NoError(t, err)
	require.True(t, b)

	i2, err := DecodeInt2(EncodeInt2(nil, -1234))
	require.NoError(t, err)
	require.Equal(t, int16(-1234), i2)

	i4, err := DecodeInt4(EncodeInt4(nil, -123456))
	require.NoError(t, err)
	require.Equal(t, int32(-123456), i4)

	i8, err := DecodeInt8(EncodeInt8(nil, -123456789012))
	require.NoError(t, err)
	require.Equal(t, int64(-123456789012), i8)

	s, err := DecodeText(EncodeText(nil, "héllo"))
	require.NoError(t, err)
	require.Equal(t, "héllo", s)

	buf, err := DecodeBytea(EncodeBytea(nil, []byte{0x00, 0xff, 0x10}))
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0xff, 0x10}, buf)
}

func TestTimestampRoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 14, 9, 26, 53, int(500*time.Millisecond), time.UTC)
	out, err := DecodeTimestamp(EncodeTimestamp(nil, in))
	require.NoError(t, err)
	require.True(t, in.Equal(out))
}

func TestUUIDRoundTrip(t *testing.T) {
	u, err := uuid.NewV4()
	require.NoError(t, err)

	got, err := DecodeUUID(EncodeUUID(nil, u))
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestJSONBRoundTrip(t *testing.T) {
	type payload struct {
		A int    `json:"a"`
		B string `json:"b"`
	}
	in := payload{A: 1, B: "x"}

	buf, err := EncodeJSONB(nil, in)
	require.NoError(t, err)
	require.Equal(t, byte(0x01), buf[0])

	var out payload
	require.NoError(t, DecodeJSONB(buf, &out))
	require.Equal(t, in, out)
}
