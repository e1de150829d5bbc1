package pgconn

import (
	"testing"

	"github.com/inad9300/pgeon/pgtype"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeScalarRoundTrip(t *testing.T) {
	cases := []struct {
		oid pgtype.OID
		in  interface{}
	}{
		{pgtype.BoolOID, true},
		{pgtype.Int4OID, int32(42)},
		{pgtype.Int8OID, int64(1 << 40)},
		{pgtype.Float8OID, 3.25},
		{pgtype.TextOID, "hello, world"},
		{pgtype.NumericOID, "123.456"},
	}

	for _, c := range cases {
		raw, err := EncodeParam(c.oid, c.in)
		require.NoError(t, err)
		got := DecodeColumn(c.oid, raw, nil)
		require.EqualValues(t, c.in, got)
	}
}

func TestEncodeParamNilIsNull(t *testing.T) {
	raw, err := EncodeParam(pgtype.Int4OID, nil)
	require.NoError(t, err)
	require.Nil(t, raw)
}

func TestDecodeColumnNullIsNil(t *testing.T) {
	got := DecodeColumn(pgtype.Int4OID, nil, nil)
	require.Nil(t, got)
}

func TestEncodeParamTypeMismatchIsAnError(t *testing.T) {
	_, err := EncodeParam(pgtype.Int4OID, "not an int")
	require.Error(t, err)
}

func TestEncodeParamUnsupportedOID(t *testing.T) {
	_, err := EncodeParam(pgtype.OID(999999), "x")
	require.Error(t, err)
	var uerr *pgtype.UnsupportedTypeError
	require.ErrorAs(t, err, &uerr)
}

func TestDecodeColumnUnsupportedOIDFallsBackToRaw(t *testing.T) {
	raw := []byte{1, 2, 3}
	got := DecodeColumn(pgtype.OID(999999), raw, nil)
	require.Equal(t, raw, got)
}

func TestEncodeDecodeArrayParam(t *testing.T) {
	raw, err := EncodeParam(pgtype.Int4ArrayOID, []interface{}{int32(1), int32(2), int32(3)})
	require.NoError(t, err)

	got := DecodeColumn(pgtype.Int4ArrayOID, raw, nil)
	require.Equal(t, []interface{}{int32(1), int32(2), int32(3)}, got)
}
