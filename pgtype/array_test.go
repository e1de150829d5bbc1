package pgtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayRoundTrip(t *testing.T) {
	values := []int32{1, -2, 3, 0}
	buf, err := EncodeArray(nil, Int4OID, len(values), nil, func(buf []byte, i int) ([]byte, error) {
		return EncodeInt4(buf, values[i]), nil
	})
	require.NoError(t, err)

	decoded, err := DecodeArray(buf)
	require.NoError(t, err)
	require.Equal(t, Int4OID, decoded.ElemOID)
	require.Len(t, decoded.Elems, len(values))

	for i, elem := range decoded.Elems {
		v, err := DecodeInt4(elem)
		require.NoError(t, err)
		require.Equal(t, values[i], v)
	}
}

func TestArrayRejectsNullElement(t *testing.T) {
	_, err := EncodeArray(nil, Int4OID, 2, func(i int) bool { return i == 1 }, func(buf []byte, i int) ([]byte, error) {
		return EncodeInt4(buf, 0), nil
	})
	require.Error(t, err)
}

func TestArrayRejectsMultipleDimensions(t *testing.T) {
	buf, err := EncodeArray(nil, Int4OID, 1, nil, func(buf []byte, i int) ([]byte, error) {
		return EncodeInt4(buf, 1), nil
	})
	require.NoError(t, err)
	buf[3] = 2 // corrupt dimensions field to 2

	_, err = DecodeArray(buf)
	require.Error(t, err)
}
