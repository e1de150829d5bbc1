package pgtype

import (
	"fmt"

	"github.com/inad9300/pgeon/pgio"
)

// EncodeBool appends the 1-byte binary representation of v.
func EncodeBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// DecodeBool reads the 1-byte binary representation of a bool column.
func DecodeBool(src []byte) (bool, error) {
	if len(src) != 1 {
		return false, fmt.Errorf("pgtype: invalid bool length %d", len(src))
	}
	return src[0] != 0, nil
}

// EncodeInt2 appends the 2-byte big-endian representation of v.
func EncodeInt2(buf []byte, v int16) []byte {
	return pgio.AppendInt16(buf, v)
}

// DecodeInt2 reads a 2-byte big-endian int2 column.
func DecodeInt2(src []byte) (int16, error) {
	if len(src) != 2 {
		return 0, fmt.Errorf("pgtype: invalid int2 length %d", len(src))
	}
	return pgio.ReadInt16(src), nil
}

// EncodeInt4 appends the 4-byte big-endian representation of v. It also
// serves int4-family OIDs that share the int32 wire shape: oid, regproc.
func EncodeInt4(buf []byte, v int32) []byte {
	return pgio.AppendInt32(buf, v)
}

// DecodeInt4 reads a 4-byte big-endian int4-family column.
func DecodeInt4(src []byte) (int32, error) {
	if len(src) != 4 {
		return 0, fmt.Errorf("pgtype: invalid int4 length %d", len(src))
	}
	return pgio.ReadInt32(src), nil
}

// EncodeInt8 appends the 8-byte big-endian representation of v. Per §4.1,
// decoding int8 always widens to the host's widest signed integer type
// because the value may exceed 53-bit float mantissa precision; encoding
// accepts any integer kind narrower than int8 too, per the §4.5 widening
// coercion rule.
func EncodeInt8(buf []byte, v int64) []byte {
	return pgio.AppendInt64(buf, v)
}

// DecodeInt8 reads an 8-byte big-endian int8 column.
func DecodeInt8(src []byte) (int64, error) {
	if len(src) != 8 {
		return 0, fmt.Errorf("pgtype: invalid int8 length %d", len(src))
	}
	return pgio.ReadInt64(src), nil
}

// EncodeFloat4 appends the 4-byte IEEE-754 representation of v.
func EncodeFloat4(buf []byte, v float32) []byte {
	return pgio.AppendFloat32(buf, v)
}

// DecodeFloat4 reads a 4-byte IEEE-754 float4 column, preserving NaN, ±Inf
// and -0.0 exactly.
func DecodeFloat4(src []byte) (float32, error) {
	if len(src) != 4 {
		return 0, fmt.Errorf("pgtype: invalid float4 length %d", len(src))
	}
	return pgio.ReadFloat32(src), nil
}

// EncodeFloat8 appends the 8-byte IEEE-754 representation of v.
func EncodeFloat8(buf []byte, v float64) []byte {
	return pgio.AppendFloat64(buf, v)
}

// DecodeFloat8 reads an 8-byte IEEE-754 float8 column.
func DecodeFloat8(src []byte) (float64, error) {
	if len(src) != 8 {
		return 0, fmt.Errorf("pgtype: invalid float8 length %d", len(src))
	}
	return pgio.ReadFloat64(src), nil
}

// EncodeText appends the raw UTF-8 bytes of v. The same function serves
// text, varchar, bpchar, char and name, which share an identical wire
// representation and differ only server-side.
func EncodeText(buf []byte, v string) []byte {
	return append(buf, v...)
}

// DecodeText decodes a text-family column as UTF-8.
func DecodeText(src []byte) (string, error) {
	return string(src), nil
}

// EncodeBytea appends the raw bytes of v unmodified; bytea has no wire
// envelope beyond the outer length prefix applied by the caller.
func EncodeBytea(buf []byte, v []byte) []byte {
	return append(buf, v...)
}

// DecodeBytea copies src, since callers take ownership of the original
// message buffer and must not retain slices into it.
func DecodeBytea(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}
