// Package pgio provides low-level byte-order helpers for building and
// parsing the PostgreSQL wire protocol: fixed-width integers in network
// byte order, endianness-adaptive IEEE-754 floats, and the varint-free
// append style used throughout pgproto3 and pgtype.
package pgio

import (
	"encoding/binary"
	"math"
)

// AppendUint16 appends n to buf in PostgreSQL wire format (big-endian).
func AppendUint16(buf []byte, n uint16) []byte {
	return append(buf, byte(n>>8), byte(n))
}

// AppendInt16 appends n to buf in PostgreSQL wire format (big-endian).
func AppendInt16(buf []byte, n int16) []byte {
	return AppendUint16(buf, uint16(n))
}

// AppendUint32 appends n to buf in PostgreSQL wire format (big-endian).
func AppendUint32(buf []byte, n uint32) []byte {
	return append(buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// AppendInt32 appends n to buf in PostgreSQL wire format (big-endian).
func AppendInt32(buf []byte, n int32) []byte {
	return AppendUint32(buf, uint32(n))
}

// AppendUint64 appends n to buf in PostgreSQL wire format (big-endian).
func AppendUint64(buf []byte, n uint64) []byte {
	return append(buf,
		byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
		byte(n>>24), byte(n>>16), byte(n>>8), byte(n),
	)
}

// AppendInt64 appends n to buf in PostgreSQL wire format (big-endian).
func AppendInt64(buf []byte, n int64) []byte {
	return AppendUint64(buf, uint64(n))
}

// AppendFloat32 appends f to buf as its IEEE-754 bit pattern in wire order.
// The host's native float endianness is irrelevant here: math.Float32bits
// already yields the bit pattern as an unsigned integer, which AppendUint32
// then writes out big-endian regardless of host byte order. The host-endian
// probe lives in pgio.HostIsLittleEndian for callers that need to reason
// about it directly; no codec in this module calls it.
func AppendFloat32(buf []byte, f float32) []byte {
	return AppendUint32(buf, math.Float32bits(f))
}

// AppendFloat64 appends f to buf as its IEEE-754 bit pattern in wire order.
func AppendFloat64(buf []byte, f float64) []byte {
	return AppendUint64(buf, math.Float64bits(f))
}

// PatchInt32Length overwrites the 4 bytes at buf[pos:pos+4] with the number
// of bytes in buf from pos to the end, i.e. a length field covering
// everything written since the placeholder at pos — the pattern every
// tagged frame encoder uses to fill in its length prefix after the fact.
func PatchInt32Length(buf []byte, pos int) {
	n := int32(len(buf) - pos)
	buf[pos] = byte(n >> 24)
	buf[pos+1] = byte(n >> 16)
	buf[pos+2] = byte(n >> 8)
	buf[pos+3] = byte(n)
}

// AppendCString appends s followed by a NUL terminator. s must be 7-bit
// ASCII per the wire protocol's CString convention; callers that need
// arbitrary UTF-8 use a length-prefixed string instead (AppendInt32 + raw
// bytes), never AppendCString.
func AppendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0)
}

// hostIsLittleEndian is derived once per process by probing the memory
// layout of -1.0f the way the reference client detects native float byte
// order instead of assuming it, using binary.NativeEndian rather than an
// unsafe pointer cast.
var hostIsLittleEndian = func() bool {
	buf := make([]byte, 4)
	binary.NativeEndian.PutUint32(buf, math.Float32bits(-1.0))
	return buf[3] == 0xbf
}()

// HostIsLittleEndian reports the process's native byte order, probed once
// at package init from the layout of -1.0f. The wire codec itself never
// needs this — integers and floats are always converted to big-endian
// explicitly via AppendUint32/Uint64 and math.Float32bits/Float64bits — but
// it is exposed for diagnostics and for callers that bypass the helpers.
func HostIsLittleEndian() bool {
	return hostIsLittleEndian
}

// byteOrder is the wire byte order: PostgreSQL's frontend/backend protocol
// is always big-endian regardless of host architecture.
var byteOrder = binary.BigEndian
