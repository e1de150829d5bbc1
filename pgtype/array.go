package pgtype

import (
	"fmt"

	"github.com/inad9300/pgeon/pgio"
)

// arrayHeaderLen is the fixed 20-byte header written before any array's
// element payloads: dimensions(4) + hasNulls(4) + elemTypeOid(4) +
// dim0Size(4) + dim0Lower(4).
const arrayHeaderLen = 20

// EncodeArray appends a one-dimensional array of elemOID-typed elements.
// encodeElem appends one element's payload (without its own int32 length
// prefix; EncodeArray adds that). Only one-dimensional, non-null arrays are
// supported, per §4.1; nullable elements are rejected before any bytes are
// written.
func EncodeArray(buf []byte, elemOID OID, n int, hasNull func(i int) bool, encodeElem func(buf []byte, i int) ([]byte, error)) ([]byte, error) {
	for i := 0; i < n; i++ {
		if hasNull != nil && hasNull(i) {
			return nil, fmt.Errorf("pgtype: array element %d is null; nullable-element arrays are unsupported", i)
		}
	}

	buf = pgio.AppendInt32(buf, 1) // dimensions
	buf = pgio.AppendInt32(buf, 0) // hasNulls
	buf = pgio.AppendInt32(buf, int32(elemOID))
	buf = pgio.AppendInt32(buf, int32(n)) // dim0Size
	buf = pgio.AppendInt32(buf, 1)        // dim0Lower

	for i := 0; i < n; i++ {
		lenPos := len(buf)
		buf = pgio.AppendInt32(buf, 0) // placeholder length
		before := len(buf)
		var err error
		buf, err = encodeElem(buf, i)
		if err != nil {
			return nil, err
		}
		elemLen := len(buf) - before
		copy(buf[lenPos:lenPos+4], pgio.AppendInt32(nil, int32(elemLen)))
	}
	return buf, nil
}

// DecodedArray is the result of decoding a one-dimensional array column:
// the element type OID and the raw per-element payloads (already stripped
// of their own length prefixes), in wire order. NULL elements are rejected
// rather than represented, per §4.1.
type DecodedArray struct {
	ElemOID OID
	Elems   [][]byte
}

// DecodeArray parses a one-dimensional array column. Multidimensional
// arrays (dimensions != 1) and arrays carrying a null element both
// surface as an error, never as a corrupted or silently truncated value.
func DecodeArray(src []byte) (*DecodedArray, error) {
	if len(src) < arrayHeaderLen {
		return nil, errInvalidLength("array header", arrayHeaderLen, len(src))
	}
	dims := pgio.ReadInt32(src[0:4])
	if dims != 1 {
		return nil, fmt.Errorf("pgtype: array has %d dimensions; only one-dimensional arrays are supported", dims)
	}
	elemOID := OID(pgio.ReadInt32(src[8:12]))
	size := pgio.ReadInt32(src[12:16])

	elems := make([][]byte, 0, size)
	rest := src[arrayHeaderLen:]
	for i := int32(0); i < size; i++ {
		if len(rest) < 4 {
			return nil, fmt.Errorf("pgtype: array truncated before element %d length", i)
		}
		elemLen := pgio.ReadInt32(rest[0:4])
		rest = rest[4:]
		if elemLen < 0 {
			return nil, fmt.Errorf("pgtype: array element %d is null; nullable-element arrays are unsupported", i)
		}
		if int32(len(rest)) < elemLen {
			return nil, fmt.Errorf("pgtype: array truncated within element %d", i)
		}
		elem := make([]byte, elemLen)
		copy(elem, rest[:elemLen])
		elems = append(elems, elem)
		rest = rest[elemLen:]
	}
	return &DecodedArray{ElemOID: elemOID, Elems: elems}, nil
}
