package pgtype

import "fmt"

// Kind is the host-language value kind that a bound parameter or decoded
// column maps to. It is the bidirectional counterpart to OID: encoders and
// decoders dispatch on OID, while callers bind and receive values typed by
// Kind.
type Kind int

const (
	KindUnsupported Kind = iota
	KindBool
	KindInt2
	KindInt4
	KindInt8
	KindFloat4
	KindFloat8
	KindNumeric
	KindText
	KindBytea
	KindTimestamp
	KindJSON
	KindJSONB
	KindUUID
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt2:
		return "int2"
	case KindInt4:
		return "int4"
	case KindInt8:
		return "int8"
	case KindFloat4:
		return "float4"
	case KindFloat8:
		return "float8"
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindBytea:
		return "bytea"
	case KindTimestamp:
		return "timestamp"
	case KindJSON:
		return "json"
	case KindJSONB:
		return "jsonb"
	case KindUUID:
		return "uuid"
	case KindArray:
		return "array"
	default:
		return "unsupported"
	}
}

// kindByOID is the scalar OID -> Kind table. Array OIDs are handled
// separately by arrayElementOID, since every array OID maps to KindArray
// but also needs to recover its element's own OID/Kind.
var kindByOID = map[OID]Kind{
	BoolOID:        KindBool,
	Int2OID:        KindInt2,
	Int4OID:        KindInt4,
	OIDOID:         KindInt4,
	RegprocOID:     KindInt4,
	Int8OID:        KindInt8,
	Float4OID:      KindFloat4,
	Float8OID:      KindFloat8,
	NumericOID:     KindNumeric,
	TextOID:        KindText,
	VarcharOID:     KindText,
	BPCharOID:      KindText,
	CharOID:        KindText,
	NameOID:        KindText,
	ByteaOID:       KindBytea,
	TimestampOID:   KindTimestamp,
	TimestamptzOID: KindTimestamp,
	JSONOID:        KindJSON,
	JSONBOID:       KindJSONB,
	UUIDOID:        KindUUID,
}

// arrayElementOID maps an array OID to the OID of its element type. Only
// one-dimensional arrays without NULL elements are decoded; DecodeArray
// returns an error for a multidimensional or nullable-element array. Some
// element OIDs below (cidr, inet, date) have no Kind of their own.
var arrayElementOID = map[OID]OID{
	BoolArrayOID:        BoolOID,
	ByteaArrayOID:       ByteaOID,
	CharArrayOID:        CharOID,
	NameArrayOID:        NameOID,
	Int2ArrayOID:        Int2OID,
	Int4ArrayOID:        Int4OID,
	TextArrayOID:        TextOID,
	VarcharArrayOID:     VarcharOID,
	Int8ArrayOID:        Int8OID,
	Float4ArrayOID:      Float4OID,
	Float8ArrayOID:      Float8OID,
	CIDRArrayOID:        CIDROID,
	InetArrayOID:        InetOID,
	TimestampArrayOID:   TimestampOID,
	DateArrayOID:        DateOID,
	TimestamptzArrayOID: TimestamptzOID,
	NumericArrayOID:     NumericOID,
	UUIDArrayOID:        UUIDOID,
	JSONBArrayOID:       JSONBOID,
}

// elementArrayOID is the inverse of arrayElementOID, used when encoding a
// host array value into its wire OID.
var elementArrayOID = func() map[OID]OID {
	m := make(map[OID]OID, len(arrayElementOID))
	for array, elem := range arrayElementOID {
		m[elem] = array
	}
	return m
}()

// KindOf returns the value kind used to bind or decode oid, and whether oid
// is in the catalogue at all.
func KindOf(oid OID) (Kind, bool) {
	if _, ok := arrayElementOID[oid]; ok {
		return KindArray, true
	}
	k, ok := kindByOID[oid]
	return k, ok
}

// ArrayOIDFor returns the array OID whose elements are elemOID, and whether
// elemOID has a registered one-dimensional array counterpart.
func ArrayOIDFor(elemOID OID) (OID, bool) {
	oid, ok := elementArrayOID[elemOID]
	return oid, ok
}

// ElementOIDOf returns the element OID of arrayOID, and whether arrayOID is
// a supported one-dimensional array type.
func ElementOIDOf(arrayOID OID) (OID, bool) {
	oid, ok := arrayElementOID[arrayOID]
	return oid, ok
}

// UnsupportedTypeError is raised synchronously, at bind or catalogue-lookup
// time, whenever an OID falls outside the supported catalogue.
// It is always fatal for the attempted operation, never silent.
type UnsupportedTypeError struct {
	OID OID
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("pgtype: unsupported type oid=%d (%s)", e.OID, e.OID.Name())
}
