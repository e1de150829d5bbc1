package pgconn

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/inad9300/pgeon/log"
	"github.com/inad9300/pgeon/pgtype"
)

// EncodeParam converts a Go value into the binary wire representation for
// oid, per the coercion rules of §4.5. An OID outside the catalogue is
// reported as an UnsupportedTypeError. A Go value that cannot be coerced to
// the declared OID's kind is reported as a plain error naming the Go type
// and the OID; it is not an UnsupportedTypeError. Either way the mapping
// failure is returned, never silently dropped.
func EncodeParam(oid pgtype.OID, v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	if elemOID, ok := pgtype.ElementOIDOf(oid); ok {
		return encodeArrayParam(oid, elemOID, v)
	}

	kind, ok := pgtype.KindOf(oid)
	if !ok {
		return nil, &pgtype.UnsupportedTypeError{OID: oid}
	}

	switch kind {
	case pgtype.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to bool for oid %d", v, oid)
		}
		return pgtype.EncodeBool(nil, b), nil

	case pgtype.KindInt2:
		n, ok := asInt64(v)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to int2 for oid %d", v, oid)
		}
		return pgtype.EncodeInt2(nil, int16(n)), nil

	case pgtype.KindInt4:
		n, ok := asInt64(v)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to int4 for oid %d", v, oid)
		}
		return pgtype.EncodeInt4(nil, int32(n)), nil

	case pgtype.KindInt8:
		n, ok := asInt64(v)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to int8 for oid %d", v, oid)
		}
		return pgtype.EncodeInt8(nil, n), nil

	case pgtype.KindFloat4:
		f, ok := asFloat64(v)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to float4 for oid %d", v, oid)
		}
		return pgtype.EncodeFloat4(nil, float32(f)), nil

	case pgtype.KindFloat8:
		f, ok := asFloat64(v)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to float8 for oid %d", v, oid)
		}
		return pgtype.EncodeFloat8(nil, f), nil

	case pgtype.KindNumeric:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to numeric for oid %d; pass a decimal string", v, oid)
		}
		return pgtype.EncodeNumeric(nil, s)

	case pgtype.KindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to text for oid %d", v, oid)
		}
		return pgtype.EncodeText(nil, s), nil

	case pgtype.KindBytea:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to bytea for oid %d", v, oid)
		}
		return pgtype.EncodeBytea(nil, b), nil

	case pgtype.KindTimestamp:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to timestamp for oid %d", v, oid)
		}
		return pgtype.EncodeTimestamp(nil, t), nil

	case pgtype.KindUUID:
		u, ok := v.(uuid.UUID)
		if !ok {
			return nil, fmt.Errorf("pgconn: %T does not coerce to uuid for oid %d", v, oid)
		}
		return pgtype.EncodeUUID(nil, u), nil

	case pgtype.KindJSON:
		return pgtype.EncodeJSON(nil, v)

	case pgtype.KindJSONB:
		return pgtype.EncodeJSONB(nil, v)

	default:
		return nil, &pgtype.UnsupportedTypeError{OID: oid}
	}
}

func encodeArrayParam(arrayOID, elemOID pgtype.OID, v interface{}) ([]byte, error) {
	elems, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("pgconn: %T does not coerce to an array for oid %d; pass []interface{}", v, arrayOID)
	}

	return pgtype.EncodeArray(nil, elemOID, len(elems),
		func(i int) bool { return elems[i] == nil },
		func(buf []byte, i int) ([]byte, error) {
			b, err := EncodeParam(elemOID, elems[i])
			if err != nil {
				return nil, err
			}
			return append(buf, b...), nil
		},
	)
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	default:
		return 0, false
	}
}

// DecodeColumn converts one DataRow value into a Go value, dispatching on
// the column's declared OID. raw == nil means SQL NULL and decodes to Go
// nil. Per §7, an OID outside the catalogue falls back to the raw bytes
// with a warning logged, rather than failing the row — decode failures are
// lossy-but-visible, unlike encode failures, which are always fatal.
func DecodeColumn(oid pgtype.OID, raw []byte, logger log.Logger) interface{} {
	if raw == nil {
		return nil
	}

	if elemOID, ok := pgtype.ElementOIDOf(oid); ok {
		return decodeArrayColumn(oid, elemOID, raw, logger)
	}

	kind, ok := pgtype.KindOf(oid)
	if !ok {
		warnUnsupportedOID(logger, oid)
		return raw
	}

	switch kind {
	case pgtype.KindBool:
		v, err := pgtype.DecodeBool(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindInt2:
		v, err := pgtype.DecodeInt2(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindInt4:
		v, err := pgtype.DecodeInt4(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindInt8:
		v, err := pgtype.DecodeInt8(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindFloat4:
		v, err := pgtype.DecodeFloat4(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindFloat8:
		v, err := pgtype.DecodeFloat8(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindNumeric:
		v, err := pgtype.DecodeNumeric(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindText:
		v, err := pgtype.DecodeText(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindBytea:
		v, err := pgtype.DecodeBytea(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindTimestamp:
		v, err := pgtype.DecodeTimestamp(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindUUID:
		v, err := pgtype.DecodeUUID(raw)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindJSON:
		var v interface{}
		err := pgtype.DecodeJSON(raw, &v)
		return orRaw(v, err, raw, logger, oid)
	case pgtype.KindJSONB:
		var v interface{}
		err := pgtype.DecodeJSONB(raw, &v)
		return orRaw(v, err, raw, logger, oid)
	default:
		warnUnsupportedOID(logger, oid)
		return raw
	}
}

func decodeArrayColumn(arrayOID, elemOID pgtype.OID, raw []byte, logger log.Logger) interface{} {
	decoded, err := pgtype.DecodeArray(raw)
	if err != nil {
		if logger != nil {
			logger.Log(context.Background(), log.LogLevelWarn, "pgconn: malformed array value, returning raw bytes", map[string]interface{}{
				"oid": uint32(arrayOID), "error": err.Error(),
			})
		}
		return raw
	}

	values := make([]interface{}, len(decoded.Elems))
	for i, elem := range decoded.Elems {
		values[i] = DecodeColumn(elemOID, elem, logger)
	}
	return values
}

func orRaw(v interface{}, err error, raw []byte, logger log.Logger, oid pgtype.OID) interface{} {
	if err != nil {
		if logger != nil {
			logger.Log(context.Background(), log.LogLevelWarn, "pgconn: malformed column value, returning raw bytes", map[string]interface{}{
				"oid": uint32(oid), "error": err.Error(),
			})
		}
		return raw
	}
	return v
}

func warnUnsupportedOID(logger log.Logger, oid pgtype.OID) {
	if logger != nil {
		logger.Log(context.Background(), log.LogLevelWarn, "pgconn: unsupported type oid, returning raw bytes", map[string]interface{}{
			"oid": uint32(oid),
		})
	}
}
