package pgtype

import "encoding/json"

// jsonbVersion is the single version byte prefixed to every JSONB wire
// value, per §4.1. PostgreSQL has only ever shipped version 1.
const jsonbVersion = 0x01

// EncodeJSON appends the UTF-8 JSON encoding of v.
func EncodeJSON(buf []byte, v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

// DecodeJSON unmarshals a json column into dst.
func DecodeJSON(src []byte, dst interface{}) error {
	return json.Unmarshal(src, dst)
}

// EncodeJSONB appends the version byte followed by the UTF-8 JSON encoding
// of v.
func EncodeJSONB(buf []byte, v interface{}) ([]byte, error) {
	buf = append(buf, jsonbVersion)
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(buf, b...), nil
}

// DecodeJSONB strips the leading version byte and unmarshals the remainder
// into dst.
func DecodeJSONB(src []byte, dst interface{}) error {
	if len(src) < 1 {
		return errInvalidLength("jsonb", 1, len(src))
	}
	if src[0] != jsonbVersion {
		return &invalidLengthError{typ: "jsonb version byte"}
	}
	return json.Unmarshal(src[1:], dst)
}
