package pgtype

import (
	"fmt"

	"github.com/gofrs/uuid"
)

// EncodeUUID appends the raw 16 bytes of v.
func EncodeUUID(buf []byte, v uuid.UUID) []byte {
	return append(buf, v.Bytes()...)
}

// DecodeUUID reads the raw 16 bytes of a uuid column and renders it through
// gofrs/uuid, which owns the canonical 8-4-4-4-12 hyphenated string form.
func DecodeUUID(src []byte) (uuid.UUID, error) {
	if len(src) != 16 {
		return uuid.UUID{}, errInvalidLength("uuid", 16, len(src))
	}
	u, err := uuid.FromBytes(src)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("pgtype: %w", err)
	}
	return u, nil
}
