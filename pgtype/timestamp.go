package pgtype

import (
	"fmt"
	"time"

	"github.com/inad9300/pgeon/pgio"
)

// postgresEpoch is 2000-01-01T00:00:00Z, the origin of timestamp and
// timestamptz wire values.
var postgresEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// EncodeTimestamp appends the signed 64-bit microsecond offset from
// postgresEpoch for t. t is first rounded to the nearest millisecond: only
// UTC precision to the millisecond survives the round trip, per §4.1; any
// finer-grained digits are silently discarded.
func EncodeTimestamp(buf []byte, t time.Time) []byte {
	t = t.UTC().Round(time.Millisecond)
	micros := t.Sub(postgresEpoch).Microseconds()
	return pgio.AppendInt64(buf, micros)
}

// DecodeTimestamp reads a signed 64-bit microsecond offset from
// postgresEpoch and returns the corresponding UTC instant.
func DecodeTimestamp(src []byte) (time.Time, error) {
	if len(src) != 8 {
		return time.Time{}, errInvalidLength("timestamp", 8, len(src))
	}
	micros := pgio.ReadInt64(src)
	return postgresEpoch.Add(time.Duration(micros) * time.Microsecond), nil
}

func errInvalidLength(typ string, want, got int) error {
	return &invalidLengthError{typ: typ, want: want, got: got}
}

type invalidLengthError struct {
	typ       string
	want, got int
}

func (e *invalidLengthError) Error() string {
	if e.want == 0 && e.got == 0 {
		return fmt.Sprintf("pgtype: invalid %s", e.typ)
	}
	return fmt.Sprintf("pgtype: invalid %s length: want %d, got %d", e.typ, e.want, e.got)
}
