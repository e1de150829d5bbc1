package pgconn

import "github.com/inad9300/pgeon/pgproto3"

// Notice is a NOTICE/WARNING/INFO-severity message the server sent outside
// the normal result flow. Per §7 it never fails a phase; the driver
// collects these and the caller (or a configured log.Logger) decides what
// to do with them.
type Notice pgproto3.PgError

// CommandTag is the server's textual summary of a completed command, e.g.
// "INSERT 0 1" or "UPDATE 3".
type CommandTag []byte

func (ct CommandTag) String() string {
	return string(ct)
}

// RowsAffected parses the trailing integer of the command tag, the number
// of rows an INSERT/UPDATE/DELETE touched. Commands without that trailing
// count (e.g. "CREATE TABLE") report 0.
func (ct CommandTag) RowsAffected() int64 {
	s := string(ct)
	idx := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0
	}

	var n int64
	for _, c := range s[idx+1:] {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int64(c-'0')
	}
	return n
}
