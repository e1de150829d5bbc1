// Package pgerr implements the typed error model of §4.6 and §7:
// PostgresError (from ErrorResponse), ConnectError, ProtocolError,
// QueryCancelled and UnsupportedTypeError, plus SQLSTATE class-based
// categorization helpers. Error chains are built with golang.org/x/xerrors
// so callers can use errors.Is/errors.As across wrapped causes.
package pgerr

import (
	"fmt"

	"github.com/inad9300/pgeon/pgproto3"
	"github.com/inad9300/pgeon/pgtype"
	"golang.org/x/xerrors"
)

// UnsupportedTypeError is raised synchronously at bind time when an OID
// falls outside the catalogue; a result column of such an OID is decoded to
// its raw bytes instead. It is defined in pgtype, the package
// that owns the catalogue, and re-exported here so every other error kind
// named by §7 has a name under pgerr too.
type UnsupportedTypeError = pgtype.UnsupportedTypeError

// PostgresError is surfaced from an ErrorResponse message. It is always
// terminal for the phase in which it arrived, but — unlike ProtocolError —
// it does not poison the connection once the ensuing ReadyForQuery is
// observed.
type PostgresError struct {
	pgproto3.PgError
}

func (e *PostgresError) Error() string {
	return fmt.Sprintf("%s: %s (SQLSTATE %s)", e.Severity, e.Message, e.Code)
}

// FromErrorResponse builds a PostgresError from a decoded ErrorResponse.
func FromErrorResponse(msg *pgproto3.ErrorResponse) *PostgresError {
	return &PostgresError{PgError: msg.PgError}
}

// Class returns the first two characters of a SQLSTATE code, the
// granularity callers use to classify errors (e.g. "08" connection,
// "23" constraint, "42" syntax/access).
func (e *PostgresError) Class() string {
	if len(e.Code) < 2 {
		return ""
	}
	return e.Code[:2]
}

// IsConnectionException reports whether e's SQLSTATE class is 08
// (connection exception).
func (e *PostgresError) IsConnectionException() bool { return e.Class() == "08" }

// IsIntegrityConstraintViolation reports whether e's SQLSTATE class is 23.
func (e *PostgresError) IsIntegrityConstraintViolation() bool { return e.Class() == "23" }

// IsSerializationFailure reports whether e's SQLSTATE class is 40.
func (e *PostgresError) IsSerializationFailure() bool { return e.Class() == "40" }

// IsSyntaxOrAccessRuleViolation reports whether e's SQLSTATE class is 42.
func (e *PostgresError) IsSyntaxOrAccessRuleViolation() bool { return e.Class() == "42" }

// IsQueryCanceled reports whether e carries SQLSTATE 57014
// (query_canceled), the code the server uses when it honors a
// CancelRequest.
func (e *PostgresError) IsQueryCanceled() bool { return e.Code == SQLStateQueryCanceled }

// Well-known SQLSTATE codes this engine inspects directly, named the way
// the teacher's pgconn/errors.go names its PgError*Code constants.
const (
	SQLStateSuccessfulCompletion      = "00000"
	SQLStateConnectionException       = "08000"
	SQLStateConnectionDoesNotExist    = "08003"
	SQLStateConnectionFailure         = "08006"
	SQLStateInvalidAuthorization      = "28000"
	SQLStateInvalidPassword           = "28P01"
	SQLStateUniqueViolation           = "23505"
	SQLStateForeignKeyViolation       = "23503"
	SQLStateNotNullViolation          = "23502"
	SQLStateCheckViolation            = "23514"
	SQLStateSerializationFailure      = "40001"
	SQLStateDeadlockDetected          = "40P01"
	SQLStateSyntaxError               = "42601"
	SQLStateUndefinedColumn           = "42703"
	SQLStateUndefinedTable            = "42P01"
	SQLStateInsufficientPrivilege     = "42501"
	SQLStateQueryCanceled             = "57014"
	SQLStateAdminShutdown             = "57P01"
	SQLStateInvalidTextRepresentation = "22P02"
)

// ConnectError wraps a failure that occurred before a connection became
// usable: TCP dial, TLS handshake, or authentication. The pool retries
// connect attempts that fail this way, with backoff, while it remains
// below minConnections.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("pgerr: connecting to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// NewConnectError links cause as the reason a connection attempt to addr
// failed.
func NewConnectError(addr string, cause error) *ConnectError {
	return &ConnectError{Addr: addr, Err: xerrors.Errorf("%w", cause)}
}

// ProtocolError signals an unexpected message order or content — e.g. a
// ReadyForQuery observed before the ParseComplete it supposedly follows.
// Per §7 it is terminal for the whole connection; the pool destroys it
// rather than returning it to service.
type ProtocolError struct {
	Detail string
}

func (e *ProtocolError) Error() string {
	return "pgerr: protocol error: " + e.Detail
}

// NewProtocolError builds a ProtocolError describing detail.
func NewProtocolError(detail string) *ProtocolError {
	return &ProtocolError{Detail: detail}
}

// QueryCancelled is produced by an explicit cancel() call or by
// queryTimeout expiry. The connection it occurred on remains usable; it is
// returned to the pool normally once ReadyForQuery arrives.
type QueryCancelled struct {
	Phase string // "during preparation", "during execution", ...
	Err   error  // the PostgresError (57014) if the server acknowledged the cancel, or nil on a local timeout
}

func (e *QueryCancelled) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pgerr: query cancelled %s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("pgerr: query cancelled %s", e.Phase)
}

func (e *QueryCancelled) Unwrap() error { return e.Err }

// NewQueryCancelled builds a QueryCancelled for the given phase, optionally
// linking the PostgresError the server returned for the cancelled
// statement.
func NewQueryCancelled(phase string, cause error) *QueryCancelled {
	return &QueryCancelled{Phase: phase, Err: cause}
}

// Timeout marks a ConnectError or QueryCancelled as having been caused by
// the operation's context ending while I/O was in progress, whether by a
// deadline or by an explicit cancel() call, rather than by a network
// failure.
type Timeout struct {
	Err error
}

func (e *Timeout) Error() string { return fmt.Sprintf("pgerr: timeout: %v", e.Err) }
func (e *Timeout) Unwrap() error { return e.Err }

// NewTimeout wraps cause as having occurred because a timeout elapsed.
func NewTimeout(cause error) *Timeout {
	return &Timeout{Err: xerrors.Errorf("%w", cause)}
}
