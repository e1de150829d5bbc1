package pgerr

import (
	"errors"
	"testing"

	"github.com/inad9300/pgeon/pgproto3"
	"github.com/stretchr/testify/require"
)

func TestPostgresErrorClassification(t *testing.T) {
	e := &PostgresError{PgError: pgproto3.PgError{Code: SQLStateUniqueViolation, Message: "dup"}}
	require.Equal(t, "23", e.Class())
	require.True(t, e.IsIntegrityConstraintViolation())
	require.False(t, e.IsQueryCanceled())

	cancelled := &PostgresError{PgError: pgproto3.PgError{Code: SQLStateQueryCanceled}}
	require.True(t, cancelled.IsQueryCanceled())
}

func TestConnectErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewConnectError("localhost:5432", cause)
	require.ErrorIs(t, err, cause)
}

func TestQueryCancelledWrapsPostgresError(t *testing.T) {
	pgErr := &PostgresError{PgError: pgproto3.PgError{Code: SQLStateQueryCanceled}}
	err := NewQueryCancelled("during execution", pgErr)
	require.ErrorIs(t, err, pgErr)
	require.Contains(t, err.Error(), "during execution")
}
