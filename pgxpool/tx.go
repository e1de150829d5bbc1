package pgxpool

import (
	"context"
	"fmt"
)

// Tx is the restricted client view a transaction body runs with: every
// Run/Exec issued through it reuses the one connection leased for the
// whole transaction, in program order, per spec.md §5.
type Tx struct {
	conn *lease
}

// Run executes query against the transaction's connection and returns its
// result. Unlike Pool.Run, this call is synchronous and shares the
// transaction's connection rather than leasing its own; a query timeout or
// explicit cancellation is the caller's ctx, not a separate future.
func (tx *Tx) Run(ctx context.Context, query Query) (*QueryResult, error) {
	if query.ID == "" {
		query.ID = DigestSQL(query.SQL)
	}
	result, _, err := runQueryOnLease(ctx, tx.conn, query)
	return result, err
}

// Exec runs sql through the simple query protocol on the transaction's
// connection, for statement forms with no bindable parameters
// (savepoints, "rollback to", DDL run mid-transaction).
func (tx *Tx) Exec(ctx context.Context, sql string) error {
	_, _, err := tx.conn.conn.Exec(ctx, sql)
	return err
}

// Transaction leases one connection for body's entire duration: it sends
// begin, runs body against a Tx bound to that connection, then sends
// commit. If body returns an error, rollback is sent instead and the
// error is re-propagated to the caller, per spec.md §4.4. Nested
// transactions are out of scope; use plain savepoints via Tx.Exec instead.
func (p *Pool) Transaction(ctx context.Context, body func(ctx context.Context, tx *Tx) error) (err error) {
	l, err := p.acquire(ctx)
	if err != nil {
		return err
	}

	fatal := false
	defer func() {
		l.release(fatal)
	}()

	if _, _, err = l.conn.Exec(ctx, "begin"); err != nil {
		fatal = errIsFatal(err)
		return err
	}

	bodyErr := body(ctx, &Tx{conn: l})

	if bodyErr != nil {
		if _, _, rollbackErr := l.conn.Exec(ctx, "rollback"); rollbackErr != nil {
			fatal = errIsFatal(rollbackErr)
			return fmt.Errorf("pgxpool: rolling back after %v: %w", bodyErr, rollbackErr)
		}
		return bodyErr
	}

	if _, _, err = l.conn.Exec(ctx, "commit"); err != nil {
		fatal = errIsFatal(err)
		return err
	}

	return nil
}
