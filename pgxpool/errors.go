package pgxpool

import "errors"

// ErrClosedPool is returned by Acquire and any operation built on it once
// the pool has been destroyed.
var ErrClosedPool = errors.New("pgxpool: pool is closed")

// ErrTxClosed names the error for a Tx used after its transaction has been
// committed or rolled back. No function in this package returns it: Tx.Run
// and Tx.Exec do not check whether the transaction has ended.
var ErrTxClosed = errors.New("pgxpool: transaction has already been committed or rolled back")
