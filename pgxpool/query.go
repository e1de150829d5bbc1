package pgxpool

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/inad9300/pgeon/pgconn"
	"github.com/inad9300/pgeon/pgerr"
	"github.com/inad9300/pgeon/pgtype"
)

// Query is the descriptor of one parameterised SQL statement: the text,
// its ordered parameter values, and an optional stable ID. Two Queries
// with equal SQL naturally share a connection's cached prepared statement
// (pgconn's statementCache keys by SQL text), so ID exists only for
// callers — like the template builder — that want a caching key
// independent of incidental SQL-text formatting.
type Query struct {
	SQL    string
	Params []interface{}
	ID     string
}

// ColumnDescription is one column of a QueryMetadata, per spec.md §3.
type ColumnDescription struct {
	Name            string
	TypeOID         pgtype.OID
	TableOID        uint32
	PositionInTable uint16
}

// QueryMetadata is the immutable shape of a prepared statement: its
// parameter types in declared order and its result columns, or a nil
// Columns slice for statements with no result set (DDL).
type QueryMetadata struct {
	ParamTypes []pgtype.OID
	Columns    []ColumnDescription
}

func metadataFromStatement(stmt *pgconn.StatementDescription) *QueryMetadata {
	paramTypes := make([]pgtype.OID, len(stmt.ParamOIDs))
	for i, oid := range stmt.ParamOIDs {
		paramTypes[i] = pgtype.OID(oid)
	}

	var columns []ColumnDescription
	if stmt.HasResultSet {
		columns = make([]ColumnDescription, len(stmt.Fields))
		for i, f := range stmt.Fields {
			columns[i] = ColumnDescription{
				Name:            f.Name,
				TypeOID:         pgtype.OID(f.DataTypeOID),
				TableOID:        f.TableOID,
				PositionInTable: f.TableAttributeNumber,
			}
		}
	}

	return &QueryMetadata{ParamTypes: paramTypes, Columns: columns}
}

// Row is an ordered mapping from column name to decoded value, in the
// column order declared by RowDescription. A SQL NULL decodes to a Go nil
// stored under its column's key, not an absent key.
type Row struct {
	columns []ColumnDescription
	values  []interface{}
}

// Columns returns the row's column descriptions, in declared order.
func (r Row) Columns() []ColumnDescription { return r.columns }

// Values returns the row's decoded values, in declared column order.
func (r Row) Values() []interface{} { return r.values }

// Get returns the value of the named column and whether that column
// exists in this row. A NULL column returns (nil, true).
func (r Row) Get(name string) (interface{}, bool) {
	for i, c := range r.columns {
		if c.Name == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// QueryResult is the outcome of run(query): its rows, in server order, and
// the number of rows the command reports having affected.
type QueryResult struct {
	Rows         []Row
	RowsAffected int64
	Metadata     *QueryMetadata
}

// DigestSQL renders a short, deterministic identifier for sql, the way the
// template builder's "id: deterministic digest of the final SQL text"
// requirement (spec.md §3) is satisfied without depending on caller input.
func DigestSQL(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:8])
}

// GetQueryMetadata prepares sql (or reuses the connection's cached
// preparation) and returns its inferred parameter and column types,
// without executing it. This is one of the two surfaces the static
// analyser and template-literal collaborators consume (spec.md §1); it is
// otherwise identical to the preparation half of Run.
func (p *Pool) GetQueryMetadata(ctx context.Context, sql string) (*QueryMetadata, error) {
	l, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}

	stmt, err := l.conn.Prepare(ctx, sql)
	l.release(errIsFatal(err))
	if err != nil {
		return nil, err
	}
	return metadataFromStatement(stmt), nil
}

// Run leases a connection, prepares query.SQL if needed, binds
// query.Params in declared-OID order, executes it, and returns the
// decoded result. It implements spec.md §4.4's prepareAndRunQuery: a
// queryTimeout deadline is applied on top of ctx, and cancellation at any
// point — explicit or by timeout — opens the out-of-band cancel connection
// and fails with a *pgerr.QueryCancelled naming the phase that was in
// flight, per spec.md §5's cancellation semantics.
func (p *Pool) Run(ctx context.Context, query Query) *QueryFuture {
	if query.ID == "" {
		query.ID = DigestSQL(query.SQL)
	}

	deadlineCtx := ctx
	var cancelTimeout context.CancelFunc
	if p.cfg.QueryTimeout > 0 {
		deadlineCtx, cancelTimeout = context.WithTimeout(ctx, p.cfg.QueryTimeout)
	}
	queryCtx, cancel := context.WithCancel(deadlineCtx)

	f := newQueryFuture(cancel)
	go func() {
		defer cancel()
		if cancelTimeout != nil {
			defer cancelTimeout()
		}
		f.run(queryCtx, p, query)
	}()
	return f
}

// runQuery performs the leased work of Run: acquire, then prepare/bind/
// execute via runQueryOnLease. It reports which phase was active when
// cancelled so the caller can build an accurate QueryCancelled error.
func (p *Pool) runQuery(ctx context.Context, query Query, onLease func(*lease)) (*QueryResult, string, error) {
	l, err := p.acquire(ctx)
	if err != nil {
		return nil, "acquiring a connection", err
	}
	onLease(l)

	result, phase, err := runQueryOnLease(ctx, l, query)
	l.release(errIsFatal(err))
	return result, phase, err
}

// runQueryOnLease prepares query.SQL on l's connection if needed, binds
// query.Params in declared-OID order and executes it. Unlike runQuery, it
// never acquires or releases the lease itself, so a transaction body can
// run several queries against the same connection in program order.
func runQueryOnLease(ctx context.Context, l *lease, query Query) (*QueryResult, string, error) {
	stmt, err := l.conn.Prepare(ctx, query.SQL)
	if err != nil {
		return nil, "during preparation", err
	}

	if len(query.Params) != len(stmt.ParamOIDs) {
		return nil, "during preparation", fmt.Errorf(
			"pgxpool: query expects %d parameter(s), got %d", len(stmt.ParamOIDs), len(query.Params))
	}

	encoded := make([][]byte, len(query.Params))
	for i, v := range query.Params {
		b, err := pgconn.EncodeParam(pgtype.OID(stmt.ParamOIDs[i]), v)
		if err != nil {
			return nil, "during preparation", err
		}
		encoded[i] = b
	}

	res, err := l.conn.Execute(ctx, stmt, encoded)
	if err != nil {
		return nil, "during execution", err
	}

	metadata := metadataFromStatement(stmt)
	rows := make([]Row, len(res.Rows))
	for i, vals := range res.Rows {
		rows[i] = Row{columns: metadata.Columns, values: vals}
	}

	return &QueryResult{
		Rows:         rows,
		RowsAffected: res.CommandTag.RowsAffected(),
		Metadata:     metadata,
	}, "", nil
}

// wrapCancellation translates a context deadline/cancellation observed
// during phase into a *pgerr.QueryCancelled, per spec.md §5. If the
// server had already acknowledged the cancel with SQLSTATE 57014, cause
// carries that PostgresError; otherwise cause is nil (a purely local
// deadline that fired before any ErrorResponse arrived).
func wrapCancellation(phase string, cause error) error {
	var pgErr *pgerr.PostgresError
	if pe, ok := cause.(*pgerr.PostgresError); ok {
		pgErr = pe
	}
	if pgErr != nil && pgErr.IsQueryCanceled() {
		return pgerr.NewQueryCancelled(phase, pgErr)
	}
	return pgerr.NewQueryCancelled(phase, nil)
}
