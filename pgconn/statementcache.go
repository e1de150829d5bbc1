package pgconn

import (
	"container/list"
	"context"
	"fmt"
)

// StatementDescription is the result of preparing one SQL statement on a
// connection: its server-side name, the parameter types the server wants,
// and the shape of the rows it returns (nil if the statement has no result
// set, e.g. DDL).
type StatementDescription struct {
	Name         string
	SQL          string
	ParamOIDs    []uint32
	Fields       []FieldDescription
	HasResultSet bool
}

// statementCache is a least-recently-used cache of StatementDescriptions
// keyed by SQL text, so a query run more than once on the same connection
// skips the extended-preparation phase. Grounded on the teacher's
// stmtcache.LRU: a doubly linked list plus a name->element map, with
// eviction deallocating the server-side prepared statement.
type statementCache struct {
	conn         *Conn
	cap          int
	prepareCount int
	namePrefix   string
	m            map[string]*list.Element
	l            *list.List
}

func newStatementCache(conn *Conn, cap int, namePrefix string) *statementCache {
	return &statementCache{
		conn:       conn,
		cap:        cap,
		namePrefix: namePrefix,
		m:          make(map[string]*list.Element),
		l:          list.New(),
	}
}

// Get returns the StatementDescription for sql, preparing it on the server
// if it is not already cached.
func (c *statementCache) Get(ctx context.Context, sql string) (*StatementDescription, error) {
	if el, ok := c.m[sql]; ok {
		c.l.MoveToFront(el)
		return el.Value.(*StatementDescription), nil
	}

	if c.cap > 0 && c.l.Len() >= c.cap {
		if err := c.removeOldest(ctx); err != nil {
			return nil, err
		}
	}

	name := fmt.Sprintf("%s_%d", c.namePrefix, c.prepareCount)
	c.prepareCount++

	stmt, err := c.conn.prepare(ctx, name, sql)
	if err != nil {
		return nil, err
	}

	c.m[sql] = c.l.PushFront(stmt)
	return stmt, nil
}

// Clear deallocates every cached prepared statement on the server and
// empties the cache.
func (c *statementCache) Clear(ctx context.Context) error {
	for c.l.Len() > 0 {
		if err := c.removeOldest(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *statementCache) removeOldest(ctx context.Context) error {
	oldest := c.l.Back()
	c.l.Remove(oldest)
	stmt := oldest.Value.(*StatementDescription)
	delete(c.m, stmt.SQL)
	_, _, err := c.conn.Exec(ctx, fmt.Sprintf("deallocate %s", stmt.Name))
	return err
}
