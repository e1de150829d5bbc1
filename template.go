package pgeon

import (
	"strings"

	"github.com/inad9300/pgeon/pgxpool"
)

// Template incrementally builds a Query from interleaved raw SQL
// fragments and parameter values, the run-time half of the template-
// literal sugar named in spec.md §1/§3/§6 (its build-time counterpart,
// generated return-type annotations, is a collaborator outside this
// engine's scope). Grounded on the teacher's sanitize.Query, which models
// a statement the same way: a sequence of raw-text parts interleaved with
// placeholder parts.
//
// Equal (identity-comparable) values passed to Param are deduplicated: a
// value that has already been bound reuses its existing placeholder
// number instead of appending a new one, so
//
//	t := NewTemplate()
//	t.SQL("select * from t where id = ").Param(id).SQL(" or owner = ").Param(id)
//	q := t.Build()
//
// renders "select * from t where id = $1 or owner = $1" with a single
// unique parameter, per spec.md's dedup invariant.
type Template struct {
	sb        strings.Builder
	uniqueIdx map[interface{}]int
	unique    []interface{}
}

// NewTemplate starts an empty template.
func NewTemplate() *Template {
	return &Template{uniqueIdx: make(map[interface{}]int)}
}

// SQL appends a raw SQL fragment verbatim.
func (t *Template) SQL(fragment string) *Template {
	t.sb.WriteString(fragment)
	return t
}

// Param appends a positional placeholder for v, reusing $k if v has
// already been bound at an earlier position in this template.
func (t *Template) Param(v interface{}) *Template {
	idx, ok := t.uniqueIdx[v]
	if !ok {
		t.unique = append(t.unique, v)
		idx = len(t.unique) - 1
		t.uniqueIdx[v] = idx
	}
	t.sb.WriteByte('$')
	writeUint(&t.sb, uint(idx+1))
	return t
}

// Build renders the accumulated fragments and parameters into a Query.
// Query.ID is a deterministic digest of the rendered SQL text, so two
// Templates that render identical SQL share a connection's cached
// prepared statement even if they were built independently, per spec.md
// §3.
func (t *Template) Build() Query {
	sql := t.sb.String()
	return Query{SQL: sql, Params: t.unique, ID: pgxpool.DigestSQL(sql)}
}

func writeUint(sb *strings.Builder, n uint) {
	if n >= 10 {
		writeUint(sb, n/10)
	}
	sb.WriteByte(byte('0' + n%10))
}
