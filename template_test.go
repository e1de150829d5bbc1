package pgeon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTemplateDeduplicatesRepeatedParam(t *testing.T) {
	q := NewTemplate().
		SQL("select * from t where id = ").Param(5).
		SQL(" or owner = ").Param(5).
		Build()

	require.Equal(t, "select * from t where id = $1 or owner = $1", q.SQL)
	require.Equal(t, []interface{}{5}, q.Params)
}

func TestTemplateKeepsDistinctParamsSeparate(t *testing.T) {
	q := NewTemplate().
		SQL("select $1, $2 from t where a = ").Param("x").
		SQL(" and b = ").Param("y").
		Build()

	require.Equal(t, []interface{}{"x", "y"}, q.Params)
}

func TestTemplateBuildIsDeterministicByID(t *testing.T) {
	build := func() Query {
		return NewTemplate().SQL("select ").Param(1).Build()
	}
	a, b := build(), build()
	require.Equal(t, a.ID, b.ID)
	require.NotEmpty(t, a.ID)
}
