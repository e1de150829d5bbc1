package pgxpool

import (
	"testing"

	"github.com/inad9300/pgeon/pgconn"
	"github.com/inad9300/pgeon/pgtype"
	"github.com/stretchr/testify/require"
)

func TestDigestSQLIsDeterministic(t *testing.T) {
	a := DigestSQL("select 1")
	b := DigestSQL("select 1")
	c := DigestSQL("select 2")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestMetadataFromStatementNoResultSet(t *testing.T) {
	stmt := &pgconn.StatementDescription{
		ParamOIDs:    []uint32{uint32(pgtype.Int4OID)},
		HasResultSet: false,
	}
	md := metadataFromStatement(stmt)
	require.Equal(t, []pgtype.OID{pgtype.Int4OID}, md.ParamTypes)
	require.Nil(t, md.Columns)
}

func TestMetadataFromStatementWithColumns(t *testing.T) {
	stmt := &pgconn.StatementDescription{
		HasResultSet: true,
		Fields: []pgconn.FieldDescription{
			{Name: "a", DataTypeOID: uint32(pgtype.Int4OID)},
			{Name: "b", DataTypeOID: uint32(pgtype.TextOID)},
		},
	}
	md := metadataFromStatement(stmt)
	require.Len(t, md.Columns, 2)
	require.Equal(t, "a", md.Columns[0].Name)
	require.Equal(t, pgtype.Int4OID, md.Columns[0].TypeOID)
	require.Equal(t, "b", md.Columns[1].Name)
}

func TestRowGet(t *testing.T) {
	row := Row{
		columns: []ColumnDescription{{Name: "id"}, {Name: "name"}},
		values:  []interface{}{int32(1), "alice"},
	}

	v, ok := row.Get("name")
	require.True(t, ok)
	require.Equal(t, "alice", v)

	_, ok = row.Get("missing")
	require.False(t, ok)

	require.Equal(t, []interface{}{int32(1), "alice"}, row.Values())
}
