package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSelectStmt(t *testing.T, q string) *SelectStmt {
	t.Helper()
	stmt, err := Parse(q)
	require.NoError(t, err, "parsing %q", q)
	sel, ok := stmt.(*SelectStmt)
	require.True(t, ok, "expected SelectStmt, got %T", stmt)
	return sel
}

func TestParseSelectAttrs(t *testing.T) {
	tests := []struct {
		query string
		attr  Attr
	}{
		{"SELECT key FROM t;", AttrKey},
		{"SELECT value FROM t;", AttrValue},
		{"SELECT * FROM t;", AttrAll},
		{"SELECT count(*) FROM t;", AttrCount},
		{"select COUNT( * ) from t", AttrCount},
	}
	for _, tt := range tests {
		sel := parseSelectStmt(t, tt.query)
		assert.Equal(t, tt.attr, sel.Attr, tt.query)
		assert.Equal(t, "t", sel.Table)
		assert.Empty(t, sel.Conds)
	}
}

func TestParseSelectWhere(t *testing.T) {
	sel := parseSelectStmt(t, "SELECT key FROM movie WHERE key >= 20 AND key < 50;")

	require.Len(t, sel.Conds, 2)
	assert.Equal(t, SelCond{Attr: AttrKey, Comp: GE, Value: "20"}, sel.Conds[0])
	assert.Equal(t, SelCond{Attr: AttrKey, Comp: LT, Value: "50"}, sel.Conds[1])
}

func TestParseSelectValueCondition(t *testing.T) {
	sel := parseSelectStmt(t, "SELECT * FROM t WHERE value = 'foo bar' AND key <> 3")

	require.Len(t, sel.Conds, 2)
	assert.Equal(t, SelCond{Attr: AttrValue, Comp: EQ, Value: "foo bar"}, sel.Conds[0])
	assert.Equal(t, SelCond{Attr: AttrKey, Comp: NE, Value: "3"}, sel.Conds[1])
}

func TestParseSelectErrors(t *testing.T) {
	bad := []string{
		"",
		"SELECT key",
		"SELECT name FROM t",
		"SELECT key FROM",
		"SELECT key FROM a b",
		"SELECT key FROM t WHERE",
		"SELECT key FROM t WHERE key 5",
		"SELECT key FROM t WHERE key = abc",
		"SELECT key FROM t WHERE name = 5",
		"DROP TABLE t",
	}
	for _, q := range bad {
		_, err := Parse(q)
		assert.Error(t, err, "expected parse error for %q", q)
	}
}

func TestParseLoad(t *testing.T) {
	stmt, err := Parse("LOAD movie FROM 'movie.del';")
	require.NoError(t, err)
	load := stmt.(*LoadStmt)
	assert.Equal(t, "movie", load.Table)
	assert.Equal(t, "movie.del", load.File)
	assert.False(t, load.WithIndex)
}

func TestParseLoadWithIndex(t *testing.T) {
	stmt, err := Parse(`load movie from "data/movie.del" with index`)
	require.NoError(t, err)
	load := stmt.(*LoadStmt)
	assert.Equal(t, "movie", load.Table)
	assert.Equal(t, "data/movie.del", load.File)
	assert.True(t, load.WithIndex)
}

func TestParseLoadErrors(t *testing.T) {
	bad := []string{
		"LOAD movie",
		"LOAD FROM 'x'",
		"LOAD a b FROM 'x'",
		"LOAD movie FROM 'x' WITH",
		"LOAD movie FROM 'unterminated",
	}
	for _, q := range bad {
		_, err := Parse(q)
		assert.Error(t, err, "expected parse error for %q", q)
	}
}
