package engine

import (
	"fmt"
	"io"
	"path/filepath"

	"tupledb/internal/sql"
)

// Engine executes parsed commands against the tables in a data
// directory. A table t lives in two files: t.tbl (record heap) and t.idx
// (B+Tree over the key). Query output goes to the injected writer.
type Engine struct {
	dir string
	out io.Writer
}

// New creates an engine rooted at dir, writing query results to out.
func New(dir string, out io.Writer) *Engine {
	return &Engine{dir: dir, out: out}
}

// Execute runs a parsed statement.
func (e *Engine) Execute(stmt sql.Statement) error {
	switch s := stmt.(type) {
	case *sql.LoadStmt:
		return e.Load(s.Table, s.File, s.WithIndex)
	case *sql.SelectStmt:
		return e.Select(s.Attr, s.Table, s.Conds)
	default:
		return fmt.Errorf("unsupported statement type %T", stmt)
	}
}

func (e *Engine) tablePath(table string) string {
	return filepath.Join(e.dir, table+".tbl")
}

func (e *Engine) indexPath(table string) string {
	return filepath.Join(e.dir, table+".idx")
}
