package sql

import (
	"fmt"
	"strings"
)

// parseLoad parses a LOAD statement.
//
// Supported forms:
//
//	LOAD t FROM 'data.del';
//	LOAD t FROM 'data.del' WITH INDEX;
func parseLoad(query string) (Statement, error) {
	upper := strings.ToUpper(query)

	idxFrom := strings.Index(upper, "FROM")
	if idxFrom == -1 {
		return nil, fmt.Errorf("LOAD: FROM not found")
	}

	tablePart := strings.TrimSpace(query[len("LOAD"):idxFrom])
	fields := strings.Fields(tablePart)
	if len(fields) != 1 {
		return nil, fmt.Errorf("LOAD: invalid table name %q", tablePart)
	}
	tableName := fields[0]

	rest := strings.TrimSpace(query[idxFrom+len("FROM"):])
	if rest == "" {
		return nil, fmt.Errorf("LOAD: missing source file")
	}

	// The file name is a quoted string; WITH INDEX may follow it.
	var fileName, tail string
	if rest[0] == '\'' || rest[0] == '"' {
		closing := strings.IndexByte(rest[1:], rest[0])
		if closing == -1 {
			return nil, fmt.Errorf("LOAD: unterminated file name %q", rest)
		}
		fileName = rest[1 : 1+closing]
		tail = strings.TrimSpace(rest[2+closing:])
	} else {
		parts := strings.SplitN(rest, " ", 2)
		fileName = parts[0]
		if len(parts) == 2 {
			tail = strings.TrimSpace(parts[1])
		}
	}
	if fileName == "" {
		return nil, fmt.Errorf("LOAD: empty file name")
	}

	withIndex := false
	if tail != "" {
		if strings.Join(strings.Fields(strings.ToUpper(tail)), " ") != "WITH INDEX" {
			return nil, fmt.Errorf("LOAD: unexpected trailing input %q", tail)
		}
		withIndex = true
	}

	return &LoadStmt{
		Table:     tableName,
		File:      fileName,
		WithIndex: withIndex,
	}, nil
}
