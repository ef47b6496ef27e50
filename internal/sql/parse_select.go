package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSelect parses a SELECT statement.
//
// Supported forms (case-insensitive, flexible spaces):
//
//	SELECT key FROM t;
//	SELECT * FROM t WHERE key > 10;
//	SELECT count(*) FROM t WHERE key >= 5 AND value = 'foo';
func parseSelect(query string) (Statement, error) {
	upper := strings.ToUpper(query)

	idxFrom := strings.Index(upper, "FROM")
	if idxFrom == -1 {
		return nil, fmt.Errorf("SELECT: FROM not found")
	}

	attrPart := strings.TrimSpace(query[len("SELECT"):idxFrom])
	if attrPart == "" {
		return nil, fmt.Errorf("SELECT: missing attribute")
	}
	attr, err := parseAttr(attrPart)
	if err != nil {
		return nil, err
	}

	rest := strings.TrimSpace(query[idxFrom+len("FROM"):])
	if rest == "" {
		return nil, fmt.Errorf("SELECT: missing table name")
	}

	var tableName, wherePart string
	upperRest := strings.ToUpper(rest)
	if idxWhere := strings.Index(upperRest, "WHERE"); idxWhere != -1 {
		tableName = strings.TrimSpace(rest[:idxWhere])
		wherePart = strings.TrimSpace(rest[idxWhere+len("WHERE"):])
		if wherePart == "" {
			return nil, fmt.Errorf("SELECT: empty WHERE clause")
		}
	} else {
		tableName = rest
	}

	fields := strings.Fields(tableName)
	if len(fields) != 1 {
		return nil, fmt.Errorf("SELECT: invalid table name %q", tableName)
	}
	tableName = fields[0]

	var conds []SelCond
	if wherePart != "" {
		for _, clause := range splitAnd(wherePart) {
			cond, err := parseCond(clause)
			if err != nil {
				return nil, err
			}
			conds = append(conds, cond)
		}
	}

	return &SelectStmt{
		Attr:  attr,
		Table: tableName,
		Conds: conds,
	}, nil
}

// parseAttr recognizes the four projection forms: key, value, *, count(*).
func parseAttr(s string) (Attr, error) {
	compact := strings.ReplaceAll(strings.ToLower(s), " ", "")
	switch compact {
	case "key":
		return AttrKey, nil
	case "value":
		return AttrValue, nil
	case "*":
		return AttrAll, nil
	case "count(*)":
		return AttrCount, nil
	}
	return 0, fmt.Errorf("SELECT: unknown attribute %q", strings.TrimSpace(s))
}

// splitAnd splits a WHERE clause on the AND keyword, case-insensitively.
func splitAnd(s string) []string {
	var parts []string
	for {
		upper := strings.ToUpper(s)
		idx := strings.Index(upper, " AND ")
		if idx == -1 {
			parts = append(parts, strings.TrimSpace(s))
			return parts
		}
		parts = append(parts, strings.TrimSpace(s[:idx]))
		s = s[idx+len(" AND "):]
	}
}

// parseCond parses one "attr op literal" comparison. Multi-character
// operators are tried first so "<=" is not read as "<".
func parseCond(s string) (SelCond, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SelCond{}, fmt.Errorf("WHERE: empty condition")
	}

	ops := []struct {
		text string
		comp Comparator
	}{
		{"<>", NE},
		{"<=", LE},
		{">=", GE},
		{"=", EQ},
		{"<", LT},
		{">", GT},
	}

	for _, op := range ops {
		idx := strings.Index(s, op.text)
		if idx == -1 {
			continue
		}

		left := strings.TrimSpace(s[:idx])
		right := strings.TrimSpace(s[idx+len(op.text):])
		if left == "" || right == "" {
			return SelCond{}, fmt.Errorf("WHERE: invalid condition %q", s)
		}

		var attr Attr
		switch strings.ToLower(left) {
		case "key":
			attr = AttrKey
		case "value":
			attr = AttrValue
		default:
			return SelCond{}, fmt.Errorf("WHERE: unknown column %q", left)
		}

		lit := unquote(right)
		if attr == AttrKey {
			if _, err := strconv.Atoi(lit); err != nil {
				return SelCond{}, fmt.Errorf("WHERE: key condition needs an integer literal, got %q", right)
			}
		}

		return SelCond{Attr: attr, Comp: op.comp, Value: lit}, nil
	}

	return SelCond{}, fmt.Errorf("WHERE: no comparison operator in %q", s)
}
