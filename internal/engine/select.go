package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"tupledb/internal/index/btree"
	"tupledb/internal/sql"
	"tupledb/internal/storage/pagefile"
	"tupledb/internal/storage/recordfile"
)

// keyRange is the planner's fold of all key predicates. NE predicates do
// not narrow the range; they stay behind as residual filters.
type keyRange struct {
	min, max int32
	eql      int32
	hasEql   bool
}

// foldKeyConds folds the key predicates of a WHERE clause into a single
// range plus an optional equality point.
func foldKeyConds(conds []sql.SelCond) keyRange {
	r := keyRange{min: 0, max: math.MaxInt32}
	for _, c := range conds {
		if c.Attr != sql.AttrKey {
			continue
		}
		v64, err := strconv.Atoi(c.Value)
		if err != nil {
			continue // the parser rejects these; defensive no-op
		}
		v := int32(v64)
		switch c.Comp {
		case sql.LT:
			if r.max > v-1 {
				r.max = v - 1
			}
		case sql.LE:
			if r.max > v {
				r.max = v
			}
		case sql.GT:
			if r.min < v+1 {
				r.min = v + 1
			}
		case sql.GE:
			if r.min < v {
				r.min = v
			}
		case sql.EQ:
			r.eql = v
			r.hasEql = true
		}
	}
	return r
}

// condMatch evaluates one condition against a tuple, mirroring the
// sequential scan's semantics: integer difference for key conditions,
// string comparison for value conditions.
func condMatch(c sql.SelCond, key int32, value string) bool {
	var diff int
	switch c.Attr {
	case sql.AttrKey:
		lit, _ := strconv.Atoi(c.Value)
		d := int64(key) - int64(lit)
		switch {
		case d < 0:
			diff = -1
		case d > 0:
			diff = 1
		}
	case sql.AttrValue:
		diff = strings.Compare(value, c.Value)
	}

	switch c.Comp {
	case sql.EQ:
		return diff == 0
	case sql.NE:
		return diff != 0
	case sql.LT:
		return diff < 0
	case sql.LE:
		return diff <= 0
	case sql.GT:
		return diff > 0
	case sql.GE:
		return diff >= 0
	}
	return false
}

func condsMatch(conds []sql.SelCond, key int32, value string) bool {
	for _, c := range conds {
		if !condMatch(c, key, value) {
			return false
		}
	}
	return true
}

func (e *Engine) printRow(attr sql.Attr, key int32, value string) {
	switch attr {
	case sql.AttrKey:
		fmt.Fprintf(e.out, "%d\n", key)
	case sql.AttrValue:
		fmt.Fprintf(e.out, "%s\n", value)
	case sql.AttrAll:
		fmt.Fprintf(e.out, "%d '%s'\n", key, value)
	}
}

// Select plans and runs one SELECT. The index is used when the key
// predicates bound the scan, or when the whole query can be answered
// without touching tuple values (a bare count). If the index file cannot
// be opened the query silently falls back to a sequential scan.
func (e *Engine) Select(attr sql.Attr, table string, conds []sql.SelCond) error {
	r := foldKeyConds(conds)

	needRead := attr == sql.AttrValue || attr == sql.AttrAll
	for _, c := range conds {
		if c.Attr == sql.AttrValue {
			needRead = true
		}
	}

	hasRange := r.min != 0 || r.max != math.MaxInt32 || r.hasEql
	useIndex := hasRange || !needRead

	if useIndex {
		idx, err := btree.Open(e.indexPath(table), pagefile.ModeRead)
		if err == nil {
			defer idx.Close()
			return e.indexScan(idx, attr, table, conds, r, needRead)
		}
		// No usable index; fall through to the sequential scan.
	}
	return e.seqScan(attr, table, conds)
}

// seqScan walks every tuple in the heap and filters it against the full
// condition list.
func (e *Engine) seqScan(attr sql.Attr, table string, conds []sql.SelCond) error {
	rf, err := recordfile.Open(e.tablePath(table), pagefile.ModeRead)
	if err != nil {
		return fmt.Errorf("table %s does not exist: %w", table, err)
	}
	defer rf.Close()

	count := 0
	end := rf.EndRID()
	for rid := (recordfile.RecordID{Page: 1, Slot: 0}); rid.Less(end); rid = rid.Next() {
		key, value, err := rf.Read(rid)
		if err != nil {
			return fmt.Errorf("reading tuple from table %s: %w", table, err)
		}
		if !condsMatch(conds, key, value) {
			continue
		}
		count++
		e.printRow(attr, key, value)
	}

	if attr == sql.AttrCount {
		fmt.Fprintf(e.out, "%d\n", count)
	}
	return nil
}

// indexScan answers the query through the B+Tree: a single probe for an
// equality point, a leaf-chain walk for a range. The heap is consulted
// only when values are projected or filtered.
func (e *Engine) indexScan(idx *btree.BTree, attr sql.Attr, table string, conds []sql.SelCond, r keyRange, needRead bool) error {
	// Contradictory predicates: nothing can match, skip all I/O.
	if r.min > r.max || (r.hasEql && (r.eql < r.min || r.eql > r.max)) {
		if attr == sql.AttrCount {
			fmt.Fprintf(e.out, "%d\n", 0)
		}
		return nil
	}

	var rf *recordfile.File
	if needRead {
		var err error
		rf, err = recordfile.Open(e.tablePath(table), pagefile.ModeRead)
		if err != nil {
			return fmt.Errorf("table %s does not exist: %w", table, err)
		}
		defer rf.Close()
	}

	var count int
	var err error
	if r.hasEql {
		count, err = e.indexEquality(idx, rf, attr, table, conds, r.eql, needRead)
	} else {
		count, err = e.indexRange(idx, rf, attr, table, conds, r, needRead)
	}
	if err != nil {
		return err
	}

	if attr == sql.AttrCount {
		fmt.Fprintf(e.out, "%d\n", count)
	}
	return nil
}

// indexEquality probes the index for a single key. The match is printed
// only when the tuple was read; a bare count never touches the heap.
func (e *Engine) indexEquality(idx *btree.BTree, rf *recordfile.File, attr sql.Attr, table string, conds []sql.SelCond, eql int32, needRead bool) (int, error) {
	cur, err := idx.Locate(eql)
	if errors.Is(err, btree.ErrNoSuchRecord) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("index probe on %s: %w", table, err)
	}

	key, rid, err := idx.ReadForward(&cur)
	if errors.Is(err, btree.ErrNoSuchRecord) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	value := ""
	if needRead {
		if _, value, err = rf.Read(rid); err != nil {
			return 0, fmt.Errorf("reading tuple from table %s: %w", table, err)
		}
	}
	if !condsMatch(conds, key, value) {
		return 0, nil
	}
	if needRead {
		e.printRow(attr, key, value)
	}
	return 1, nil
}

// indexRange walks the leaf chain from min and emits every entry up to
// max, applying the residual predicates to each.
func (e *Engine) indexRange(idx *btree.BTree, rf *recordfile.File, attr sql.Attr, table string, conds []sql.SelCond, r keyRange, needRead bool) (int, error) {
	cur, err := idx.Locate(r.min)
	if err != nil && !errors.Is(err, btree.ErrNoSuchRecord) {
		return 0, fmt.Errorf("index probe on %s: %w", table, err)
	}

	count := 0
	for {
		key, rid, err := idx.ReadForward(&cur)
		if errors.Is(err, btree.ErrNoSuchRecord) {
			ok, err := idx.NextLeaf(&cur)
			if err != nil {
				return count, err
			}
			if !ok {
				break
			}
			continue
		}
		if err != nil {
			return count, err
		}
		if key > r.max {
			break
		}

		value := ""
		if needRead {
			if _, value, err = rf.Read(rid); err != nil {
				return count, fmt.Errorf("reading tuple from table %s: %w", table, err)
			}
		}
		if condsMatch(conds, key, value) {
			count++
			e.printRow(attr, key, value)
		}
	}
	return count, nil
}
