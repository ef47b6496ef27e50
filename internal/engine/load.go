package engine

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tupledb/internal/index/btree"
	"tupledb/internal/storage/pagefile"
	"tupledb/internal/storage/recordfile"
)

// ErrInvalidFileFormat is returned when a load file line does not match
// the expected "<key>,<value>" shape.
var ErrInvalidFileFormat = errors.New("engine: invalid load file format")

// Load populates a table from a source file of "<key>,<value>" lines,
// appending each tuple to the heap and, when withIndex is set, inserting
// its key into the table's B+Tree.
func (e *Engine) Load(table, loadFile string, withIndex bool) error {
	rf, err := recordfile.Open(e.tablePath(table), pagefile.ModeWrite)
	if err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}
	defer rf.Close()

	var idx *btree.BTree
	if withIndex {
		idx, err = btree.Open(e.indexPath(table), pagefile.ModeWrite)
		if err != nil {
			return fmt.Errorf("creating index for %s: %w", table, err)
		}
		defer idx.Close()
	}

	src, err := os.Open(loadFile)
	if err != nil {
		return fmt.Errorf("opening load file: %w", err)
	}
	defer src.Close()

	scanner := bufio.NewScanner(src)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		key, value, err := parseLoadLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("%w: line %d", err, lineNo)
		}

		rid, err := rf.Append(key, value)
		if err != nil {
			return fmt.Errorf("appending tuple at line %d: %w", lineNo, err)
		}

		if idx != nil {
			if err := idx.Insert(key, rid); err != nil {
				return fmt.Errorf("indexing key %d at line %d: %w", key, lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading load file: %w", err)
	}
	return nil
}

// parseLoadLine splits one "<key>,<value>" line. The value may be
// wrapped in single or double quotes; an unquoted value runs to the end
// of the line, and a missing value yields the empty string.
func parseLoadLine(line string) (int32, string, error) {
	comma := strings.IndexByte(line, ',')
	if comma == -1 {
		return 0, "", fmt.Errorf("%w: missing comma", ErrInvalidFileFormat)
	}

	keyStr := strings.TrimSpace(line[:comma])
	key, err := strconv.Atoi(keyStr)
	if err != nil {
		return 0, "", fmt.Errorf("%w: bad key %q", ErrInvalidFileFormat, keyStr)
	}

	rest := strings.TrimLeft(line[comma+1:], " \t")
	if rest == "" {
		return int32(key), "", nil
	}

	if rest[0] == '\'' || rest[0] == '"' {
		quote := rest[0]
		rest = rest[1:]
		if end := strings.IndexByte(rest, quote); end != -1 {
			rest = rest[:end]
		}
		return int32(key), rest, nil
	}
	return int32(key), rest, nil
}
