package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLoadLine(t *testing.T) {
	tests := []struct {
		line  string
		key   int32
		value string
	}{
		{"42,'hello'", 42, "hello"},
		{`7,"double quoted"`, 7, "double quoted"},
		{"1, bare value", 1, "bare value"},
		{"5,", 5, ""},
		{"  -3,\t'negative'", -3, "negative"},
		{"9,'unclosed", 9, "unclosed"},
		{"8,'it''s'", 8, "it"},
	}
	for _, tt := range tests {
		key, value, err := parseLoadLine(tt.line)
		require.NoError(t, err, "line %q", tt.line)
		assert.Equal(t, tt.key, key, "line %q", tt.line)
		assert.Equal(t, tt.value, value, "line %q", tt.line)
	}
}

func TestParseLoadLineErrors(t *testing.T) {
	for _, line := range []string{"no comma here", "abc,value", ""} {
		_, _, err := parseLoadLine(line)
		assert.ErrorIs(t, err, ErrInvalidFileFormat, "line %q", line)
	}
}

func writeLoadFile(t *testing.T, dir string, lines string) string {
	t.Helper()
	path := filepath.Join(dir, "input.del")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestLoadCreatesTableAndIndex(t *testing.T) {
	dir := t.TempDir()
	src := writeLoadFile(t, dir, "3,'c'\n1,'a'\n2,'b'\n")

	var out bytes.Buffer
	eng := New(dir, &out)
	require.NoError(t, eng.Load("t", src, true))

	_, err := os.Stat(filepath.Join(dir, "t.tbl"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "t.idx"))
	require.NoError(t, err)
}

func TestLoadWithoutIndex(t *testing.T) {
	dir := t.TempDir()
	src := writeLoadFile(t, dir, "1,'a'\n")

	var out bytes.Buffer
	eng := New(dir, &out)
	require.NoError(t, eng.Load("t", src, false))

	_, err := os.Stat(filepath.Join(dir, "t.idx"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadBadLineReportsLineNumber(t *testing.T) {
	dir := t.TempDir()
	src := writeLoadFile(t, dir, "1,'a'\nbroken line\n3,'c'\n")

	var out bytes.Buffer
	eng := New(dir, &out)
	err := eng.Load("t", src, true)
	require.ErrorIs(t, err, ErrInvalidFileFormat)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadMissingSourceFile(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	eng := New(dir, &out)
	assert.Error(t, eng.Load("t", filepath.Join(dir, "nope.del"), false))
}
