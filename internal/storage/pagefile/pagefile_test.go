package pagefile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadMissingFileFails(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.idx"), ModeRead)
	assert.Error(t, err)
}

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pf")
	pf, err := Open(path, ModeWrite)
	require.NoError(t, err)
	defer pf.Close()

	end, err := pf.EndPID()
	require.NoError(t, err)
	assert.Equal(t, PageID(0), end)

	page := make([]byte, PageSize)
	for i := range page {
		page[i] = byte(i % 251)
	}
	require.NoError(t, pf.WritePage(0, page))
	require.NoError(t, pf.WritePage(3, page)) // grows the file with a gap

	end, err = pf.EndPID()
	require.NoError(t, err)
	assert.Equal(t, PageID(4), end)

	got := make([]byte, PageSize)
	require.NoError(t, pf.ReadPage(3, got))
	assert.Equal(t, page, got)

	// Pages inside a gap read back as zeroes.
	require.NoError(t, pf.ReadPage(1, got))
	assert.Equal(t, make([]byte, PageSize), got)
}

func TestReadPastEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pf")
	pf, err := Open(path, ModeWrite)
	require.NoError(t, err)
	defer pf.Close()

	buf := make([]byte, PageSize)
	err = pf.ReadPage(0, buf)
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestWrongBufferSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pf")
	pf, err := Open(path, ModeWrite)
	require.NoError(t, err)
	defer pf.Close()

	assert.Error(t, pf.ReadPage(0, make([]byte, 12)))
	assert.Error(t, pf.WritePage(0, make([]byte, 2048)))
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.pf")
	pf, err := Open(path, ModeWrite)
	require.NoError(t, err)
	require.NoError(t, pf.WritePage(0, make([]byte, PageSize)))
	require.NoError(t, pf.Close())

	ro, err := Open(path, ModeRead)
	require.NoError(t, err)
	defer ro.Close()

	err = ro.WritePage(0, make([]byte, PageSize))
	assert.ErrorIs(t, err, ErrWriteFailed)
}
