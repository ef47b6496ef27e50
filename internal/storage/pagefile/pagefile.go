package pagefile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// PageSize is the unit of all disk transfers. Every index and heap
	// structure in tupledb is laid out in 1024-byte pages.
	PageSize = 1024
)

// PageID addresses a page inside a file. Page ids are non-negative;
// NoPage (-1) means "no page".
type PageID int32

const NoPage PageID = -1

// Mode selects how a file is opened.
type Mode int

const (
	// ModeRead opens an existing file read-only; it fails if the file
	// does not exist.
	ModeRead Mode = iota
	// ModeWrite opens a file read-write, creating it if needed.
	ModeWrite
)

var (
	ErrReadFailed  = errors.New("pagefile: read failed")
	ErrWriteFailed = errors.New("pagefile: write failed")
)

// File is a byte-addressable array of fixed-size pages backed by a single
// OS file. Page pid lives at byte offset pid*PageSize.
type File struct {
	f    *os.File
	mode Mode
}

// Open opens the paged file at path.
func Open(path string, mode Mode) (*File, error) {
	var flags int
	switch mode {
	case ModeRead:
		flags = os.O_RDONLY
	case ModeWrite:
		flags = os.O_RDWR | os.O_CREATE
	default:
		return nil, fmt.Errorf("pagefile: unknown mode %d", mode)
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{f: f, mode: mode}, nil
}

// Close closes the underlying file. Safe to call twice.
func (pf *File) Close() error {
	if pf.f == nil {
		return nil
	}
	err := pf.f.Close()
	pf.f = nil
	return err
}

// EndPID returns the id of the first page past the end of the file.
// A fresh file has EndPID 0.
func (pf *File) EndPID() (PageID, error) {
	st, err := pf.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return PageID(st.Size() / PageSize), nil
}

// ReadPage fills buf with the contents of page pid.
func (pf *File) ReadPage(pid PageID, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("pagefile: ReadPage: wrong buffer size %d", len(buf))
	}
	if pid < 0 {
		return fmt.Errorf("%w: negative page id %d", ErrReadFailed, pid)
	}
	if _, err := pf.f.ReadAt(buf, int64(pid)*PageSize); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: page %d past end of file", ErrReadFailed, pid)
		}
		return fmt.Errorf("%w: page %d: %v", ErrReadFailed, pid, err)
	}
	return nil
}

// WritePage stores buf as page pid. Writing at EndPID grows the file.
func (pf *File) WritePage(pid PageID, buf []byte) error {
	if len(buf) != PageSize {
		return fmt.Errorf("pagefile: WritePage: wrong buffer size %d", len(buf))
	}
	if pid < 0 {
		return fmt.Errorf("%w: negative page id %d", ErrWriteFailed, pid)
	}
	if pf.mode == ModeRead {
		return fmt.Errorf("%w: file opened read-only", ErrWriteFailed)
	}
	if _, err := pf.f.WriteAt(buf, int64(pid)*PageSize); err != nil {
		return fmt.Errorf("%w: page %d: %v", ErrWriteFailed, pid, err)
	}
	return nil
}
