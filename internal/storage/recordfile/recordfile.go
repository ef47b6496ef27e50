package recordfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"tupledb/internal/storage/pagefile"
)

// A table file is a heap of fixed-width tuples (int32 key, string value).
//
// Page 0 is a header:
//
//	offset 0  magic "TBL1"
//	offset 4  record count (int32)
//
// Data pages start at page 1 and hold SlotsPerPage fixed-width slots:
//
//	offset 0  key (int32)
//	offset 4  value length (uint16)
//	offset 6  value bytes, zero-padded to the slot end
const (
	fileMagic = "TBL1"

	// RecordSize is the fixed slot width. 4 bytes key, 2 bytes value
	// length, up to MaxValueLen value bytes.
	RecordSize   = 128
	MaxValueLen  = RecordSize - 6
	SlotsPerPage = pagefile.PageSize / RecordSize
)

var (
	ErrNoSuchRecord      = errors.New("recordfile: no such record")
	ErrInvalidFileFormat = errors.New("recordfile: invalid file format")
)

// RecordID is the address of a tuple: (page, slot), ordered
// lexicographically.
type RecordID struct {
	Page int32
	Slot int32
}

// Less reports whether r addresses a tuple before other.
func (r RecordID) Less(other RecordID) bool {
	if r.Page != other.Page {
		return r.Page < other.Page
	}
	return r.Slot < other.Slot
}

// Next returns the address of the following slot, rolling over to the
// next page after the last slot.
func (r RecordID) Next() RecordID {
	if r.Slot+1 < SlotsPerPage {
		return RecordID{Page: r.Page, Slot: r.Slot + 1}
	}
	return RecordID{Page: r.Page + 1, Slot: 0}
}

// File is an append-only heap of fixed-width (key, value) tuples.
type File struct {
	pf    *pagefile.File
	count int32
}

// Open opens the table file at path. ModeWrite creates the file if needed
// and writes a fresh header when it is empty; an existing table file is
// opened as is and appends go after its records. ModeRead fails if the
// file does not exist or is not a table file.
func Open(path string, mode pagefile.Mode) (*File, error) {
	pf, err := pagefile.Open(path, mode)
	if err != nil {
		return nil, err
	}

	rf := &File{pf: pf}

	end, err := pf.EndPID()
	if err != nil {
		pf.Close()
		return nil, err
	}

	if end == 0 {
		// Brand new table: write an empty header.
		if mode == pagefile.ModeRead {
			pf.Close()
			return nil, fmt.Errorf("%w: empty file", ErrInvalidFileFormat)
		}
		if err := rf.writeHeader(); err != nil {
			pf.Close()
			return nil, err
		}
		return rf, nil
	}

	if err := rf.readHeader(); err != nil {
		pf.Close()
		return nil, err
	}
	return rf, nil
}

// Close closes the table file.
func (rf *File) Close() error {
	return rf.pf.Close()
}

func (rf *File) writeHeader() error {
	var buf [pagefile.PageSize]byte
	copy(buf[0:4], fileMagic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(rf.count))
	return rf.pf.WritePage(0, buf[:])
}

func (rf *File) readHeader() error {
	var buf [pagefile.PageSize]byte
	if err := rf.pf.ReadPage(0, buf[:]); err != nil {
		return err
	}
	if string(buf[0:4]) != fileMagic {
		return fmt.Errorf("%w: bad magic", ErrInvalidFileFormat)
	}
	rf.count = int32(binary.LittleEndian.Uint32(buf[4:8]))
	return nil
}

// EndRID returns the address one past the last stored tuple. Iterating
// from (1,0) with Next until EndRID visits every tuple.
func (rf *File) EndRID() RecordID {
	return RecordID{
		Page: 1 + rf.count/SlotsPerPage,
		Slot: rf.count % SlotsPerPage,
	}
}

// Append stores (key, value) in the next free slot and returns its
// address. Values longer than MaxValueLen are truncated.
func (rf *File) Append(key int32, value string) (RecordID, error) {
	rid := rf.EndRID()

	var buf [pagefile.PageSize]byte
	end, err := rf.pf.EndPID()
	if err != nil {
		return RecordID{}, err
	}
	// The page may not exist yet (first slot of a fresh page).
	if pagefile.PageID(rid.Page) < end {
		if err := rf.pf.ReadPage(pagefile.PageID(rid.Page), buf[:]); err != nil {
			return RecordID{}, err
		}
	}

	if len(value) > MaxValueLen {
		value = value[:MaxValueLen]
	}

	off := int(rid.Slot) * RecordSize
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(key))
	binary.LittleEndian.PutUint16(buf[off+4:off+6], uint16(len(value)))
	copy(buf[off+6:off+6+len(value)], value)

	if err := rf.pf.WritePage(pagefile.PageID(rid.Page), buf[:]); err != nil {
		return RecordID{}, err
	}

	rf.count++
	if err := rf.writeHeader(); err != nil {
		return RecordID{}, err
	}
	return rid, nil
}

// Read returns the tuple stored at rid.
func (rf *File) Read(rid RecordID) (int32, string, error) {
	if rid.Page < 1 || rid.Slot < 0 || rid.Slot >= SlotsPerPage {
		return 0, "", ErrNoSuchRecord
	}
	if !rid.Less(rf.EndRID()) {
		return 0, "", ErrNoSuchRecord
	}

	var buf [pagefile.PageSize]byte
	if err := rf.pf.ReadPage(pagefile.PageID(rid.Page), buf[:]); err != nil {
		return 0, "", err
	}

	off := int(rid.Slot) * RecordSize
	key := int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	vlen := int(binary.LittleEndian.Uint16(buf[off+4 : off+6]))
	if vlen > MaxValueLen {
		return 0, "", fmt.Errorf("%w: corrupt value length %d", ErrInvalidFileFormat, vlen)
	}
	value := string(buf[off+6 : off+6+vlen])
	return key, value, nil
}
