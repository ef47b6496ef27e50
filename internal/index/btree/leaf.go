package btree

import (
	"encoding/binary"

	"tupledb/internal/storage/pagefile"
	"tupledb/internal/storage/recordfile"
)

// Leaf page layout (1024 bytes):
//
//	offset 0     key count (int32)
//	offset 4     entries, 12 bytes each: key(4) rid.page(4) rid.slot(4)
//	offset 1020  next-leaf page id (int32), 0 = no next leaf
const (
	leafEntrySize = 12
	leafEntryOff  = 4
	leafNextOff   = pagefile.PageSize - 4

	// MaxKeys is the steady-state capacity of a node. One extra slot is
	// allowed transiently so a split can insert first and divide after.
	MaxKeys = (pagefile.PageSize - 4 - 4) / leafEntrySize
)

// leafNode is a typed view over one leaf page buffer. Only the buffer
// bytes persist; the struct itself is a transient interpretation.
type leafNode struct {
	buf [pagefile.PageSize]byte
}

func (n *leafNode) read(pid pagefile.PageID, pf *pagefile.File) error {
	return pf.ReadPage(pid, n.buf[:])
}

func (n *leafNode) write(pid pagefile.PageID, pf *pagefile.File) error {
	return pf.WritePage(pid, n.buf[:])
}

func (n *leafNode) keyCount() int {
	return int(int32(binary.LittleEndian.Uint32(n.buf[0:4])))
}

func (n *leafNode) setKeyCount(count int) {
	binary.LittleEndian.PutUint32(n.buf[0:4], uint32(count))
}

func (n *leafNode) entry(eid int) (int32, recordfile.RecordID) {
	off := leafEntryOff + eid*leafEntrySize
	key := int32(binary.LittleEndian.Uint32(n.buf[off : off+4]))
	rid := recordfile.RecordID{
		Page: int32(binary.LittleEndian.Uint32(n.buf[off+4 : off+8])),
		Slot: int32(binary.LittleEndian.Uint32(n.buf[off+8 : off+12])),
	}
	return key, rid
}

func (n *leafNode) setEntry(eid int, key int32, rid recordfile.RecordID) {
	off := leafEntryOff + eid*leafEntrySize
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(key))
	binary.LittleEndian.PutUint32(n.buf[off+4:off+8], uint32(rid.Page))
	binary.LittleEndian.PutUint32(n.buf[off+8:off+12], uint32(rid.Slot))
}

func (n *leafNode) next() pagefile.PageID {
	return pagefile.PageID(binary.LittleEndian.Uint32(n.buf[leafNextOff:]))
}

func (n *leafNode) setNext(pid pagefile.PageID) {
	binary.LittleEndian.PutUint32(n.buf[leafNextOff:], uint32(pid))
}

// insert places (key, rid) at its sorted position, shifting the suffix
// right. Entries are few enough that a linear scan is fine; the page read
// dominates. Duplicate keys land after existing equal keys.
func (n *leafNode) insert(key int32, rid recordfile.RecordID) error {
	count := n.keyCount()
	if count >= MaxKeys+1 {
		return ErrNodeFull
	}

	pos := 0
	for ; pos < count; pos++ {
		k, _ := n.entry(pos)
		if k > key {
			break
		}
	}

	if pos < count {
		start := leafEntryOff + pos*leafEntrySize
		end := leafEntryOff + count*leafEntrySize
		copy(n.buf[start+leafEntrySize:end+leafEntrySize], n.buf[start:end])
	}

	n.setEntry(pos, key, rid)
	n.setKeyCount(count + 1)
	return nil
}

// insertAndSplit inserts (key, rid), then moves the back half of the
// entries into sibling, which must be empty. With n entries after the
// insert the front keeps n/2 and the back takes the rest; the returned
// key is the first key of the back half. n keeps its old next pointer;
// the caller is responsible for linking the leaf chain.
func (n *leafNode) insertAndSplit(key int32, rid recordfile.RecordID, sibling *leafNode) (int32, error) {
	// The transient overflow entry overlaps the next-leaf trailer, so the
	// trailer is saved here and restored after the split.
	next := n.next()
	if err := n.insert(key, rid); err != nil {
		return 0, err
	}

	count := n.keyCount()
	front := count / 2
	back := count - front

	siblingStart := leafEntryOff + front*leafEntrySize
	siblingEnd := leafEntryOff + count*leafEntrySize
	copy(sibling.buf[leafEntryOff:], n.buf[siblingStart:siblingEnd])
	sibling.setKeyCount(back)

	siblingKey, _ := sibling.entry(0)

	for i := range n.buf[siblingStart:siblingEnd] {
		n.buf[siblingStart+i] = 0
	}
	n.setKeyCount(front)
	n.setNext(next)

	return siblingKey, nil
}

// locate finds searchKey in the node. If present it returns its entry
// index; otherwise it returns the insertion position for searchKey along
// with ErrNoSuchRecord.
func (n *leafNode) locate(searchKey int32) (int, error) {
	count := n.keyCount()
	for eid := 0; eid < count; eid++ {
		k, _ := n.entry(eid)
		if k == searchKey {
			return eid, nil
		}
		if k > searchKey {
			return eid, ErrNoSuchRecord
		}
	}
	return count, ErrNoSuchRecord
}

// readEntry returns the (key, rid) pair at entry eid.
func (n *leafNode) readEntry(eid int) (int32, recordfile.RecordID, error) {
	if eid < 0 || eid >= n.keyCount() {
		return 0, recordfile.RecordID{}, ErrNoSuchRecord
	}
	key, rid := n.entry(eid)
	return key, rid, nil
}
