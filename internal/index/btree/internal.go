package btree

import (
	"encoding/binary"

	"tupledb/internal/storage/pagefile"
)

// Internal page layout (1024 bytes):
//
//	offset 0  key count (int32)
//	offset 4  first-child page id (int32)
//	offset 8  entries, 8 bytes each: key(4) rightChild(4)
//
// An internal node with N keys routes N+1 children: firstChild, then the
// right child of each entry. Keys equal to a routing key go right.
const (
	internalEntrySize = 8
	internalEntryOff  = 8
)

// internalNode is a typed view over one internal page buffer.
type internalNode struct {
	buf [pagefile.PageSize]byte
}

func (n *internalNode) read(pid pagefile.PageID, pf *pagefile.File) error {
	return pf.ReadPage(pid, n.buf[:])
}

func (n *internalNode) write(pid pagefile.PageID, pf *pagefile.File) error {
	return pf.WritePage(pid, n.buf[:])
}

func (n *internalNode) keyCount() int {
	return int(int32(binary.LittleEndian.Uint32(n.buf[0:4])))
}

func (n *internalNode) setKeyCount(count int) {
	binary.LittleEndian.PutUint32(n.buf[0:4], uint32(count))
}

func (n *internalNode) firstChild() pagefile.PageID {
	return pagefile.PageID(binary.LittleEndian.Uint32(n.buf[4:8]))
}

func (n *internalNode) setFirstChild(pid pagefile.PageID) {
	binary.LittleEndian.PutUint32(n.buf[4:8], uint32(pid))
}

func (n *internalNode) entry(i int) (int32, pagefile.PageID) {
	off := internalEntryOff + i*internalEntrySize
	key := int32(binary.LittleEndian.Uint32(n.buf[off : off+4]))
	child := pagefile.PageID(binary.LittleEndian.Uint32(n.buf[off+4 : off+8]))
	return key, child
}

func (n *internalNode) setEntry(i int, key int32, child pagefile.PageID) {
	off := internalEntryOff + i*internalEntrySize
	binary.LittleEndian.PutUint32(n.buf[off:off+4], uint32(key))
	binary.LittleEndian.PutUint32(n.buf[off+4:off+8], uint32(child))
}

// insert places (key, rightChild) at its sorted position. firstChild and
// the relative order of existing entries are preserved.
func (n *internalNode) insert(key int32, child pagefile.PageID) error {
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
		start := internalEntryOff + pos*internalEntrySize
		end := internalEntryOff + count*internalEntrySize
		copy(n.buf[start+internalEntrySize:end+internalEntrySize], n.buf[start:end])
	}

	n.setEntry(pos, key, child)
	n.setKeyCount(count + 1)
	return nil
}

// insertAndSplit inserts (key, child), then divides the node with
// sibling, which must be empty. With n entries after the insert, the
// front keeps n/2 keys, entry n/2 is promoted (its key is returned, its
// right child becomes the sibling's first child), and the remaining
// entries move to the sibling.
func (n *internalNode) insertAndSplit(key int32, child pagefile.PageID, sibling *internalNode) (int32, error) {
	if err := n.insert(key, child); err != nil {
		return 0, err
	}

	count := n.keyCount()
	front := count / 2
	back := count - front - 1

	midKey, midChild := n.entry(front)
	sibling.setFirstChild(midChild)

	siblingStart := internalEntryOff + (front+1)*internalEntrySize
	siblingEnd := internalEntryOff + count*internalEntrySize
	copy(sibling.buf[internalEntryOff:], n.buf[siblingStart:siblingEnd])
	sibling.setKeyCount(back)

	// Clear the promoted entry and the moved back half.
	clearStart := internalEntryOff + front*internalEntrySize
	for i := range n.buf[clearStart:siblingEnd] {
		n.buf[clearStart+i] = 0
	}
	n.setKeyCount(front)

	return midKey, nil
}

// locateChild returns the child page to follow when searching for
// searchKey. Keys below the first routing key go to firstChild; otherwise
// the child is the right pointer of the largest routing key <= searchKey.
func (n *internalNode) locateChild(searchKey int32) pagefile.PageID {
	count := n.keyCount()
	if count == 0 {
		return n.firstChild()
	}

	if k, _ := n.entry(0); searchKey < k {
		return n.firstChild()
	}

	child := n.firstChild()
	for i := 0; i < count; i++ {
		k, c := n.entry(i)
		if k > searchKey {
			break
		}
		child = c
	}
	return child
}

// initRoot sets up a fresh root with a single routing key between two
// children.
func (n *internalNode) initRoot(left pagefile.PageID, key int32, right pagefile.PageID) {
	n.setKeyCount(1)
	n.setFirstChild(left)
	n.setEntry(0, key, right)
}
