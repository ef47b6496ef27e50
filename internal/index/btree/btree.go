package btree

import (
	"encoding/binary"
	"errors"

	"tupledb/internal/storage/pagefile"
	"tupledb/internal/storage/recordfile"
)

var (
	// ErrNodeFull is returned by node inserts when even the transient
	// overflow slot is taken. The driver never lets this escape.
	ErrNodeFull = errors.New("btree: node full")

	// ErrNoSuchRecord signals "not here" during search and "past the
	// end" during iteration. It is a control signal, not a failure.
	ErrNoSuchRecord = errors.New("btree: no such record")
)

// Header page layout (page 0):
//
//	offset 0  root page id (int32), -1 = no tree yet
//	offset 4  tree height (int32)
//
// Page 0 is never a tree node; the first leaf root lives at page 1.

// Cursor is a position in the leaf chain: a leaf page and an entry index
// within it.
type Cursor struct {
	PID pagefile.PageID
	EID int
}

// BTree is a disk-backed B+Tree mapping int32 keys to record ids. It
// exclusively owns its paged file. The height counts internal levels
// above the leaves; a tree whose root is a leaf has height 0.
//
// A one-slot leaf cache backs cursor iteration: Locate loads the target
// leaf, ReadForward reads from it, and NextLeaf advances it along the
// chain. Insert does not update the cache, so cursors do not survive
// mutation.
type BTree struct {
	pf      *pagefile.File
	rootPid pagefile.PageID
	height  int32
	cache   leafNode
}

// Open opens the index file at path. ModeWrite creates an empty index if
// the file does not exist.
func Open(path string, mode pagefile.Mode) (*BTree, error) {
	pf, err := pagefile.Open(path, mode)
	if err != nil {
		return nil, err
	}

	t := &BTree{pf: pf, rootPid: pagefile.NoPage}

	end, err := pf.EndPID()
	if err != nil {
		pf.Close()
		return nil, err
	}
	if end == 0 {
		// Fresh index: no tree until the first insert.
		return t, nil
	}

	if err := t.readHeader(); err != nil {
		pf.Close()
		return nil, err
	}
	return t, nil
}

// Close closes the index file.
func (t *BTree) Close() error {
	return t.pf.Close()
}

// Height returns the number of internal levels above the leaves.
func (t *BTree) Height() int {
	return int(t.height)
}

// Empty reports whether the index holds no entries.
func (t *BTree) Empty() bool {
	return t.rootPid < 1
}

func (t *BTree) readHeader() error {
	var buf [pagefile.PageSize]byte
	if err := t.pf.ReadPage(0, buf[:]); err != nil {
		return err
	}
	t.rootPid = pagefile.PageID(binary.LittleEndian.Uint32(buf[0:4]))
	t.height = int32(binary.LittleEndian.Uint32(buf[4:8]))
	return nil
}

func (t *BTree) writeHeader() error {
	var buf [pagefile.PageSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(t.rootPid))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(t.height))
	return t.pf.WritePage(0, buf[:])
}

// promotion carries a split's separator key up the recursion. nil means
// the child absorbed the insert without splitting.
type promotion struct {
	key   int32
	left  pagefile.PageID
	right pagefile.PageID
}

// Insert adds a (key, rid) entry to the index. Splits propagate up the
// recursion stack; a root split grows the tree by one level. The header
// is rewritten after every insert so reopening sees the current tree.
func (t *BTree) Insert(key int32, rid recordfile.RecordID) error {
	if t.rootPid < 1 {
		var root leafNode
		if err := root.insert(key, rid); err != nil {
			return err
		}
		if err := root.write(1, t.pf); err != nil {
			return err
		}
		t.rootPid = 1
		t.height = 0
		return t.writeHeader()
	}

	prom, err := t.recInsert(t.rootPid, 0, key, rid)
	if err != nil {
		return err
	}

	if prom != nil {
		rootPid, err := t.pf.EndPID()
		if err != nil {
			return err
		}
		var root internalNode
		root.initRoot(prom.left, prom.key, prom.right)
		if err := root.write(rootPid, t.pf); err != nil {
			return err
		}
		t.rootPid = rootPid
		t.height++
	}

	return t.writeHeader()
}

// recInsert descends to the leaf for key, inserts, and unwinds any split
// by promoting the separator into the caller's node. Sibling pages are
// written before the pages they split from.
func (t *BTree) recInsert(pid pagefile.PageID, level int32, key int32, rid recordfile.RecordID) (*promotion, error) {
	if level == t.height {
		var leaf leafNode
		if err := leaf.read(pid, t.pf); err != nil {
			return nil, err
		}

		if leaf.keyCount() < MaxKeys {
			if err := leaf.insert(key, rid); err != nil {
				return nil, err
			}
			return nil, leaf.write(pid, t.pf)
		}

		var sibling leafNode
		sibKey, err := leaf.insertAndSplit(key, rid, &sibling)
		if err != nil {
			return nil, err
		}

		sibPid, err := t.pf.EndPID()
		if err != nil {
			return nil, err
		}
		sibling.setNext(leaf.next())
		leaf.setNext(sibPid)

		if err := sibling.write(sibPid, t.pf); err != nil {
			return nil, err
		}
		if err := leaf.write(pid, t.pf); err != nil {
			return nil, err
		}
		return &promotion{key: sibKey, left: pid, right: sibPid}, nil
	}

	var node internalNode
	if err := node.read(pid, t.pf); err != nil {
		return nil, err
	}

	prom, err := t.recInsert(node.locateChild(key), level+1, key, rid)
	if err != nil || prom == nil {
		return nil, err
	}

	if node.keyCount() < MaxKeys {
		if err := node.insert(prom.key, prom.right); err != nil {
			return nil, err
		}
		return nil, node.write(pid, t.pf)
	}

	var sibling internalNode
	midKey, err := node.insertAndSplit(prom.key, prom.right, &sibling)
	if err != nil {
		return nil, err
	}

	sibPid, err := t.pf.EndPID()
	if err != nil {
		return nil, err
	}
	if err := sibling.write(sibPid, t.pf); err != nil {
		return nil, err
	}
	if err := node.write(pid, t.pf); err != nil {
		return nil, err
	}
	return &promotion{key: midKey, left: pid, right: sibPid}, nil
}

// Locate runs the standard B+Tree search for searchKey and positions a
// cursor at the leaf where it lives or would live. On an exact match the
// cursor points at the matching entry; otherwise it points at the entry
// immediately after the largest key below searchKey and ErrNoSuchRecord
// is returned. The target leaf is left in the cache for ReadForward.
func (t *BTree) Locate(searchKey int32) (Cursor, error) {
	if t.rootPid < 1 {
		return Cursor{PID: pagefile.NoPage}, ErrNoSuchRecord
	}

	pid := t.rootPid
	for level := int32(0); level < t.height; level++ {
		var node internalNode
		if err := node.read(pid, t.pf); err != nil {
			return Cursor{PID: pagefile.NoPage}, err
		}
		pid = node.locateChild(searchKey)
	}

	if err := t.cache.read(pid, t.pf); err != nil {
		return Cursor{PID: pagefile.NoPage}, err
	}

	eid, err := t.cache.locate(searchKey)
	return Cursor{PID: pid, EID: eid}, err
}

// ReadForward reads the (key, rid) entry under the cursor from the cached
// leaf and advances the cursor by one entry. It does not follow the leaf
// chain: past the last entry it returns ErrNoSuchRecord and the caller
// decides whether to advance with NextLeaf.
func (t *BTree) ReadForward(cur *Cursor) (int32, recordfile.RecordID, error) {
	if cur.PID < 1 {
		return 0, recordfile.RecordID{}, ErrNoSuchRecord
	}
	key, rid, err := t.cache.readEntry(cur.EID)
	if err != nil {
		return 0, recordfile.RecordID{}, err
	}
	cur.EID++
	return key, rid, nil
}

// NextLeaf moves the cursor to the start of the next leaf in the chain,
// loading it into the cache. It returns false at the end of the chain.
func (t *BTree) NextLeaf(cur *Cursor) (bool, error) {
	if cur.PID < 1 {
		return false, nil
	}
	next := t.cache.next()
	if next == 0 {
		return false, nil
	}
	if err := t.cache.read(next, t.pf); err != nil {
		return false, err
	}
	cur.PID = next
	cur.EID = 0
	return true, nil
}
