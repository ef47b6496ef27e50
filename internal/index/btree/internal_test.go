package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tupledb/internal/storage/pagefile"
)

func TestInternalInitRoot(t *testing.T) {
	var node internalNode
	node.initRoot(1, 50, 2)

	assert.Equal(t, 1, node.keyCount())
	assert.Equal(t, pagefile.PageID(1), node.firstChild())
	k, c := node.entry(0)
	assert.Equal(t, int32(50), k)
	assert.Equal(t, pagefile.PageID(2), c)
}

func TestInternalLocateChildRoutesEqualRight(t *testing.T) {
	var node internalNode
	node.initRoot(1, 20, 2)
	require.NoError(t, node.insert(40, 3))

	// children: [1) 20 [2) 40 [3)
	assert.Equal(t, pagefile.PageID(1), node.locateChild(10))
	assert.Equal(t, pagefile.PageID(2), node.locateChild(20)) // equality goes right
	assert.Equal(t, pagefile.PageID(2), node.locateChild(39))
	assert.Equal(t, pagefile.PageID(3), node.locateChild(40))
	assert.Equal(t, pagefile.PageID(3), node.locateChild(99))
}

func TestInternalInsertKeepsOrder(t *testing.T) {
	var node internalNode
	node.initRoot(1, 30, 2)
	require.NoError(t, node.insert(10, 3))
	require.NoError(t, node.insert(20, 4))

	want := []struct {
		key   int32
		child pagefile.PageID
	}{{10, 3}, {20, 4}, {30, 2}}

	require.Equal(t, 3, node.keyCount())
	assert.Equal(t, pagefile.PageID(1), node.firstChild())
	for i, w := range want {
		k, c := node.entry(i)
		assert.Equal(t, w.key, k)
		assert.Equal(t, w.child, c)
	}
}

func TestInternalInsertAndSplitPromotesMedian(t *testing.T) {
	var node, sibling internalNode
	node.initRoot(0, 1, 100)
	for i := int32(2); i <= MaxKeys; i++ {
		require.NoError(t, node.insert(i, pagefile.PageID(i+99)))
	}
	require.Equal(t, MaxKeys, node.keyCount())

	midKey, err := node.insertAndSplit(85, 184, &sibling)
	require.NoError(t, err)

	// 85 keys after the insert: 42 stay left, one is promoted,
	// 42 move right.
	assert.Equal(t, 42, node.keyCount())
	assert.Equal(t, 42, sibling.keyCount())
	assert.Equal(t, int32(43), midKey)

	// The promoted entry's right child becomes the sibling's first child.
	assert.Equal(t, pagefile.PageID(142), sibling.firstChild())

	lastLeft, _ := node.entry(node.keyCount() - 1)
	firstRight, _ := sibling.entry(0)
	assert.Less(t, lastLeft, midKey)
	assert.Greater(t, firstRight, midKey)
}

func TestInternalInsertFull(t *testing.T) {
	var node internalNode
	node.initRoot(0, 1, 100)
	for i := int32(2); i <= MaxKeys+1; i++ {
		require.NoError(t, node.insert(i, pagefile.PageID(i+99)))
	}
	assert.ErrorIs(t, node.insert(999, 999), ErrNodeFull)
}
