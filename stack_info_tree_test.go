package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackInfoNodeLiveSlots(t *testing.T) {
	root := NewStackInfoRoot(0, 0)
	cursor := root
	cursor = cursor.AddChild(NewStackInfoVariable(1, 8, "n", NewPrimitive(CategoryI32), StorageParameter))
	cursor = cursor.AddChild(NewStackInfoVariable(5, 16, "m", NewPrimitive(CategoryI32), StorageLocal))

	slots := cursor.LiveSlots(10)
	require.Len(t, slots, 2)
	assert.Equal(t, "m", slots[0].Entry.Name)
	assert.Equal(t, 8, slots[0].Offset)
	assert.Equal(t, "n", slots[1].Entry.Name)
	assert.Equal(t, 0, slots[1].Offset)
}

func TestStackInfoNodeStopsAtPop(t *testing.T) {
	root := NewStackInfoRoot(0, 0)
	cursor := root.AddChild(NewStackInfoVariable(1, 8, "n", NewPrimitive(CategoryI32), StorageParameter))
	cursor = cursor.AddChild(NewStackInfoPop(2, 0))
	cursor = cursor.AddChild(NewStackInfoVariable(3, 8, "m", NewPrimitive(CategoryI32), StorageLocal))

	slots := cursor.LiveSlots(10)
	require.Len(t, slots, 1)
	assert.Equal(t, "m", slots[0].Entry.Name)
}

func TestStackInfoNodeGetBestNodeForIP(t *testing.T) {
	root := NewStackInfoRoot(0, 0)
	child := root.AddChild(NewStackInfoVariable(5, 8, "n", NewPrimitive(CategoryI32), StorageParameter))

	assert.Same(t, root, root.GetBestNodeForIP(2))
	assert.Same(t, child, root.GetBestNodeForIP(5))
	assert.Same(t, child, root.GetBestNodeForIP(100))
}
