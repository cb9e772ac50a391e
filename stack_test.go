package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackPushPop(t *testing.T) {
	s := NewStack(16)
	s.PushI64(42)
	require.Equal(t, 8, s.Size())
	assert.Equal(t, int64(42), s.GetI64(0))

	s.PushI32(7)
	require.Equal(t, 12, s.Size())
	assert.Equal(t, int32(7), s.GetI32(8))

	popped := s.Pop(4)
	assert.Len(t, popped, 4)
	assert.Equal(t, 8, s.Size())
}

func TestStackRepushAndPopBelow(t *testing.T) {
	s := NewStack(16)
	s.PushI64(1)
	s.PushI64(2)

	s.Repush(16, 8) // duplicate the bottom i64 onto the top
	require.Equal(t, 24, s.Size())
	assert.Equal(t, int64(1), s.TopI64(8))

	s.PopBelow(8, 8) // drop the middle i64, keep the repushed 1 on top
	require.Equal(t, 16, s.Size())
	assert.Equal(t, int64(1), s.GetI64(0))
	assert.Equal(t, int64(1), s.GetI64(8))
}

func TestStackUnderflowPanics(t *testing.T) {
	s := NewStack(8)
	assert.Panics(t, func() { s.Pop(8) })
}
