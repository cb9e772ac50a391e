package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildJITTableCoversWholeProgram(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	table := buildJITTable(program)

	seg, ok := table.segmentFor(0)
	require.True(t, ok)
	assert.False(t, seg.jittable)
	assert.Equal(t, len(program.Code), seg.end)
}

func TestJITTableSegmentForOutOfRange(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	table := buildJITTable(program)

	_, ok := table.segmentFor(haltSentinel)
	assert.False(t, ok)
}
