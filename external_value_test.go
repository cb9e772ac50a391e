package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExternalValueI32Roundtrip(t *testing.T) {
	v := WrapInt32(42)
	assert.Equal(t, "42", v.Dump())
	stack := v.ToStackValue()
	assert.Len(t, stack, 8)
}

func TestExternalValueTupleDump(t *testing.T) {
	v := WrapTuple(NewTupleType(NewPrimitive(CategoryI32), NewPrimitive(CategoryI32)), []ExternalValue{WrapInt32(1), WrapInt32(2)})
	assert.Equal(t, "(1, 2)", v.Dump())
	assert.Len(t, v.ToStackValue(), 16)
}

func TestExternalValueEmptyTuple(t *testing.T) {
	v := WrapEmptyTuple()
	assert.Equal(t, "()", v.Dump())
}
