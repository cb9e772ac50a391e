package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVMRunIdentityFunction(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	vm := NewVM(program, DefaultVMParameters())

	args := EncodeI64Arg(nil, 5)
	result, err := vm.Run("a", args)
	require.NoError(t, err)
	assert.Equal(t, int64(5), DecodeI64Result(result))
}

func TestVMRunArithmetic(t *testing.T) {
	program := compileSrc(t, `fn addOne(n: i32) -> i32 { n + 1 }`)
	vm := NewVM(program, DefaultVMParameters())

	result, err := vm.Run("addOne", EncodeI64Arg(nil, 41))
	require.NoError(t, err)
	assert.Equal(t, int64(42), DecodeI64Result(result))
}

func TestVMRunSimpleCall(t *testing.T) {
	program := compileSrc(t, `
		fn b(n: i32) -> i32 { n }
		fn caller() -> i32 { b(5) }
	`)
	vm := NewVM(program, DefaultVMParameters())

	result, err := vm.Run("caller", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), DecodeI64Result(result))
}

func TestVMRunUnknownFunction(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	vm := NewVM(program, DefaultVMParameters())

	_, err := vm.Run("missing", nil)
	require.Error(t, err)
	var rtErr *RuntimeError
	require.ErrorAs(t, err, &rtErr)
}

func TestVMRunAllocatesConsCellsOnHeap(t *testing.T) {
	program := compileSrc(t, `fn withList() -> i32 { [1, 2, 3]; 0 }`)
	vm := NewVM(program, DefaultVMParameters())

	before := vm.gc.regions[vm.gc.activeRegion].offset
	result, err := vm.Run("withList", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), DecodeI64Result(result))
	// Three cons cells (8-byte next pointer + 8-byte i32 element each) must
	// have been bump-allocated out of the active region.
	assert.Greater(t, vm.gc.regions[vm.gc.activeRegion].offset, before)
}

func TestVMStackRootsEmptyBeforeRun(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	vm := NewVM(program, DefaultVMParameters())
	assert.Nil(t, vm.StackRoots())
}
