package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGCAllocWritesWithinActiveRegion(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	vm := NewVM(program, DefaultVMParameters())

	addr := vm.gc.Alloc(16)
	vm.gc.writePtr(addr, 99)
	assert.Equal(t, 99, vm.gc.readPtr(addr))
}

func TestGCAllocFallsBackToTemporary(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	vm := NewVM(program, VMParameters{InitialHeapSize: 8, FunctionsCallsPerGCRun: 100})

	addr := vm.gc.Alloc(32)
	region, _ := decodeHeapAddr(addr)
	require.GreaterOrEqual(t, region, 2)
	vm.gc.writePtr(addr, 7)
	assert.Equal(t, 7, vm.gc.readPtr(addr))
}

func TestGCCollectionAfterRunDoesNotPanic(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	vm := NewVM(program, DefaultVMParameters())

	args := EncodeI64Arg(nil, 3)
	result, err := vm.Run("a", args)
	require.NoError(t, err)
	assert.Equal(t, int64(3), DecodeI64Result(result))

	// After a normal run the stack is empty again; a collection cycle at
	// that point must not panic.
	vm.gc.PerformGarbageCollection()
}

func TestGCRequestCollectionTriggersAtThreshold(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	vm := NewVM(program, VMParameters{InitialHeapSize: 1 << 10, FunctionsCallsPerGCRun: 2})

	before := vm.gc.activeRegion
	vm.gc.RequestCollection()
	vm.gc.RequestCollection()
	vm.gc.RequestCollection()
	assert.NotEqual(t, before, vm.gc.activeRegion)
}

// TestVMRunTriggersCollectionOnRealCallPath exercises CALL's
// RequestCollection hook (doCall), not GC in isolation: every call a
// running program makes must move the collector towards its threshold.
func TestVMRunTriggersCollectionOnRealCallPath(t *testing.T) {
	src := `
		fn b(n: i32) -> i32 { n }
		fn caller() -> i32 { b(1) }
	`
	program := compileSrc(t, src)
	vm := NewVM(program, VMParameters{InitialHeapSize: 1 << 10, FunctionsCallsPerGCRun: 0})

	before := vm.gc.activeRegion
	result, err := vm.Run("caller", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), DecodeI64Result(result))
	assert.NotEqual(t, before, vm.gc.activeRegion)
}
