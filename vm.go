package samal

import "fmt"

// VM interprets a compiled Program against a value Stack (spec §3 "Program
// + Stack", §4.I). Single-threaded, cooperative: there is no preemption or
// suspension within the run loop (spec §5). Grounded on
// original_source/samal_lib/lib/VM.cpp's opcode dispatch and the teacher's
// vm.go decode/dispatch/advance loop idiom.
type VM struct {
	stack   *Stack
	program *Program
	gc      *GC
	jit     *jitTable
	ip      int

	currentFunction *FunctionEntry
}

func NewVM(program *Program, params VMParameters) *VM {
	vm := &VM{
		stack:   NewStack(params.InitialHeapSize),
		program: program,
		jit:     buildJITTable(program),
	}
	vm.gc = NewGC(vm, params)
	return vm
}

// Root is one live, GC-traceable stack slot (spec §4.J step 3).
type Root struct {
	Offset int
	Type   Datatype
}

// StackRoots asks the currently executing function's stack information
// tree for every live slot at the current ip (spec §4.J "Ask the VM for
// roots").
func (vm *VM) StackRoots() []Root {
	if vm.currentFunction == nil || vm.currentFunction.StackInfo == nil {
		return nil
	}
	var roots []Root
	for _, slot := range vm.currentFunction.StackInfo.LiveSlots(vm.ip) {
		roots = append(roots, Root{Offset: slot.Offset, Type: slot.Entry.Type})
	}
	return roots
}

// Run is the external entry point (spec §6 "VM invocation"): lay out
// initialStackBytes per the documented argument layout, execute
// functionName, and return exactly ReturnTypeSize bytes on success.
func (vm *VM) Run(functionName string, initialStackBytes []byte) ([]byte, error) {
	fn, ok := vm.program.Functions[functionName]
	if !ok {
		return nil, &RuntimeError{Message: fmt.Sprintf("function %q not found", functionName)}
	}
	vm.currentFunction = fn
	// A caller-slot placeholder return address of 0 signals "halt on
	// return": a real return address always points past a CALL
	// instruction, so it is never 0.
	// This must sit below the arguments, matching doCall's [retaddr, args]
	// layout that the compiler's parameter-offset math assumes.
	vm.stack.PushI64(0)
	vm.stack.Push(initialStackBytes)
	vm.ip = fn.Offset

	for {
		halt, err := vm.interpretInstruction()
		if err != nil {
			return nil, err
		}
		if halt {
			break
		}
	}

	returnSize := fn.ReturnTypeSize
	bytes := vm.stack.Pop(returnSize)
	return bytes, nil
}

// interpretInstruction decodes and dispatches the instruction at vm.ip,
// advancing vm.ip by its width unless the instruction sets ip itself
// (spec §4.I "The VM loop reads ip, decodes, dispatches, and advances").
func (vm *VM) interpretInstruction() (halt bool, err error) {
	seg, ok := vm.jit.segmentFor(vm.ip)
	if !ok {
		return false, &RuntimeError{Message: "instruction-decode failure: ip out of range"}
	}
	if seg.jittable {
		// No span is ever classified jittable by this interpreter-only
		// build (spec §9 "a portable implementation may ship the
		// interpreter only"); segment has no native entry point, so
		// reaching one is reported as a decode failure.
		return false, &RuntimeError{Message: "instruction-decode failure: jittable segment has no native dispatch in this build"}
	}
	op := Opcode(vm.program.Code[vm.ip])
	width := op.Width()
	code := vm.program.Code

	switch op {
	case OpPush4:
		// Compact mode would push only 4 bytes; under the 8-byte-slot
		// discipline this implementation uses throughout (Open Question
		// 1), the immediate is sign-extended into a full slot instead.
		vm.stack.PushI64(int64(int32(decodeU32(code, vm.ip+1))))
	case OpPush8:
		vm.stack.PushI64(decodeI64(code, vm.ip+1))
	case OpPopNBelow:
		n := int(decodeU32(code, vm.ip+1))
		offset := int(decodeU32(code, vm.ip+5))
		vm.stack.PopBelow(offset, n)
	case OpAddI32:
		b := vm.stack.TopI64(8)
		a := vm.stack.TopI64(16)
		vm.stack.Pop(16)
		vm.stack.PushI64(a + b)
	case OpSubI32:
		b := vm.stack.TopI64(8)
		a := vm.stack.TopI64(16)
		vm.stack.Pop(16)
		vm.stack.PushI64(a - b)
	case OpCompareLessThanI32:
		vm.compareI32(func(a, b int64) bool { return a < b })
	case OpCompareLessEqualThanI32:
		vm.compareI32(func(a, b int64) bool { return a <= b })
	case OpCompareMoreThanI32:
		vm.compareI32(func(a, b int64) bool { return a > b })
	case OpCompareMoreEqualThanI32:
		vm.compareI32(func(a, b int64) bool { return a >= b })
	case OpRepushN:
		n := int(decodeU32(code, vm.ip+1))
		vm.stack.Repush(n, n)
	case OpRepushFromN:
		n := int(decodeU32(code, vm.ip+1))
		offset := int(decodeU32(code, vm.ip+5))
		vm.stack.Repush(offset, n)
	case OpJump:
		vm.ip = int(decodeU32(code, vm.ip+1))
		return false, nil
	case OpJumpIfFalse:
		cond := vm.stack.TopI64(8)
		vm.stack.Pop(8)
		if cond == 0 {
			vm.ip = int(decodeU32(code, vm.ip+1))
			return false, nil
		}
	case OpCall:
		argBytes := int(decodeU32(code, vm.ip+1))
		return false, vm.doCall(argBytes, vm.ip+width)
	case OpReturn:
		retSize := int(decodeU32(code, vm.ip+1))
		return vm.doReturn(retSize)
	case OpAllocCons:
		elemSize := int(decodeU32(code, vm.ip+1))
		vm.doAllocCons(elemSize)
	default:
		return false, &RuntimeError{Message: fmt.Sprintf("instruction-decode failure: unknown opcode %d", op)}
	}

	vm.ip += width
	return false, nil
}

func (vm *VM) compareI32(cmp func(a, b int64) bool) {
	b := vm.stack.TopI64(8)
	a := vm.stack.TopI64(16)
	vm.stack.Pop(16)
	result := int64(0)
	if cmp(a, b) {
		result = 1
	}
	vm.stack.PushI64(result)
}

// doCall implements CALL's contract (spec §4.I): the slot argBytes+8 below
// top holds the callee's tagged function reference; it is overwritten
// with the return address, then ip jumps to the callee.
func (vm *VM) doCall(argBytes, returnIP int) error {
	calleeOffset := vm.stack.Size() - (argBytes + 8)
	tag := vm.stack.GetI64(calleeOffset)
	if tag%2 != 0 {
		return &RuntimeError{Message: "runtime error: calling a lambda pointer directly is not yet supported by this dispatch path"}
	}
	fn := vm.functionByID(tag)
	if fn == nil {
		return &RuntimeError{Message: fmt.Sprintf("runtime error: no function with id %d", tag)}
	}
	// Every function call counts towards the GC's collection trigger
	// (spec §4.J "Collection trigger"), not just allocations.
	vm.gc.RequestCollection()
	vm.stack.SetI64(calleeOffset, int64(returnIP))
	vm.currentFunction = fn
	vm.ip = fn.Offset
	return nil
}

// doAllocCons implements ALLOC_CONS: pop an elemSize-byte element and the
// 8-byte next-pointer below it, allocate an 8+elemSize-byte cons cell on
// the GC heap (layout: next-pointer, then element, matching
// GC.searchForPtrs's CategoryList walk), write both fields, and push the
// new cell's address as the 8-byte list value.
func (vm *VM) doAllocCons(elemSize int) {
	elem := vm.stack.Pop(elemSize)
	next := vm.stack.TopI64(8)
	vm.stack.Pop(8)
	addr := vm.gc.Alloc(8 + elemSize)
	vm.gc.writePtr(addr, int(next))
	vm.gc.writeAt(addr+8, elem)
	vm.stack.PushI64(int64(addr))
}

// doReturn implements RETURN's contract (spec §4.I): jump to the return
// address stored retSize+8 below top, and delete the 8-byte caller slot
// between the return value and the rest of the stack. If the return
// address is the 0 placeholder that Run pushes, halt; otherwise the
// function containing the return address becomes the current function.
func (vm *VM) doReturn(retSize int) (bool, error) {
	returnIP := vm.stack.TopI64(retSize + 8)
	vm.stack.PopBelow(retSize, 8)
	if returnIP == 0 {
		return true, nil
	}
	vm.ip = int(returnIP)
	for _, fn := range vm.program.Functions {
		if vm.ip >= fn.Offset && vm.ip < fn.Offset+fn.Length {
			vm.currentFunction = fn
			break
		}
	}
	return false, nil
}

// functionByID resolves a tagged plain function-id (low bit 0) back to its
// FunctionEntry. IDs are assigned as the ordinal position of each function
// in a stable, name-sorted enumeration of the program's function table.
func (vm *VM) functionByID(id int64) *FunctionEntry {
	names := vm.program.sortedFunctionNames()
	idx := int(id / 2)
	if idx < 0 || idx >= len(names) {
		return nil
	}
	return vm.program.Functions[names[idx]]
}
