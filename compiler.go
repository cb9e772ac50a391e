package samal

import "fmt"

// varInfo records where a compiled local lives (spec §4.F "stack_frames").
type varInfo struct {
	offsetFromBottom int
	sizeOnStack      int
}

// frame is one lexical scope's bookkeeping (spec §4.F): the variables
// declared directly in it, keyed by name, and the count of bytes that
// were computed for side effect (or discarded mid-scope) and must be
// bulk-popped at scope exit.
type frame struct {
	vars             map[string]varInfo
	bytesToPopOnExit int
}

func newFrame() *frame { return &frame{vars: map[string]varInfo{}} }

// Compiler walks a typed AST once per module and emits a Program (spec
// §4.F). Grounded on original_source/samal_lib/lib/Compiler.cpp: stack
// bookkeeping mirrors its FunctionDuration/ScopeDuration RAII helpers,
// reimplemented here as enterFunction/enterScope returning a Go func()
// closure to `defer`, since Go has no destructors.
type Compiler struct {
	program   *Program
	code      []byte
	stackSize int
	frames    []*frame

	stackInfoRoot   *StackInfoNode
	stackInfoCursor *StackInfoNode

	functionOrdinal map[string]int64
}

func NewCompiler() *Compiler {
	return &Compiler{program: NewProgram(), functionOrdinal: map[string]int64{}}
}

// CompileModule compiles every function declaration in name-sorted order,
// after a first pass that assigns each a stable ordinal from that same
// order (spec glossary "Tagged function reference" — even ids are plain
// function references).
func (c *Compiler) CompileModule(mod *Module) (*Program, error) {
	names := make([]string, 0, len(mod.Functions))
	byName := map[string]*FunctionDecl{}
	for _, fn := range mod.Functions {
		if _, dup := byName[fn.Name]; dup {
			return nil, &CompileError{Message: fmt.Sprintf("function %q redefined", fn.Name), Span: fn.Span()}
		}
		byName[fn.Name] = fn
		names = append(names, fn.Name)
	}
	sortStrings(names)
	for i, name := range names {
		c.functionOrdinal[name] = int64(i) * 2 // low bit 0: plain function id
	}

	for _, name := range names {
		if err := c.compileFunction(byName[name]); err != nil {
			return nil, err
		}
	}
	c.program.Code = c.code
	return c.program, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func (c *Compiler) emitByte(b byte) { c.code = append(c.code, b) }

func (c *Compiler) emitOp(op Opcode) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpU32(op Opcode, a uint32) {
	c.emitByte(byte(op))
	c.code = encodeU32(c.code, a)
}

func (c *Compiler) emitOpU32U32(op Opcode, a, b uint32) {
	c.emitByte(byte(op))
	c.code = encodeU32(c.code, a)
	c.code = encodeU32(c.code, b)
}

func (c *Compiler) emitPush8(v int64) {
	c.emitByte(byte(OpPush8))
	c.code = encodeI64(c.code, v)
	c.stackSize += 8
}

func (c *Compiler) ip() int { return len(c.code) }

func (c *Compiler) currentFrame() *frame { return c.frames[len(c.frames)-1] }

// enterScope pushes a fresh frame and returns a closer to defer, which
// emits the bulk POP_N_BELOW cleanup and pops the frame (spec §4.F
// "Scope"). returnSize is the size of whatever value the scope's last
// expression leaves on top, which must survive the cleanup pop.
func (c *Compiler) enterScope() func(returnSize int) {
	c.frames = append(c.frames, newFrame())
	return func(returnSize int) {
		fr := c.currentFrame()
		sum := fr.bytesToPopOnExit
		for _, v := range fr.vars {
			sum += v.sizeOnStack
		}
		if sum != 0 {
			c.emitOpU32U32(OpPopNBelow, uint32(sum), uint32(returnSize))
			c.stackSize -= sum
		}
		c.frames = c.frames[:len(c.frames)-1]
	}
}

func (c *Compiler) declareVar(name string, typ Datatype) {
	size := typ.GetSizeOnStack()
	c.currentFrame().vars[name] = varInfo{offsetFromBottom: c.stackSize, sizeOnStack: size}
	c.stackInfoCursor = c.stackInfoCursor.AddChild(
		NewStackInfoVariable(c.ip(), c.stackSize+size, name, typ, StorageLocal))
}

func (c *Compiler) lookupVar(name string) (varInfo, bool) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i].vars[name]; ok {
			return v, true
		}
	}
	return varInfo{}, false
}

func (c *Compiler) compileFunction(fn *FunctionDecl) error {
	offset := c.ip()
	closeScope := c.enterScope()
	c.stackInfoRoot = NewStackInfoRoot(offset, 0)
	c.stackInfoCursor = c.stackInfoRoot

	for _, p := range fn.Params {
		c.declareVar(p.Name, p.Type)
		c.stackSize += p.Type.GetSizeOnStack()
	}

	if err := c.compileExpr(fn.Body); err != nil {
		return err
	}
	returnSize := fn.ReturnType.GetSizeOnStack()
	closeScope(returnSize)

	if c.stackSize != returnSize {
		return &CompileError{Message: fmt.Sprintf("function %q: stack size %d at return does not match declared return size %d", fn.Name, c.stackSize, returnSize), Span: fn.Span()}
	}
	c.emitOpU32(OpReturn, uint32(returnSize))

	c.program.Functions[fn.Name] = &FunctionEntry{
		Name:           fn.Name,
		Offset:         offset,
		Length:         c.ip() - offset,
		ReturnTypeSize: returnSize,
		StackInfo:      c.stackInfoRoot,
	}
	c.stackSize = 0
	return nil
}

// compileExpr emits code for node and leaves exactly its datatype's
// GetSizeOnStack bytes on top, per-node contracts from spec §4.F.
func (c *Compiler) compileExpr(node Node) error {
	switch n := node.(type) {
	case *LiteralInt:
		c.emitPush8(n.Value)
		return nil
	case *Identifier:
		return c.compileIdentifier(n)
	case *BinaryExpr:
		return c.compileBinaryExpr(n)
	case *Assignment:
		return c.compileAssignment(n)
	case *Scope:
		return c.compileScope(n)
	case *IfExpr:
		return c.compileIf(n)
	case *Call:
		return c.compileCall(n)
	case *TupleCreation:
		return c.compileTuple(n)
	case *ListCreation:
		return c.compileList(n)
	default:
		return &CompileError{Message: fmt.Sprintf("compiler: unhandled AST node %T", node), Span: node.Span()}
	}
}

func (c *Compiler) compileIdentifier(id *Identifier) error {
	if v, ok := c.lookupVar(id.Name); ok {
		offset := c.stackSize - v.offsetFromBottom
		c.emitOpU32U32(OpRepushFromN, uint32(v.sizeOnStack), uint32(offset))
		c.stackSize += v.sizeOnStack
		return nil
	}
	if ordinal, ok := c.functionOrdinal[id.Name]; ok {
		c.emitPush8(ordinal)
		return nil
	}
	return &TypeError{Message: fmt.Sprintf("undefined name %q", id.Name), Span: id.Span()}
}

// binaryOperationStackDelta implements spec §4.F's explicit text: both
// arithmetic and comparison operators net a -8 adjustment (two 8-byte
// operands collapse to one 8-byte result slot). This deviates from
// original_source/samal_lib/lib/Compiler.cpp's binaryOperation, which
// subtracts 4 for add/sub and 7 for comparisons — inconsistent with both
// its own 8-byte-slot mode and spec.md's explicit text; since
// original_source is only consulted to resolve points the spec leaves
// silent, spec.md's explicit -8/-8 wins here (see DESIGN.md).
const binaryOperationStackDelta = -8

func (c *Compiler) compileBinaryExpr(b *BinaryExpr) error {
	if err := c.compileExpr(b.Left); err != nil {
		return err
	}
	if err := c.compileExpr(b.Right); err != nil {
		return err
	}
	switch b.Op {
	case OpAdd:
		c.emitOp(OpAddI32)
	case OpSub:
		c.emitOp(OpSubI32)
	case OpLessThan:
		c.emitOp(OpCompareLessThanI32)
	case OpLessEqual:
		c.emitOp(OpCompareLessEqualThanI32)
	case OpGreaterThan:
		c.emitOp(OpCompareMoreThanI32)
	case OpGreaterEqual:
		c.emitOp(OpCompareMoreEqualThanI32)
	default:
		return &CompileError{Message: fmt.Sprintf("compiler: unsupported binary operator %s", b.Op), Span: b.Span()}
	}
	c.stackSize += binaryOperationStackDelta
	return nil
}

func (c *Compiler) compileAssignment(a *Assignment) error {
	if err := c.compileExpr(a.Value); err != nil {
		return err
	}
	typ := a.Target.ResolvedType
	if typ == nil {
		return &TypeError{Message: fmt.Sprintf("assignment to %q before its type is known", a.Target.Name), Span: a.Span()}
	}
	size := typ.GetSizeOnStack()
	c.emitOpU32(OpRepushN, uint32(size))
	c.stackSize += size
	c.declareVar(a.Target.Name, *typ)
	return nil
}

func (c *Compiler) compileScope(s *Scope) error {
	closeScope := c.enterScope()
	var lastSize int
	for i, expr := range s.Expressions {
		before := c.stackSize
		if err := c.compileExpr(expr); err != nil {
			return err
		}
		produced := c.stackSize - before
		if i < len(s.Expressions)-1 {
			c.currentFrame().bytesToPopOnExit += produced
		} else {
			lastSize = produced
		}
	}
	closeScope(lastSize)
	return nil
}

func (c *Compiler) compileIf(ifExpr *IfExpr) error {
	if err := c.compileExpr(ifExpr.Condition); err != nil {
		return err
	}
	c.stackSize -= 8 // condition slot consumed by JUMP_IF_FALSE
	elsePatch := c.ip()
	c.emitOpU32(OpJumpIfFalse, 0)

	startStack := c.stackSize
	if err := c.compileScope(ifExpr.Then); err != nil {
		return err
	}
	thenStack := c.stackSize
	endPatch := c.ip()
	c.emitOpU32(OpJump, 0)

	elseTarget := c.ip()
	c.patchU32(elsePatch+1, uint32(elseTarget))
	c.stackSize = startStack
	if ifExpr.Else != nil {
		if err := c.compileExpr(ifExpr.Else); err != nil {
			return err
		}
	}
	if c.stackSize != thenStack {
		return &CompileError{Message: "if/else branches leave different stack heights", Span: ifExpr.Span()}
	}
	c.patchU32(endPatch+1, uint32(c.ip()))
	return nil
}

func (c *Compiler) patchU32(at int, v uint32) {
	tmp := encodeU32(nil, v)
	copy(c.code[at:at+4], tmp)
}

func (c *Compiler) compileCall(call *Call) error {
	if err := c.compileExpr(call.Callee); err != nil {
		return err
	}
	argBytes := 0
	for _, arg := range call.Args {
		before := c.stackSize
		if err := c.compileExpr(arg); err != nil {
			return err
		}
		argBytes += c.stackSize - before
	}
	c.emitOpU32(OpCall, uint32(argBytes))

	if call.ResolvedType == nil {
		return &CompileError{Message: "compiler: call's result type was never resolved; the type completer must run before compilation", Span: call.Span()}
	}
	returnSize := call.ResolvedType.GetSizeOnStack()
	c.stackSize += -(argBytes + 8) + returnSize
	return nil
}

func (c *Compiler) compileTuple(t *TupleCreation) error {
	for i := len(t.Elements) - 1; i >= 0; i-- {
		if err := c.compileExpr(t.Elements[i]); err != nil {
			return err
		}
	}
	return nil
}

// compileList lowers a list literal to a chain of GC-allocated cons cells
// (spec §4.F "Tuple/List construction ... possibly with GC-allocated heap
// cells for list cons"): each cell is an 8-byte next-pointer followed by
// one element, built tail-first so the null terminator sits under the
// last element's ALLOC_CONS. An empty list is just the null reference.
func (c *Compiler) compileList(l *ListCreation) error {
	if len(l.Elements) == 0 {
		c.emitPush8(0)
		return nil
	}

	c.emitPush8(0) // list tail: null terminator
	for i := len(l.Elements) - 1; i >= 0; i-- {
		before := c.stackSize
		if err := c.compileExpr(l.Elements[i]); err != nil {
			return err
		}
		elemSize := c.stackSize - before
		c.emitOpU32(OpAllocCons, uint32(elemSize))
		// ALLOC_CONS pops [next(8), elem(elemSize)] and pushes the new
		// cell's 8-byte address, which is exactly next iteration's next.
		c.stackSize -= elemSize
	}
	return nil
}
