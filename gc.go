package samal

import "encoding/binary"

// heapRegionShift partitions a heap address into (region-index, offset)
// halves: addresses are plain ints, not real pointers, since Go code
// cannot alias raw memory across GC moves the way the original C++ does.
// The low bits are the byte offset within whichever region/temporary
// buffer the high bits select (stored as region+1, so that no heap
// address is 0, the null list reference); this keeps "ptr + k" arithmetic,
// used throughout searchForPtrs below, as ordinary integer addition.
const heapRegionShift = 48
const heapOffsetMask = (1 << heapRegionShift) - 1

func encodeHeapAddr(region, offset int) int { return (region+1)<<heapRegionShift | offset }
func decodeHeapAddr(addr int) (region, offset int) {
	return addr>>heapRegionShift - 1, addr & heapOffsetMask
}

// gcRegion is one of the two equal-sized semispaces (spec §3 "GC region",
// §4.J): a contiguous byte buffer with a bump-allocation offset.
type gcRegion struct {
	buf    []byte
	offset int
}

func newGCRegion(size int) *gcRegion { return &gcRegion{buf: make([]byte, size)} }

// GC implements the two-semispace copying collector (spec §4.J), grounded
// directly on original_source/samal_lib/lib/GC.cpp.
type GC struct {
	vm                       *VM
	params                   VMParameters
	regions                  [2]*gcRegion
	activeRegion             int
	temporaries              [][]byte
	movedPointers            map[int]int
	functionCallsSinceLastRun int
}

func NewGC(vm *VM, params VMParameters) *GC {
	return &GC{
		vm:            vm,
		params:        params,
		regions:       [2]*gcRegion{newGCRegion(params.InitialHeapSize), newGCRegion(params.InitialHeapSize)},
		movedPointers: map[int]int{},
	}
}

func (g *GC) bufFor(region int) []byte {
	switch {
	case region == 0 || region == 1:
		return g.regions[region].buf
	default:
		return g.temporaries[region-2]
	}
}

// ReadAt implements Memory for ExternalValue unwrapping.
func (g *GC) ReadAt(addr, n int) []byte {
	region, offset := decodeHeapAddr(addr)
	buf := g.bufFor(region)
	return buf[offset : offset+n]
}

func (g *GC) writeAt(addr int, data []byte) {
	region, offset := decodeHeapAddr(addr)
	buf := g.bufFor(region)
	copy(buf[offset:offset+len(data)], data)
}

func (g *GC) readPtr(addr int) int {
	return int(int64(binary.LittleEndian.Uint64(g.ReadAt(addr, 8))))
}

func (g *GC) writePtr(addr int, v int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
	g.writeAt(addr, buf[:])
}

// Alloc bumps the active region's offset, or falls back to a tracked
// temporary allocation when the request would overflow it (spec §4.J
// "temporary allocations"). Sizes are rounded up to even so the low bit of
// every returned address stays available as a tag bit for lambda/function
// pointers (spec glossary "Tagged function reference").
func (g *GC) Alloc(size int) int {
	if size%2 == 1 {
		size++
	}
	active := g.regions[g.activeRegion]
	if active.offset+size > len(active.buf) {
		idx := len(g.temporaries)
		g.temporaries = append(g.temporaries, make([]byte, size))
		return encodeHeapAddr(2+idx, 0)
	}
	addr := encodeHeapAddr(g.activeRegion, active.offset)
	active.offset += size
	return addr
}

func (g *GC) otherRegionIndex() int { return 1 - g.activeRegion }

// RequestCollection increments the call counter and triggers a collection
// once it exceeds the configured threshold (spec §4.J "Collection trigger").
func (g *GC) RequestCollection() {
	g.functionCallsSinceLastRun++
	if g.functionCallsSinceLastRun > g.params.FunctionsCallsPerGCRun {
		g.PerformGarbageCollection()
		g.functionCallsSinceLastRun = 0
	}
}

// PerformGarbageCollection runs one Cheney-style copy cycle (spec §4.J
// "Collection algorithm").
func (g *GC) PerformGarbageCollection() {
	other := g.regions[g.otherRegionIndex()]
	other.offset = 0

	totalTemporarySize := 0
	for _, t := range g.temporaries {
		totalTemporarySize += len(t)
	}
	if len(g.temporaries) > 0 || len(other.buf) < len(g.regions[g.activeRegion].buf) {
		other.buf = make([]byte, len(g.regions[g.activeRegion].buf)+totalTemporarySize)
	}

	g.movedPointers = map[int]int{}
	for _, root := range g.vm.StackRoots() {
		g.searchForPtrs(root.Offset, root.Type)
	}

	g.activeRegion = g.otherRegionIndex()
	g.temporaries = nil
}

// copyToOther copies length bytes from ptr (in whatever region it
// currently lives in) to the top of the other region, records the
// old->new mapping, and returns the new address.
func (g *GC) copyToOther(ptr, length int) int {
	other := g.regions[g.otherRegionIndex()]
	newAddr := encodeHeapAddr(g.otherRegionIndex(), other.offset)
	copy(other.buf[other.offset:other.offset+length], g.ReadAt(ptr, length))
	other.offset += length
	g.movedPointers[ptr] = newAddr
	return newAddr
}

func (g *GC) findNewPtr(ptr int) (int, bool) {
	newPtr, ok := g.movedPointers[ptr]
	return newPtr, ok
}

// searchForPtrs dispatches on t's category and rewrites every heap
// pointer found within the slot at ptr to its new, post-collection
// location (spec §4.J step 4). ptr addresses a stack slot or a field
// inside an already-forwarded heap block; both use the same addressing.
func (g *GC) searchForPtrs(ptr int, t Datatype) {
	switch t.Category() {
	case CategoryI32, CategoryI64, CategoryF32, CategoryF64, CategoryChar, CategoryBool, CategoryByte:
		return
	case CategoryTuple:
		offset := t.GetSizeOnStack()
		for _, elem := range t.TupleInfo() {
			offset -= elem.GetSizeOnStack()
			g.searchForPtrs(ptr+offset, elem)
		}
	case CategoryList:
		current := ptr
		for {
			next := g.readPtr(current)
			if next == 0 {
				break
			}
			if newPtr, ok := g.findNewPtr(next); ok {
				g.writePtr(current, newPtr)
				break
			}
			elemType := t.ListInfo()
			g.searchForPtrs(next+8, elemType)
			newPtr := g.copyToOther(next, elemType.GetSizeOnStack()+8)
			g.writePtr(current, newPtr)
			current = newPtr
		}
	case CategoryFunction:
		tag := g.readPtr(ptr)
		if tag%2 == 0 {
			return // plain function-id, no heap reference
		}
		if newPtr, ok := g.findNewPtr(tag); ok {
			g.writePtr(ptr, newPtr)
			return
		}
		sizeOfLambda := int(int64(int32(binary.LittleEndian.Uint32(g.ReadAt(tag, 4))))) + 16
		capturedTypesID := int(int32(binary.LittleEndian.Uint32(g.ReadAt(tag+8, 4))))
		captureTuple := g.vm.program.AuxiliaryTypes[capturedTypesID]
		offset := sizeOfLambda
		for _, field := range captureTuple.TupleInfo() {
			offset -= field.GetSizeOnStack()
			g.searchForPtrs(tag+offset, field)
		}
		newPtr := g.copyToOther(tag, sizeOfLambda)
		g.writePtr(ptr, newPtr)
	case CategoryStruct:
		info := t.StructInfo()
		offset := t.GetSizeOnStack()
		for _, field := range info.Elements {
			fieldType := field.resolve()
			offset -= fieldType.GetSizeOnStack()
			g.searchForPtrs(ptr+offset, fieldType)
		}
	case CategoryEnum:
		info := t.StructInfo()
		selected := int(int64(binary.LittleEndian.Uint64(g.ReadAt(ptr, 8))))
		variant := info.Elements[selected]
		offset := t.GetSizeOnStack()
		fieldType := variant.resolve()
		offset -= fieldType.GetSizeOnStack()
		g.searchForPtrs(ptr+offset, fieldType)
	case CategoryPointer:
		inner := t.PointerInfo()
		target := g.readPtr(ptr)
		if newPtr, ok := g.findNewPtr(target); ok {
			g.writePtr(ptr, newPtr)
			return
		}
		g.searchForPtrs(target, inner)
		newPtr := g.copyToOther(target, inner.GetSizeOnStack())
		g.writePtr(ptr, newPtr)
	case CategoryUndeterminedIdentifier:
		panic("gc: cannot trace an unresolved undetermined_identifier root")
	}
}
