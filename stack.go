package samal

import "encoding/binary"

// Stack is the VM's byte-addressable growable value stack (spec §3 "Value
// stack", §4.G/H): a mutable buffer of bytes with a logical size growing
// "upward". It is the tracing collector's sole root source. Grounded on
// original_source/samal_lib/include/samal_lib/VM.hpp's Stack class, with
// Go slice append-based growth standing in for the C++ manual
// realloc-and-double.
type Stack struct {
	buf []byte
}

func NewStack(initialCapacity int) *Stack {
	return &Stack{buf: make([]byte, 0, initialCapacity)}
}

func (s *Stack) Size() int { return len(s.buf) }

// Push appends bytes to the top of the stack. Capacity doubles on
// overflow via Go's append growth, matching spec §4.G/H's "capacity
// doubles on overflow".
func (s *Stack) Push(bytes []byte) {
	s.buf = append(s.buf, bytes...)
}

func (s *Stack) PushI64(v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	s.Push(buf[:])
}

func (s *Stack) PushI32(v int32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	s.Push(buf[:])
}

// Pop removes and returns the top n bytes.
func (s *Stack) Pop(n int) []byte {
	if n > len(s.buf) {
		panic("samal: stack underflow on pop")
	}
	top := len(s.buf) - n
	out := append([]byte(nil), s.buf[top:]...)
	s.buf = s.buf[:top]
	return out
}

// Repush duplicates the top n bytes found offsetFromTop bytes below the
// current top, onto the top (spec §4.G/H "repush").
func (s *Stack) Repush(offsetFromTop, n int) {
	start := len(s.buf) - offsetFromTop
	if start < 0 || start+n > len(s.buf) {
		panic("samal: repush out of range")
	}
	region := append([]byte(nil), s.buf[start:start+n]...)
	s.buf = append(s.buf, region...)
}

// PopBelow deletes the n bytes located offsetFromTop bytes below the
// current top, preserving the top offsetFromTop bytes in place (spec
// §4.G/H "pop_below").
func (s *Stack) PopBelow(offsetFromTop, n int) {
	total := len(s.buf)
	top := total - offsetFromTop
	below := top - n
	if below < 0 || top > total {
		panic("samal: pop_below out of range")
	}
	copy(s.buf[below:below+offsetFromTop], s.buf[top:total])
	s.buf = s.buf[:below+offsetFromTop]
}

// Get is a typed read at a byte offset from the bottom of the stack.
func (s *Stack) Get(offset, n int) []byte {
	if offset < 0 || offset+n > len(s.buf) {
		panic("samal: stack read out of range")
	}
	return s.buf[offset : offset+n]
}

func (s *Stack) GetI64(offset int) int64 {
	return int64(binary.LittleEndian.Uint64(s.Get(offset, 8)))
}

func (s *Stack) GetI32(offset int) int32 {
	return int32(binary.LittleEndian.Uint32(s.Get(offset, 4)))
}

// TopI64 reads the 8-byte slot offsetFromTop bytes below the current top.
func (s *Stack) TopI64(offsetFromTop int) int64 {
	return s.GetI64(len(s.buf) - offsetFromTop)
}

func (s *Stack) SetI64(offset int, v int64) {
	binary.LittleEndian.PutUint64(s.buf[offset:offset+8], uint64(v))
}

// Bytes exposes the live region for the GC's root walk (spec §4.J). The
// returned slice is only valid until the next Push that may reallocate
// the backing array (spec §5 resource discipline).
func (s *Stack) Bytes() []byte { return s.buf }
