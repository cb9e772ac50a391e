package samal

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Memory abstracts a byte-addressable source an ExternalValue can be
// unwrapped from: either the VM's value Stack or the GC's active heap
// region. Lists and structs hold a raw pointer into one of these and are
// only walked lazily, on Dump/ToStackValue, mirroring
// ExternalVMValue::wrapFromPtr's std::variant<int32_t,int64_t,...> laziness.
type Memory interface {
	ReadAt(offset, n int) []byte
}

// ExternalValue marshals host-side values in and out of the VM's byte
// layout (spec §3 "Program" data flow, §4.K). Resolved Open Question 3:
// native function calls are marshalled through this same wrapper used for
// host round-tripping, rather than a bespoke native-call path.
type ExternalValue struct {
	Type Datatype

	i32   int32
	i64   int64
	tuple []ExternalValue
	// ptr holds the raw address for list/struct values (pointer into a
	// Memory), kept unresolved until Dump or ToStackValue walks it.
	ptr int
	mem Memory
}

func WrapInt32(v int32) ExternalValue {
	return ExternalValue{Type: NewPrimitive(CategoryI32), i32: v}
}

func WrapInt64(v int64) ExternalValue {
	return ExternalValue{Type: NewPrimitive(CategoryI64), i64: v}
}

func WrapEmptyTuple() ExternalValue {
	return ExternalValue{Type: EmptyTupleType(), tuple: nil}
}

func WrapTuple(typ Datatype, elems []ExternalValue) ExternalValue {
	return ExternalValue{Type: typ, tuple: elems}
}

// WrapFromPtr reads a value of the given type out of mem at ptr,
// following the original's per-category switch (including the tuple
// field-reversal dance: fields are read in reverse declaration order
// because they are laid out back-to-front on the stack, then the result
// slice is reversed back to declaration order before returning).
func WrapFromPtr(typ Datatype, mem Memory, ptr int) (ExternalValue, error) {
	switch typ.Category() {
	case CategoryI32:
		return WrapInt32(int32(binary.LittleEndian.Uint32(mem.ReadAt(ptr, 4)))), nil
	case CategoryI64, CategoryFunction:
		v := int64(binary.LittleEndian.Uint64(mem.ReadAt(ptr, 8)))
		return ExternalValue{Type: typ, i64: v}, nil
	case CategoryTuple:
		fields := typ.TupleInfo()
		reversed := make([]Datatype, len(fields))
		for i, f := range fields {
			reversed[len(fields)-1-i] = f
		}
		children := make([]ExternalValue, 0, len(reversed))
		offset := ptr
		for _, childType := range reversed {
			child, err := WrapFromPtr(childType, mem, offset)
			if err != nil {
				return ExternalValue{}, err
			}
			children = append(children, child)
			offset += childType.GetSizeOnStack()
		}
		for i, j := 0, len(children)-1; i < j; i, j = i+1, j-1 {
			children[i], children[j] = children[j], children[i]
		}
		return ExternalValue{Type: typ, tuple: children}, nil
	case CategoryStruct, CategoryList:
		addr := int(binary.LittleEndian.Uint64(mem.ReadAt(ptr, 8)))
		return ExternalValue{Type: typ, ptr: addr, mem: mem}, nil
	case CategoryUndeterminedIdentifier:
		return ExternalValue{}, fmt.Errorf("external_value: cannot wrap undetermined identifier %q without a template environment", typ.UndeterminedIdentifierInfo())
	default:
		return ExternalValue{}, fmt.Errorf("external_value: unsupported category %v", typ.Category())
	}
}

// ToStackValue is the inverse of Stack.Push for this value: the flattened
// byte layout the compiler expects on the value stack.
func (v ExternalValue) ToStackValue() []byte {
	switch v.Type.Category() {
	case CategoryI32:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint32(buf[:4], uint32(v.i32))
		return buf
	case CategoryI64, CategoryFunction:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(v.i64))
		return buf
	case CategoryTuple:
		var out []byte
		for i := len(v.tuple) - 1; i >= 0; i-- {
			out = append(out, v.tuple[i].ToStackValue()...)
		}
		return out
	case CategoryStruct, CategoryList:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(v.ptr))
		return buf
	default:
		panic(fmt.Sprintf("external_value: ToStackValue unsupported for %v", v.Type.Category()))
	}
}

func (v ExternalValue) Dump() string {
	switch v.Type.Category() {
	case CategoryI32:
		return strconv.FormatInt(int64(v.i32), 10)
	case CategoryI64:
		return strconv.FormatInt(v.i64, 10)
	case CategoryFunction:
		return fmt.Sprintf("%x", v.i64)
	case CategoryTuple:
		parts := make([]string, len(v.tuple))
		for i, c := range v.tuple {
			parts[i] = c.Dump()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case CategoryList:
		var parts []string
		cur := v.ptr
		for cur != 0 {
			elemType := v.Type.ListInfo()
			elem, err := WrapFromPtr(elemType, v.mem, cur+8)
			if err != nil {
				parts = append(parts, fmt.Sprintf("<error: %v>", err))
				break
			}
			parts = append(parts, elem.Dump())
			next := int(binary.LittleEndian.Uint64(v.mem.ReadAt(cur, 8)))
			cur = next
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case CategoryStruct:
		info := v.Type.StructInfo()
		var parts []string
		ptr := v.ptr
		for _, el := range info.Elements {
			elemType := el.resolve()
			elemVal, err := WrapFromPtr(elemType, v.mem, ptr)
			if err != nil {
				parts = append(parts, fmt.Sprintf("%s: <error: %v>", el.Name, err))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", el.Name, elemVal.Dump()))
			ptr += elemVal.Type.GetSizeOnStack()
		}
		return info.Name + "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<unknown>"
	}
}
