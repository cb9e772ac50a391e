package samal

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/samal-lang/samal/ascii"
)

// Opcode is the one-byte instruction tag (spec §4.I, §6 "Bytecode format").
type Opcode byte

const (
	OpPush4 Opcode = iota
	OpPush8
	OpPopNBelow
	OpAddI32
	OpSubI32
	OpCompareLessThanI32
	OpCompareLessEqualThanI32
	OpCompareMoreThanI32
	OpCompareMoreEqualThanI32
	OpRepushN
	OpRepushFromN
	OpJump
	OpJumpIfFalse
	OpCall
	OpReturn
	OpAllocCons
)

var opcodeNames = map[Opcode]string{
	OpPush4:                   "PUSH_4",
	OpPush8:                   "PUSH_8",
	OpPopNBelow:               "POP_N_BELOW",
	OpAddI32:                  "ADD_I32",
	OpSubI32:                  "SUB_I32",
	OpCompareLessThanI32:      "COMPARE_LESS_THAN_I32",
	OpCompareLessEqualThanI32: "COMPARE_LESS_EQUAL_THAN_I32",
	OpCompareMoreThanI32:      "COMPARE_MORE_THAN_I32",
	OpCompareMoreEqualThanI32: "COMPARE_MORE_EQUAL_THAN_I32",
	OpRepushN:                 "REPUSH_N",
	OpRepushFromN:             "REPUSH_FROM_N",
	OpJump:                    "JUMP",
	OpJumpIfFalse:             "JUMP_IF_FALSE",
	OpCall:                    "CALL",
	OpReturn:                  "RETURN",
	OpAllocCons:               "ALLOC_CONS",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP<%d>", byte(op))
}

// opcodeWidth is the total instruction width in bytes (opcode byte plus
// operands), per spec §4.I's instruction table.
var opcodeWidth = map[Opcode]int{
	OpPush4:                   5,
	OpPush8:                   9,
	OpPopNBelow:               9,
	OpAddI32:                  1,
	OpSubI32:                  1,
	OpCompareLessThanI32:      1,
	OpCompareLessEqualThanI32: 1,
	OpCompareMoreThanI32:      1,
	OpCompareMoreEqualThanI32: 1,
	OpRepushN:                 5,
	OpRepushFromN:             9,
	OpJump:                    5,
	OpJumpIfFalse:             5,
	OpCall:                    5,
	OpReturn:                  5,
	OpAllocCons:               5,
}

func (op Opcode) Width() int { return opcodeWidth[op] }

// encode helpers: little-endian 32-bit immediates (spec §6 "Bytecode
// format"), appended byte-by-byte in the teacher's vm_encoder.go style.
func encodeU32(code []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(code, buf[:]...)
}

func encodeI64(code []byte, v int64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return append(code, buf[:]...)
}

func decodeU32(code []byte, at int) uint32 {
	return binary.LittleEndian.Uint32(code[at : at+4])
}

func decodeI64(code []byte, at int) int64 {
	return int64(binary.LittleEndian.Uint64(code[at : at+8]))
}

// FunctionEntry describes one compiled function's placement in the code
// region (spec §3 "Program" / §6 "function table").
type FunctionEntry struct {
	Name             string
	Offset           int
	Length           int
	ReturnTypeSize   int
	TemplateBindings map[string]Datatype // nil for non-generic functions
	NativeDescriptor *NativeFunction      // non-nil if this entry is a host-native function
	StackInfo        *StackInfoNode       // root of this function's stack information tree (spec §4.J)
}

// NativeFunction describes a function implemented on the host instead of
// in bytecode (spec §4.K / §9 native calling convention, resolved Open
// Question 3: native calls are marshalled through the same external-value
// wrapper used for host round-tripping).
type NativeFunction struct {
	Name   string
	Params []Datatype
	Return Datatype
	Fn     func(args []ExternalValue) (ExternalValue, error)
}

// Program is the immutable compiled unit (spec §3 "Program"): one
// contiguous code array, a function table, an auxiliary type table (used
// by the GC to identify lambda capture layouts), and native descriptors.
type Program struct {
	Code           []byte
	Functions      map[string]*FunctionEntry
	AuxiliaryTypes []Datatype
	Natives        []*NativeFunction
}

func NewProgram() *Program {
	return &Program{Functions: map[string]*FunctionEntry{}}
}

// sortedFunctionNames gives every compiled function a stable ordinal
// (its position in name-sorted order), used to assign and resolve plain
// tagged function-ids (spec glossary "Tagged function reference").
func (p *Program) sortedFunctionNames() []string {
	names := make([]string, 0, len(p.Functions))
	for name := range p.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Disassemble renders the code region as a flat instruction listing,
// grounded on the original's Compiler.cpp Program::disassemble() text
// layout and the teacher's PrettyString/HighlightPrettyString split.
func (p *Program) Disassemble() string {
	return p.disassemble(false)
}

func (p *Program) HighlightDisassemble() string {
	return p.disassemble(true)
}

func (p *Program) disassemble(colored bool) string {
	var b strings.Builder
	offsetToFunc := map[int]string{}
	for name, fn := range p.Functions {
		offsetToFunc[fn.Offset] = name
	}
	ip := 0
	for ip < len(p.Code) {
		if name, ok := offsetToFunc[ip]; ok {
			header := fmt.Sprintf("%s:", name)
			if colored {
				header = ascii.Color(ascii.Bold, "%s", header)
			}
			b.WriteString(header)
			b.WriteString("\n")
		}
		op := Opcode(p.Code[ip])
		width := op.Width()
		if width == 0 {
			width = 1
		}
		line := p.disassembleOne(ip, op)
		if colored {
			line = ascii.Color(ascii.DefaultTheme.Accent, "%s", line)
		}
		fmt.Fprintf(&b, "  %04x  %s\n", ip, line)
		ip += width
	}
	return b.String()
}

func (p *Program) disassembleOne(ip int, op Opcode) string {
	switch op {
	case OpPush4:
		return fmt.Sprintf("%s %d", op, decodeU32(p.Code, ip+1))
	case OpPush8:
		return fmt.Sprintf("%s %d", op, decodeI64(p.Code, ip+1))
	case OpPopNBelow:
		return fmt.Sprintf("%s %d %d", op, decodeU32(p.Code, ip+1), decodeU32(p.Code, ip+5))
	case OpRepushN:
		return fmt.Sprintf("%s %d", op, decodeU32(p.Code, ip+1))
	case OpRepushFromN:
		return fmt.Sprintf("%s %d %d", op, decodeU32(p.Code, ip+1), decodeU32(p.Code, ip+5))
	case OpJump, OpJumpIfFalse:
		return fmt.Sprintf("%s %d", op, decodeU32(p.Code, ip+1))
	case OpCall:
		return fmt.Sprintf("%s %d", op, decodeU32(p.Code, ip+1))
	case OpReturn:
		return fmt.Sprintf("%s %d", op, decodeU32(p.Code, ip+1))
	case OpAllocCons:
		return fmt.Sprintf("%s %d", op, decodeU32(p.Code, ip+1))
	default:
		return op.String()
	}
}
