package samal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeWidthAndString(t *testing.T) {
	assert.Equal(t, "PUSH_4", OpPush4.String())
	assert.Equal(t, 5, OpPush4.Width())
	assert.Equal(t, 1, OpAddI32.Width())
	assert.Equal(t, "OP<255>", Opcode(255).String())
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	code := encodeU32(nil, 0xdeadbeef)
	require.Len(t, code, 4)
	assert.Equal(t, uint32(0xdeadbeef), decodeU32(code, 0))

	code64 := encodeI64(nil, -7)
	require.Len(t, code64, 8)
	assert.Equal(t, int64(-7), decodeI64(code64, 0))
}

func TestProgramSortedFunctionNames(t *testing.T) {
	p := NewProgram()
	p.Functions["zeta"] = &FunctionEntry{Name: "zeta"}
	p.Functions["alpha"] = &FunctionEntry{Name: "alpha"}
	p.Functions["mid"] = &FunctionEntry{Name: "mid"}

	want := []string{"alpha", "mid", "zeta"}
	if diff := cmp.Diff(want, p.sortedFunctionNames()); diff != "" {
		t.Errorf("sortedFunctionNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramDisassemble(t *testing.T) {
	p := NewProgram()
	p.Code = encodeU32([]byte{byte(OpPush4)}, 5)
	p.Code = append(p.Code, byte(OpReturn))
	p.Code = encodeU32(p.Code, 8)
	p.Functions["main"] = &FunctionEntry{Name: "main", Offset: 0, Length: len(p.Code)}

	out := p.Disassemble()
	assert.Contains(t, out, "main:")
	assert.Contains(t, out, "PUSH_4 5")
	assert.Contains(t, out, "RETURN 8")
}
