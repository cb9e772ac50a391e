package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSrc(t *testing.T, src string) *Program {
	t.Helper()
	mod := mustParse(t, src)
	require.NoError(t, NewTypeCompleter().CheckModule(mod))
	program, err := NewCompiler().CompileModule(mod)
	require.NoError(t, err)
	return program
}

func TestCompilerIdentityFunction(t *testing.T) {
	program := compileSrc(t, `fn a(n: i32) -> i32 { n }`)
	fn, ok := program.Functions["a"]
	require.True(t, ok)
	assert.Equal(t, 8, fn.ReturnTypeSize)
	assert.NotEmpty(t, program.Code)
}

func TestCompilerRejectsDuplicateFunction(t *testing.T) {
	mod := mustParse(t, `
		fn a(n: i32) -> i32 { n }
		fn a(m: i32) -> i32 { m }
	`)
	_, err := NewCompiler().CompileModule(mod)
	require.Error(t, err)
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
}

func TestCompilerEmptyTypedListCompiles(t *testing.T) {
	program := compileSrc(t, `fn empties() -> i32 { [:i32]; 0 }`)
	fn, ok := program.Functions["empties"]
	require.True(t, ok)
	assert.Equal(t, 8, fn.ReturnTypeSize)
}

func TestCompilerNonEmptyListLiteralCompiles(t *testing.T) {
	program := compileSrc(t, `fn withList() -> i32 { [1, 2, 3]; 0 }`)
	fn, ok := program.Functions["withList"]
	require.True(t, ok)
	assert.Equal(t, 8, fn.ReturnTypeSize)
	assert.Contains(t, program.Disassemble(), "ALLOC_CONS")
}

func TestCompilerIfExprBalancedStack(t *testing.T) {
	program := compileSrc(t, `fn choose(n: i32) -> i32 { if n < 5 { 1 } else { 2 } }`)
	fn, ok := program.Functions["choose"]
	require.True(t, ok)
	assert.Equal(t, 8, fn.ReturnTypeSize)
}
