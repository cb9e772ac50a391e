package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModuleSimpleFunction(t *testing.T) {
	mod, err := ParseModule([]byte(`fn a(n: i32) -> i32 { n }`))
	require.Nil(t, err)
	require.Len(t, mod.Functions, 1)

	fn := mod.Functions[0]
	assert.Equal(t, "a", fn.Name)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "n", fn.Params[0].Name)
	assert.True(t, fn.Params[0].Type.Equal(NewPrimitive(CategoryI32)))
	assert.True(t, fn.ReturnType.Equal(NewPrimitive(CategoryI32)))

	body := fn.Body.(*Scope)
	require.Len(t, body.Expressions, 1)
	ident, ok := body.Expressions[0].(*Identifier)
	require.True(t, ok)
	assert.Equal(t, "n", ident.Name)
}

func TestParseModuleTwoFunctions(t *testing.T) {
	mod, err := ParseModule([]byte(`
		fn fib(n: i32) -> i32 {
			if n < 2 { n } else { fib(n - 1) + fib(n - 2) }
		}
		fn main() -> i32 { fib(10) }
	`))
	require.Nil(t, err)
	require.Len(t, mod.Functions, 2)
	assert.Equal(t, "fib", mod.Functions[0].Name)
	assert.Equal(t, "main", mod.Functions[1].Name)
}

func TestParseCallWithArgument(t *testing.T) {
	mod, err := ParseModule([]byte(`
		fn makeAdder(n: i32) -> i32 { n }
		fn caller() -> i32 { makeAdder(5) }
	`))
	require.Nil(t, err)
	fn := mod.Functions[1]
	body := fn.Body.(*Scope)
	call, ok := body.Expressions[0].(*Call)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	lit, ok := call.Args[0].(*LiteralInt)
	require.True(t, ok)
	assert.Equal(t, int64(5), lit.Value)
}

func TestParseIntLiteralSuffix(t *testing.T) {
	mod, err := ParseModule([]byte(`fn a() -> i64 { 5_i64 }`))
	require.Nil(t, err)
	body := mod.Functions[0].Body.(*Scope)
	lit := body.Expressions[0].(*LiteralInt)
	assert.Equal(t, int64(5), lit.Value)
	assert.Equal(t, "i64", lit.Suffix)
}

func TestParseEmptyTypedList(t *testing.T) {
	mod, err := ParseModule([]byte(`fn a() -> i32 { [:i32]; 0 }`))
	require.Nil(t, err)
	body := mod.Functions[0].Body.(*Scope)
	list, ok := body.Expressions[0].(*ListCreation)
	require.True(t, ok)
	require.NotNil(t, list.ElementType)
	assert.True(t, list.ElementType.Equal(NewPrimitive(CategoryI32)))
}

func TestParseModuleRejectsMalformedSource(t *testing.T) {
	_, err := ParseModule([]byte(`fn a(`))
	require.NotNil(t, err)
}

func TestParseIfElseIfChain(t *testing.T) {
	mod, err := ParseModule([]byte(`
		fn classify(n: i32) -> i32 {
			if n < 0 { 0 } else if n < 10 { 1 } else { 2 }
		}
	`))
	require.Nil(t, err)
	body := mod.Functions[0].Body.(*Scope)
	ifExpr, ok := body.Expressions[0].(*IfExpr)
	require.True(t, ok)
	elseIf, ok := ifExpr.Else.(*IfExpr)
	require.True(t, ok)
	_, ok = elseIf.Else.(*Scope)
	require.True(t, ok)
}
