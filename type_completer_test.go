package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Module {
	t.Helper()
	mod, err := ParseModule([]byte(src))
	require.Nil(t, err, "parse error: %v", err)
	return mod
}

func TestTypeCompleterAcceptsWellTypedModule(t *testing.T) {
	mod := mustParse(t, `fn a(n: i32) -> i32 { n }`)
	tc := NewTypeCompleter()
	require.NoError(t, tc.CheckModule(mod))

	body := mod.Functions[0].Body.(*Scope)
	ident := body.Expressions[0].(*Identifier)
	require.NotNil(t, ident.ResolvedType)
	assert.True(t, ident.ResolvedType.Equal(NewPrimitive(CategoryI32)))
}

func TestTypeCompleterRejectsRedefinition(t *testing.T) {
	mod := mustParse(t, `
		fn a(n: i32) -> i32 { n }
		fn a(m: i32) -> i32 { m }
	`)
	tc := NewTypeCompleter()
	err := tc.CheckModule(mod)
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Contains(t, typeErr.Message, "redefined")
}

func TestTypeCompleterRejectsMismatchedReturnType(t *testing.T) {
	mod := mustParse(t, `fn a(n: i32) -> bool { n }`)
	tc := NewTypeCompleter()
	err := tc.CheckModule(mod)
	require.Error(t, err)
}

func TestTypeCompleterRejectsUndefinedName(t *testing.T) {
	mod := mustParse(t, `fn a() -> i32 { missing }`)
	tc := NewTypeCompleter()
	err := tc.CheckModule(mod)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined name")
}

func TestTypeCompleterResolvesCallType(t *testing.T) {
	mod := mustParse(t, `
		fn makeAdder(n: i32) -> i32 { n }
		fn b(n: i32) -> i32 { n }
		fn caller() -> i32 { b(5) }
	`)
	tc := NewTypeCompleter()
	require.NoError(t, tc.CheckModule(mod))

	var caller *FunctionDecl
	for _, fn := range mod.Functions {
		if fn.Name == "caller" {
			caller = fn
		}
	}
	require.NotNil(t, caller)
	body := caller.Body.(*Scope)
	call := body.Expressions[0].(*Call)
	require.NotNil(t, call.ResolvedType)
	assert.True(t, call.ResolvedType.Equal(NewPrimitive(CategoryI32)))
}
