package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteralIntDatatype(t *testing.T) {
	assert.Equal(t, NewPrimitive(CategoryI32), NewLiteralInt(Span{}, 5, "").Datatype())
	assert.Equal(t, NewPrimitive(CategoryI64), NewLiteralInt(Span{}, 5, "i64").Datatype())
}

func TestIdentifierQualifiedName(t *testing.T) {
	unqualified := NewIdentifier(Span{}, "", "foo")
	assert.Equal(t, "foo", unqualified.QualifiedName())

	qualified := NewIdentifier(Span{}, "math", "pi")
	assert.Equal(t, "math::pi", qualified.QualifiedName())
}

func TestBinaryOperatorString(t *testing.T) {
	assert.Equal(t, "+", OpAdd.String())
	assert.Equal(t, "<=", OpLessEqual.String())
	assert.Equal(t, "&&", OpAnd.String())
}

func TestCallResolvedTypeStartsNil(t *testing.T) {
	call := NewCall(Span{}, NewIdentifier(Span{}, "", "f"), nil)
	assert.Nil(t, call.ResolvedType)
}
