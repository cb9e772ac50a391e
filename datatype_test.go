package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatatypeEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Datatype
		equal bool
	}{
		{"same primitive", NewPrimitive(CategoryI32), NewPrimitive(CategoryI32), true},
		{"different primitive", NewPrimitive(CategoryI32), NewPrimitive(CategoryI64), false},
		{"same tuple", NewTupleType(NewPrimitive(CategoryI32), NewPrimitive(CategoryBool)), NewTupleType(NewPrimitive(CategoryI32), NewPrimitive(CategoryBool)), true},
		{"different tuple arity", NewTupleType(NewPrimitive(CategoryI32)), NewTupleType(NewPrimitive(CategoryI32), NewPrimitive(CategoryI32)), false},
		{"same list", NewListType(NewPrimitive(CategoryI32)), NewListType(NewPrimitive(CategoryI32)), true},
		{"different list element", NewListType(NewPrimitive(CategoryI32)), NewListType(NewPrimitive(CategoryBool)), false},
		{"same function", NewFunctionType(NewPrimitive(CategoryI32), []Datatype{NewPrimitive(CategoryI32)}), NewFunctionType(NewPrimitive(CategoryI32), []Datatype{NewPrimitive(CategoryI32)}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestDatatypeGetSizeOnStack(t *testing.T) {
	assert.Equal(t, 8, NewPrimitive(CategoryI32).GetSizeOnStack())
	assert.Equal(t, 8, NewPrimitive(CategoryBool).GetSizeOnStack())
	assert.Equal(t, 16, NewTupleType(NewPrimitive(CategoryI32), NewPrimitive(CategoryI64)).GetSizeOnStack())
	assert.Equal(t, 0, EmptyTupleType().GetSizeOnStack())

	assert.Panics(t, func() {
		NewUndeterminedIdentifier("T").GetSizeOnStack()
	})
}

func TestDatatypeCompleteWithTemplateParameters(t *testing.T) {
	listOfT := NewListType(NewUndeterminedIdentifier("T"))
	completed := listOfT.CompleteWithTemplateParameters(map[string]Datatype{"T": NewPrimitive(CategoryI32)})
	require.Equal(t, CategoryList, completed.Category())
	assert.True(t, completed.ListInfo().Equal(NewPrimitive(CategoryI32)))
	assert.False(t, completed.HasUndeterminedTemplateTypes())
}

func TestDatatypeInferTemplateTypes(t *testing.T) {
	pattern := NewListType(NewUndeterminedIdentifier("T"))
	instance := NewListType(NewPrimitive(CategoryI32))

	out := map[string]Datatype{}
	require.NoError(t, pattern.InferTemplateTypes(instance, out))
	assert.True(t, out["T"].Equal(NewPrimitive(CategoryI32)))

	out2 := map[string]Datatype{"T": NewPrimitive(CategoryBool)}
	err := pattern.InferTemplateTypes(instance, out2)
	assert.Error(t, err)
}

func TestDatatypeString(t *testing.T) {
	assert.Equal(t, "i32", NewPrimitive(CategoryI32).String())
	assert.Equal(t, "[i32]", NewListType(NewPrimitive(CategoryI32)).String())
	assert.Equal(t, "(i32,bool)", NewTupleType(NewPrimitive(CategoryI32), NewPrimitive(CategoryBool)).String())
}
