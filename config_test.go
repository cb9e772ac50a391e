package samal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetGetBool(t *testing.T) {
	c := make(Config)
	c.SetBool("pipeline.typecheck", true)
	assert.True(t, c.GetBool("pipeline.typecheck"))
}

func TestConfigGetBoolOnMissingKeyPanics(t *testing.T) {
	c := make(Config)
	assert.Panics(t, func() { c.GetBool("nope") })
}

func TestConfigGetWrongTypePanics(t *testing.T) {
	c := make(Config)
	c.SetInt("heap.size", 4)
	assert.Panics(t, func() { c.GetBool("heap.size") })
}

func TestDefaultVMParameters(t *testing.T) {
	params := DefaultVMParameters()
	assert.Greater(t, params.InitialHeapSize, 0)
	assert.Greater(t, params.FunctionsCallsPerGCRun, 0)
}

func TestLoadVMParameters(t *testing.T) {
	doc := `{"initial_heap_size": 2048, "functions_calls_per_gc_run": 50}`
	params, err := LoadVMParameters(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2048, params.InitialHeapSize)
	assert.Equal(t, 50, params.FunctionsCallsPerGCRun)
}

func TestLoadVMParametersRejectsInvalidDoc(t *testing.T) {
	doc := `{"initial_heap_size": -1, "functions_calls_per_gc_run": 50}`
	_, err := LoadVMParameters(strings.NewReader(doc))
	require.Error(t, err)
}
