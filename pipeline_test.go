package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSourceIdentityScenario(t *testing.T) {
	result, err := RunSource([]byte(`fn a(n: i32) -> i32 { n }`), "a", EncodeI64Arg(nil, 5), DefaultVMParameters())
	require.NoError(t, err)
	assert.Equal(t, int64(5), DecodeI64Result(result))
}

func TestRunSourceFibonacciScenario(t *testing.T) {
	src := `
		fn fib(n: i32) -> i32 {
			if n < 2 {
				n
			} else {
				fib(n - 1) + fib(n - 2)
			}
		}
	`
	result, err := RunSource([]byte(src), "fib", EncodeI64Arg(nil, 10), DefaultVMParameters())
	require.NoError(t, err)
	assert.Equal(t, int64(55), DecodeI64Result(result))
}

func TestCompileSourceRejectsTypeMismatch(t *testing.T) {
	_, err := CompileSource([]byte(`fn a(n: i32) -> bool { n }`), NewPipelineConfig())
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestCompileSourceSkipsTypecheckWhenDisabled(t *testing.T) {
	cfg := NewPipelineConfig()
	cfg.SetBool("pipeline.typecheck", false)

	// A call whose type the completer never resolves reaches the compiler
	// unresolved; without type-checking, compilation must surface that as
	// a compile error rather than a silent miscompile.
	_, err := CompileSource([]byte(`
		fn b(n: i32) -> i32 { n }
		fn caller() -> i32 { b(5) }
	`), cfg)
	require.Error(t, err)
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
}

func TestCompileSourcePropagatesParseError(t *testing.T) {
	_, err := CompileSource([]byte(`fn a(`), NewPipelineConfig())
	require.Error(t, err)
}
