package samal

// CompileSource runs the full samal toolchain over one source file: parse,
// type-check, then compile to a Program (spec §4 "Pipeline", §8 end-to-end
// scenarios). Grounded on the teacher's api.go GrammarFromBytes/
// GrammarTransformations config-gated chaining, generalized from a
// grammar-only transform chain to the samal language's full
// source -> AST -> typed AST -> bytecode pipeline.
func CompileSource(source []byte, cfg Config) (*Program, error) {
	mod, perr := ParseModule(source)
	if perr != nil {
		return nil, perr
	}

	if cfg == nil || cfg.GetBool("pipeline.typecheck") {
		tc := NewTypeCompleter()
		if err := tc.CheckModule(mod); err != nil {
			return nil, err
		}
	}

	compiler := NewCompiler()
	program, err := compiler.CompileModule(mod)
	if err != nil {
		return nil, err
	}
	return program, nil
}

// NewPipelineConfig primes the settings CompileSource consults, the same
// shape as the teacher's NewGrammarConfig.
func NewPipelineConfig() Config {
	c := make(Config)
	c.SetBool("pipeline.typecheck", true)
	return c
}

// EncodeI64Arg appends v as a little-endian 8-byte stack slot, the layout
// RunSource's initialStackBytes argument expects per argument (spec §6 "VM
// invocation" argument layout, Open Question 1's uniform 8-byte slots).
func EncodeI64Arg(stackBytes []byte, v int64) []byte {
	return encodeI64(stackBytes, v)
}

// DecodeI64Result reads an 8-byte return value back into an int64, the
// inverse of EncodeI64Arg for a single-slot i32/i64 result.
func DecodeI64Result(result []byte) int64 {
	return decodeI64(result, 0)
}

// RunSource compiles source and immediately runs functionName against a
// fresh VM, the convenience entry point the end-to-end scenarios in spec §8
// exercise directly (e.g. compiling a two-function module and calling
// "fib" with an i32 argument).
func RunSource(source []byte, functionName string, args []byte, params VMParameters) ([]byte, error) {
	program, err := CompileSource(source, NewPipelineConfig())
	if err != nil {
		return nil, err
	}
	vm := NewVM(program, params)
	return vm.Run(functionName, args)
}
