package samal

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config is a typed settings map, adapted from the teacher's cfgVal
// pattern: every value knows its own declared type and panics on a
// type-mismatched access rather than silently zero-valuing it. It backs
// the grammar compiler's settings (Component D).
type Config map[string]*cfgVal

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_Int
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_Int:       "int",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (c Config) SetBool(path string, v bool) {
	c[path] = &cfgVal{}
	c[path].assignType(cfgValType_Bool)
	c[path].asBool = v
}

func (c Config) SetInt(path string, v int) {
	c[path] = &cfgVal{}
	c[path].assignType(cfgValType_Int)
	c[path].asInt = v
}

func (c Config) SetString(path string, v string) {
	c[path] = &cfgVal{}
	c[path].assignType(cfgValType_String)
	c[path].asString = v
}

func (c Config) GetBool(path string) bool {
	if val, ok := c[path]; ok {
		val.checkType(cfgValType_Bool)
		return val.asBool
	}
	panic(fmt.Sprintf("bool setting `%s` does not exist", path))
}

func (c Config) GetInt(path string) int {
	if val, ok := c[path]; ok {
		val.checkType(cfgValType_Int)
		return val.asInt
	}
	panic(fmt.Sprintf("int setting `%s` does not exist", path))
}

func (c Config) GetString(path string) string {
	if val, ok := c[path]; ok {
		val.checkType(cfgValType_String)
		return val.asString
	}
	panic(fmt.Sprintf("string setting `%s` does not exist", path))
}

// NewGrammarConfig primes a set of grammar settings. The grammar compiler
// (Component D) stores the Config it is given, but neither it nor the PEG
// evaluator (Component C) reads these keys.
func NewGrammarConfig() Config {
	c := make(Config)
	c.SetBool("grammar.add_builtins", true)
	c.SetBool("grammar.capture_spaces", true)
	c.SetBool("grammar.handle_spaces", true)
	return c
}

// VMParameters controls GC aggressiveness per spec §6: InitialHeapSize sizes
// each of the two semispaces in bytes; FunctionsCallsPerGCRun is the number
// of function calls the GC lets pass before it runs a collection cycle.
type VMParameters struct {
	InitialHeapSize        int
	FunctionsCallsPerGCRun int
}

// DefaultVMParameters mirrors the defaults baked into the original VM
// construction: a modest starting heap, collecting roughly every hundred
// calls.
func DefaultVMParameters() VMParameters {
	return VMParameters{
		InitialHeapSize:        1 << 20,
		FunctionsCallsPerGCRun: 100,
	}
}

// vmParametersSchemaJSON validates a loaded VMParameters document before
// it's unmarshalled, the way opal-lang-opal's config loader validates its
// own settings files against a JSON Schema.
const vmParametersSchemaJSON = `{
	"type": "object",
	"properties": {
		"initial_heap_size": {"type": "integer", "minimum": 1},
		"functions_calls_per_gc_run": {"type": "integer", "minimum": 1}
	},
	"required": ["initial_heap_size", "functions_calls_per_gc_run"],
	"additionalProperties": false
}`

// LoadVMParameters reads a JSON configuration document, validates it
// against the VMParameters schema, and returns the typed settings.
func LoadVMParameters(r io.Reader) (VMParameters, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return VMParameters{}, fmt.Errorf("reading vm parameters: %w", err)
	}

	schema, err := jsonschema.CompileString("vmparameters.json", vmParametersSchemaJSON)
	if err != nil {
		return VMParameters{}, fmt.Errorf("compiling vm parameters schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return VMParameters{}, fmt.Errorf("parsing vm parameters: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return VMParameters{}, fmt.Errorf("invalid vm parameters: %w", err)
	}

	var wire struct {
		InitialHeapSize        int `json:"initial_heap_size"`
		FunctionsCallsPerGCRun int `json:"functions_calls_per_gc_run"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return VMParameters{}, fmt.Errorf("decoding vm parameters: %w", err)
	}
	return VMParameters{
		InitialHeapSize:        wire.InitialHeapSize,
		FunctionsCallsPerGCRun: wire.FunctionsCallsPerGCRun,
	}, nil
}
