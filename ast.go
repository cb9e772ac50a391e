package samal

// Node is the samal-language AST tagged variant (spec §6 "Language
// surface", §9 "Tagged variants"). Every concrete shape below implements
// it; the compiler and type completer dispatch on it with exhaustive type
// switches, never open-ended interface-method overrides.
type Node interface {
	Span() Span
	astNode()
}

type baseNode struct{ span Span }

func (b baseNode) Span() Span { return b.span }
func (baseNode) astNode()     {}

// Parameter is a `name: type` pair in a function signature or lambda.
type Parameter struct {
	baseNode
	Name string
	Type Datatype
}

func NewParameter(span Span, name string, typ Datatype) Parameter {
	return Parameter{baseNode: baseNode{span}, Name: name, Type: typ}
}

// FunctionDecl is `fn name(p: T, ...) -> R { body }` (spec §6).
type FunctionDecl struct {
	baseNode
	Name       string
	Params     []Parameter
	ReturnType Datatype
	Body       Node // *Scope
}

func NewFunctionDecl(span Span, name string, params []Parameter, ret Datatype, body Node) *FunctionDecl {
	return &FunctionDecl{baseNode: baseNode{span}, Name: name, Params: params, ReturnType: ret, Body: body}
}

// Identifier references a name, optionally qualified by module (spec §6
// "identifiers (optionally qualified by module name)").
type Identifier struct {
	baseNode
	Module string // "" if unqualified
	Name   string
	// ResolvedType is filled in by the type completer (Component E); nil
	// before type-checking runs.
	ResolvedType *Datatype
}

func NewIdentifier(span Span, module, name string) *Identifier {
	return &Identifier{baseNode: baseNode{span}, Module: module, Name: name}
}

func (i *Identifier) QualifiedName() string {
	if i.Module == "" {
		return i.Name
	}
	return i.Module + "::" + i.Name
}

// BinaryOperator enumerates spec §6's operator set.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual
)

var binaryOperatorSymbols = map[BinaryOperator]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpAnd: "&&", OpOr: "||",
	OpEqual: "==", OpNotEqual: "!=",
	OpLessThan: "<", OpLessEqual: "<=",
	OpGreaterThan: ">", OpGreaterEqual: ">=",
}

func (op BinaryOperator) String() string { return binaryOperatorSymbols[op] }

// BinaryExpr is `left op right` (spec §6).
type BinaryExpr struct {
	baseNode
	Op    BinaryOperator
	Left  Node
	Right Node
}

func NewBinaryExpr(span Span, op BinaryOperator, left, right Node) *BinaryExpr {
	return &BinaryExpr{baseNode: baseNode{span}, Op: op, Left: left, Right: right}
}

// LiteralInt is an integer literal (spec §6 "literals (integers)"). Suffix
// records the `_i64` style type suffix used in the test scenarios (spec §8
// scenario 1: "5_i64"); empty means the default i32.
type LiteralInt struct {
	baseNode
	Value  int64
	Suffix string
}

func NewLiteralInt(span Span, value int64, suffix string) *LiteralInt {
	return &LiteralInt{baseNode: baseNode{span}, Value: value, Suffix: suffix}
}

func (l *LiteralInt) Datatype() Datatype {
	if l.Suffix == "i64" {
		return NewPrimitive(CategoryI64)
	}
	return NewPrimitive(CategoryI32)
}

// Scope is `{ e1; ...; en }`; its value is the last expression's value
// (spec §6, §4.F "Scope").
type Scope struct {
	baseNode
	Expressions []Node
}

func NewScope(span Span, exprs []Node) *Scope {
	return &Scope{baseNode: baseNode{span}, Expressions: exprs}
}

// IfExpr is an `if/else if/else` chain (spec §6). Else is nil for a
// bodyless `if` (spec §8 scenario 6's "if true" parse-error case never
// reaches here — it fails earlier, in the PEG grammar).
type IfExpr struct {
	baseNode
	Condition Node
	Then      *Scope
	Else      Node // *Scope, *IfExpr (else-if chain), or nil
}

func NewIfExpr(span Span, cond Node, then *Scope, els Node) *IfExpr {
	return &IfExpr{baseNode: baseNode{span}, Condition: cond, Then: then, Else: els}
}

// Call is `f(args)` (spec §6); Callee may itself be a Call, modelling the
// chained-call scenario `b(5)(3)` (spec §8 scenario 5).
type Call struct {
	baseNode
	Callee Node
	Args   []Node
	// ResolvedType is the call's own result type, filled in by the type
	// completer (Component E) the same way Identifier.ResolvedType is;
	// the compiler reads it back to size CALL's return slot precisely,
	// including for chained calls where Callee is itself a *Call.
	ResolvedType *Datatype
}

func NewCall(span Span, callee Node, args []Node) *Call {
	return &Call{baseNode: baseNode{span}, Callee: callee, Args: args}
}

// TupleCreation is `(a, b)` (spec §6).
type TupleCreation struct {
	baseNode
	Elements []Node
}

func NewTupleCreation(span Span, elems []Node) *TupleCreation {
	return &TupleCreation{baseNode: baseNode{span}, Elements: elems}
}

// ListCreation is `[a, b]`, or the typed-empty form `[:T]` (spec §6); for
// the typed-empty form Elements is nil and ElementType is set.
type ListCreation struct {
	baseNode
	Elements    []Node
	ElementType *Datatype // set only for `[:T]`
}

func NewListCreation(span Span, elems []Node) *ListCreation {
	return &ListCreation{baseNode: baseNode{span}, Elements: elems}
}

func NewEmptyTypedList(span Span, elemType Datatype) *ListCreation {
	return &ListCreation{baseNode: baseNode{span}, ElementType: &elemType}
}

// Assignment is `x = e` (spec §6, §4.F).
type Assignment struct {
	baseNode
	Target *Identifier
	Value  Node
}

func NewAssignment(span Span, target *Identifier, value Node) *Assignment {
	return &Assignment{baseNode: baseNode{span}, Target: target, Value: value}
}

// Module is the top-level compilation unit: every function declaration
// parsed from one source file (spec §6).
type Module struct {
	baseNode
	Name      string
	Functions []*FunctionDecl
}

func NewModule(span Span, name string, fns []*FunctionDecl) *Module {
	return &Module{baseNode: baseNode{span}, Name: name, Functions: fns}
}
