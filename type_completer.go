package samal

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// scopeEnv is a chain of name -> Datatype bindings, one per lexical scope,
// used by the type completer the same way Compiler's frames track stack
// offsets (spec §4.E type system walks the same scope shape as §4.F).
type scopeEnv struct {
	parent *scopeEnv
	vars   map[string]Datatype
}

func newScopeEnv(parent *scopeEnv) *scopeEnv {
	return &scopeEnv{parent: parent, vars: map[string]Datatype{}}
}

func (e *scopeEnv) lookup(name string) (Datatype, bool) {
	for s := e; s != nil; s = s.parent {
		if t, ok := s.vars[name]; ok {
			return t, true
		}
	}
	return Datatype{}, false
}

func (e *scopeEnv) declare(name string, t Datatype) { e.vars[name] = t }

// TypeCompleter walks the samal AST once per module, resolving every
// Identifier's ResolvedType and rejecting structurally inconsistent
// programs (spec §4.E, §7 "Type error ... thrown with source-position-
// tagged message"). Grounded on original_source's Datatype::
// completeWithTemplateParameters/inferTemplateTypes (datatype.go), applied
// over the AST the way a dedicated type-checking pass would.
type TypeCompleter struct {
	functions map[string]*FunctionDecl
	names     []string // every function name, for "did you mean" suggestions
}

func NewTypeCompleter() *TypeCompleter {
	return &TypeCompleter{functions: map[string]*FunctionDecl{}}
}

// CheckModule type-checks every function declaration, catching
// non-overrideable redefinitions before any bytecode is emitted (spec §8
// scenario 3).
func (tc *TypeCompleter) CheckModule(mod *Module) error {
	for _, fn := range mod.Functions {
		if existing, dup := tc.functions[fn.Name]; dup {
			return &TypeError{
				Message: fmt.Sprintf("function %q redefined (first declared with %d parameter(s), here with %d)", fn.Name, len(existing.Params), len(fn.Params)),
				Span:    fn.Span(),
			}
		}
		tc.functions[fn.Name] = fn
		tc.names = append(tc.names, fn.Name)
	}
	sort.Strings(tc.names)

	for _, fn := range mod.Functions {
		env := newScopeEnv(nil)
		for _, p := range fn.Params {
			env.declare(p.Name, p.Type)
		}
		got, err := tc.checkExpr(fn.Body, env)
		if err != nil {
			return err
		}
		if !got.Equal(fn.ReturnType) {
			return &TypeError{
				Message: fmt.Sprintf("function %q: body has type %s, declared return type is %s", fn.Name, got, fn.ReturnType),
				Span:    fn.Body.Span(),
			}
		}
	}
	return nil
}

// checkExpr returns node's inferred Datatype, filling in
// Identifier.ResolvedType as it goes.
func (tc *TypeCompleter) checkExpr(node Node, env *scopeEnv) (Datatype, error) {
	switch n := node.(type) {
	case *LiteralInt:
		return n.Datatype(), nil
	case *Identifier:
		return tc.checkIdentifier(n, env)
	case *BinaryExpr:
		return tc.checkBinaryExpr(n, env)
	case *Assignment:
		return tc.checkAssignment(n, env)
	case *Scope:
		return tc.checkScope(n, env)
	case *IfExpr:
		return tc.checkIf(n, env)
	case *Call:
		return tc.checkCall(n, env)
	case *TupleCreation:
		return tc.checkTuple(n, env)
	case *ListCreation:
		return tc.checkList(n, env)
	default:
		return Datatype{}, &TypeError{Message: fmt.Sprintf("type completer: unhandled AST node %T", node), Span: node.Span()}
	}
}

func (tc *TypeCompleter) checkIdentifier(id *Identifier, env *scopeEnv) (Datatype, error) {
	if t, ok := env.lookup(id.Name); ok {
		id.ResolvedType = &t
		return t, nil
	}
	if fn, ok := tc.functions[id.Name]; ok {
		params := make([]Datatype, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		t := NewFunctionType(fn.ReturnType, params)
		id.ResolvedType = &t
		return t, nil
	}
	return Datatype{}, tc.undefinedNameError(id, env)
}

// undefinedNameError builds a "did you mean" suggestion from every known
// function and in-scope local name, via fuzzy string matching (spec's
// Non-goals never exclude diagnostics quality; this is a supplemented
// ambient-stack feature, not part of spec.md's distilled scope).
func (tc *TypeCompleter) undefinedNameError(id *Identifier, env *scopeEnv) error {
	candidates := append([]string(nil), tc.names...)
	for s := env; s != nil; s = s.parent {
		for name := range s.vars {
			candidates = append(candidates, name)
		}
	}
	matches := fuzzy.RankFindFold(id.Name, candidates)
	sort.Sort(matches)
	msg := fmt.Sprintf("undefined name %q", id.Name)
	if len(matches) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", matches[0].Target)
	}
	return &TypeError{Message: msg, Span: id.Span(), Suggestion: firstOrEmpty(matches)}
}

func firstOrEmpty(matches fuzzy.Ranks) string {
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Target
}

func (tc *TypeCompleter) checkBinaryExpr(b *BinaryExpr, env *scopeEnv) (Datatype, error) {
	left, err := tc.checkExpr(b.Left, env)
	if err != nil {
		return Datatype{}, err
	}
	right, err := tc.checkExpr(b.Right, env)
	if err != nil {
		return Datatype{}, err
	}
	if !left.IsInteger() || !right.IsInteger() {
		return Datatype{}, &TypeError{
			Message: fmt.Sprintf("operator %s requires integer operands, got %s and %s", b.Op, left, right),
			Span:    b.Span(),
		}
	}
	if !left.Equal(right) {
		return Datatype{}, &TypeError{Message: fmt.Sprintf("operator %s: mismatched operand types %s and %s", b.Op, left, right), Span: b.Span()}
	}
	switch b.Op {
	case OpEqual, OpNotEqual, OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual, OpAnd, OpOr:
		return NewPrimitive(CategoryBool), nil
	default:
		return left, nil
	}
}

func (tc *TypeCompleter) checkAssignment(a *Assignment, env *scopeEnv) (Datatype, error) {
	t, err := tc.checkExpr(a.Value, env)
	if err != nil {
		return Datatype{}, err
	}
	a.Target.ResolvedType = &t
	env.declare(a.Target.Name, t)
	return t, nil
}

func (tc *TypeCompleter) checkScope(s *Scope, env *scopeEnv) (Datatype, error) {
	inner := newScopeEnv(env)
	var last Datatype
	if len(s.Expressions) == 0 {
		return EmptyTupleType(), nil
	}
	for _, expr := range s.Expressions {
		t, err := tc.checkExpr(expr, inner)
		if err != nil {
			return Datatype{}, err
		}
		last = t
	}
	return last, nil
}

func (tc *TypeCompleter) checkIf(ifExpr *IfExpr, env *scopeEnv) (Datatype, error) {
	cond, err := tc.checkExpr(ifExpr.Condition, env)
	if err != nil {
		return Datatype{}, err
	}
	if cond.Category() != CategoryBool {
		return Datatype{}, &TypeError{Message: fmt.Sprintf("if condition must be bool, got %s", cond), Span: ifExpr.Condition.Span()}
	}
	thenType, err := tc.checkScope(ifExpr.Then, env)
	if err != nil {
		return Datatype{}, err
	}
	if ifExpr.Else == nil {
		return thenType, nil
	}
	elseType, err := tc.checkExpr(ifExpr.Else, env)
	if err != nil {
		return Datatype{}, err
	}
	if !thenType.Equal(elseType) {
		return Datatype{}, &TypeError{Message: fmt.Sprintf("if/else branches disagree: %s vs %s", thenType, elseType), Span: ifExpr.Span()}
	}
	return thenType, nil
}

func (tc *TypeCompleter) checkCall(call *Call, env *scopeEnv) (Datatype, error) {
	calleeType, err := tc.checkExpr(call.Callee, env)
	if err != nil {
		return Datatype{}, err
	}
	if calleeType.Category() != CategoryFunction {
		return Datatype{}, &TypeError{Message: fmt.Sprintf("cannot call non-function type %s", calleeType), Span: call.Span()}
	}
	ret, params := calleeType.FunctionTypeInfo()
	if len(params) != len(call.Args) {
		return Datatype{}, &TypeError{Message: fmt.Sprintf("arity mismatch: expected %d argument(s), got %d", len(params), len(call.Args)), Span: call.Span()}
	}
	for i, arg := range call.Args {
		argType, err := tc.checkExpr(arg, env)
		if err != nil {
			return Datatype{}, err
		}
		if !argType.Equal(params[i]) {
			return Datatype{}, &TypeError{Message: fmt.Sprintf("argument %d: expected %s, got %s", i, params[i], argType), Span: arg.Span()}
		}
	}
	call.ResolvedType = &ret
	return ret, nil
}

func (tc *TypeCompleter) checkTuple(t *TupleCreation, env *scopeEnv) (Datatype, error) {
	elems := make([]Datatype, len(t.Elements))
	for i, e := range t.Elements {
		et, err := tc.checkExpr(e, env)
		if err != nil {
			return Datatype{}, err
		}
		elems[i] = et
	}
	return NewTupleType(elems...), nil
}

func (tc *TypeCompleter) checkList(l *ListCreation, env *scopeEnv) (Datatype, error) {
	if l.ElementType != nil {
		return NewListType(*l.ElementType), nil
	}
	if len(l.Elements) == 0 {
		return Datatype{}, &TypeError{Message: "empty list literal needs an explicit element type, write [:T]", Span: l.Span()}
	}
	first, err := tc.checkExpr(l.Elements[0], env)
	if err != nil {
		return Datatype{}, err
	}
	for _, e := range l.Elements[1:] {
		t, err := tc.checkExpr(e, env)
		if err != nil {
			return Datatype{}, err
		}
		if !t.Equal(first) {
			return Datatype{}, &TypeError{Message: fmt.Sprintf("list elements must share one type: %s vs %s", first, t), Span: e.Span()}
		}
	}
	return NewListType(first), nil
}
