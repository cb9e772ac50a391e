package samal

import "fmt"

// ParseError is returned (never thrown) when the PEG evaluator fails to
// parse a rule to completion. It carries the error tree built by the
// evaluator along with the eof flag described in spec §4.B/C: a parse that
// consumed less than the whole input is a failure even if the start rule
// matched.
type ParseError struct {
	Tree *ErrorNode
	Eof  bool
	Best *FailInfo
}

func (e *ParseError) Error() string {
	if e.Best == nil {
		return "parse failed"
	}
	msg := fmt.Sprintf("parse failed @ %s: %s", e.Best.Span, e.Best.Reason)
	if e.Eof {
		msg += " (trailing input not consumed)"
	}
	return msg
}

// GrammarError is thrown by the grammar compiler (Component D) on malformed
// DSL text: unterminated strings, unexpected tokens, missing brackets.
type GrammarError struct {
	Message string
	Span    Span
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("grammar error @ %s: %s", e.Span, e.Message)
}

// TypeError is thrown by the type completer: undefined names, arity
// mismatches, type mismatches, non-overrideable shadowing.
type TypeError struct {
	Message    string
	Span       Span
	Suggestion string // nearest in-scope name, if any (fuzzysearch-assisted)
}

func (e *TypeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("type error @ %s: %s (did you mean `%s`?)", e.Span, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("type error @ %s: %s", e.Span, e.Message)
}

// CompileError is thrown by the bytecode compiler, e.g. a redefinition of a
// non-overrideable name, or a branch whose two sides leave mismatched stack
// heights.
type CompileError struct {
	Message string
	Span    Span
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error @ %s: %s", e.Span, e.Message)
}

// RuntimeError is raised by the VM: function not found, stack underflow,
// an undecodable opcode byte.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string {
	return "runtime error: " + e.Message
}

// AllocError describes a heap request that could not be satisfied; spec §7
// treats this as fatal/aborting. The GC does not return it: Alloc falls
// back to a temporary buffer when the active region is full.
type AllocError struct {
	Requested int
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("allocation failure: could not satisfy %d-byte request", e.Requested)
}
