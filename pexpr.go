package samal

import (
	"fmt"
	"regexp"
	"strings"
)

// Expr is the tagged-variant parsing-expression node (spec §3). Every
// concrete shape below implements it; dispatch is exhaustive type-switches
// in the evaluator (peg_eval.go) rather than open-ended inheritance, per
// spec §9 "Tagged variants".
//
// The tree is immutable once built by the grammar compiler (Component D)
// or constructed directly by Go code, and may be shared across rules: the
// same *Expr value can appear as a child in more than one rule's root,
// which is why every concrete shape here is a plain value (or a pointer to
// one), never something that threads cursor state through itself.
type Expr interface {
	Dump() string
}

// TerminalKind distinguishes the two Terminal flavors described in spec §3.
type TerminalKind int

const (
	TerminalLiteral TerminalKind = iota
	TerminalRegex
)

// Terminal matches a fixed string or a left-anchored regex after whitespace
// skipping (spec §3 Terminal(literal) / Terminal(regex)).
type Terminal struct {
	Kind    TerminalKind
	Literal string
	Pattern string
	re      *regexp.Regexp // compiled by NewTerminalRegex
}

func NewTerminalLiteral(s string) *Terminal {
	return &Terminal{Kind: TerminalLiteral, Literal: s}
}

func NewTerminalRegex(pattern string) (*Terminal, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("invalid regex terminal %q: %w", pattern, err)
	}
	return &Terminal{Kind: TerminalRegex, Pattern: pattern, re: re}, nil
}

func (t *Terminal) Dump() string {
	if t.Kind == TerminalLiteral {
		return "'" + escapeLiteral(t.Literal) + "'"
	}
	return t.Pattern
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

// NonTerminal looks up Name in the rule map and delegates (spec §3).
type NonTerminal struct {
	Name string
}

func NewNonTerminal(name string) *NonTerminal { return &NonTerminal{Name: name} }

func (n *NonTerminal) Dump() string { return n.Name }

// Sequence requires every child to match in order (spec §3).
type Sequence struct {
	Children []Expr
}

func NewSequence(children ...Expr) *Sequence { return &Sequence{Children: children} }

func (s *Sequence) Dump() string {
	parts := make([]string, len(s.Children))
	for i, c := range s.Children {
		parts[i] = dumpChild(c, s)
	}
	return strings.Join(parts, " ")
}

// Choice tries children left to right; the first success wins, ordered,
// no backtracking across a committed success (spec §3).
type Choice struct {
	Children []Expr
}

func NewChoice(children ...Expr) *Choice { return &Choice{Children: children} }

func (c *Choice) Dump() string {
	parts := make([]string, len(c.Children))
	for i, ch := range c.Children {
		parts[i] = dumpChild(ch, c)
	}
	return strings.Join(parts, " | ")
}

// Optional succeeds whether or not Child matches (spec §3).
type Optional struct{ Child Expr }

func NewOptional(child Expr) *Optional { return &Optional{Child: child} }
func (o *Optional) Dump() string       { return dumpChild(o.Child, o) + "?" }

// ZeroOrMore repeats Child until it first fails; always succeeds (spec §3).
type ZeroOrMore struct{ Child Expr }

func NewZeroOrMore(child Expr) *ZeroOrMore { return &ZeroOrMore{Child: child} }
func (z *ZeroOrMore) Dump() string         { return dumpChild(z.Child, z) + "*" }

// OneOrMore is Sequence(Child, ZeroOrMore(Child)) in spirit (spec §3); kept
// as its own node so the evaluator can report REQUIRED_ONE_OR_MORE
// specifically on the first failed attempt.
type OneOrMore struct{ Child Expr }

func NewOneOrMore(child Expr) *OneOrMore { return &OneOrMore{Child: child} }
func (o *OneOrMore) Dump() string        { return dumpChild(o.Child, o) + "+" }

// And is a zero-width lookahead predicate: succeeds iff Child succeeds,
// consumes no input either way (spec §3).
type And struct{ Child Expr }

func NewAnd(child Expr) *And { return &And{Child: child} }
func (a *And) Dump() string  { return "&" + dumpChild(a.Child, a) }

// Not is a zero-width negative lookahead predicate (spec §3).
type Not struct{ Child Expr }

func NewNot(child Expr) *Not { return &Not{Child: child} }
func (n *Not) Dump() string  { return "!" + dumpChild(n.Child, n) }

// WhitespaceMode overrides the whitespace policy for the enclosed subtree
// (spec §3 / §4.D's `~sws~ ~nws~ ~fws~ ~snn~` markers).
type WhitespaceMode struct {
	Child Expr
	Mode  WSMode
}

func NewWhitespaceMode(child Expr, mode WSMode) *WhitespaceMode {
	return &WhitespaceMode{Child: child, Mode: mode}
}

func (w *WhitespaceMode) Dump() string {
	marker := map[WSMode]string{
		WSSkip: "~sws~", WSNoSkip: "~nws~", WSForceSkip: "~fws~", WSSkipNoNewlines: "~snn~",
	}[w.Mode]
	return marker + " " + dumpChild(w.Child, w)
}

// ErrorAnnotation is transparent on success; on failure it wraps the
// child's error with Message, and downstream rendering stops descending
// into Child once it hits this node (spec §3/§4.B "Error rendering").
type ErrorAnnotation struct {
	Child   Expr
	Message string
}

func NewErrorAnnotation(child Expr, message string) *ErrorAnnotation {
	return &ErrorAnnotation{Child: child, Message: message}
}

func (e *ErrorAnnotation) Dump() string {
	return dumpChild(e.Child, e) + " #" + e.Message + "#"
}

// dumpChild parenthesizes a child's dump only when necessary to preserve
// the §8 "Grammar stringify round-trip" property (parenthesization of
// single-child groups is the only slack the round-trip allows).
func dumpChild(child Expr, parent Expr) string {
	text := child.Dump()
	if needsParens(child, parent) {
		return "(" + text + ")"
	}
	return text
}

func needsParens(child, parent Expr) bool {
	switch parent.(type) {
	case *Sequence:
		switch child.(type) {
		case *Choice, *Sequence:
			return true
		}
		return false
	case *Choice:
		_, ok := child.(*Choice)
		return ok
	}
	switch child.(type) {
	case *Terminal, *NonTerminal:
		return false
	}
	return true
}

// Rule pairs a parsing expression with an optional callback invoked on a
// successful match (spec §3 "Rule").
type Rule struct {
	Expr     Expr
	Callback func(*MatchNode) (any, error)
}

// RuleMap is a flat, name-keyed table so mutually recursive rules
// (Expression -> ... -> Expression) can reference each other by name
// instead of by pointer (spec §9 "Cyclic expression graphs").
type RuleMap map[string]Rule
