package samal

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// GrammarCompiler converts a grammar DSL string (spec §4.D) into a parsing-
// expression tree. It is a hand-rolled recursive-descent parser, in the
// same general shape as the teacher's own GrammarParser over its own
// grammar-of-grammars (cursor + ParseXxx methods + Expect helpers) — but
// flattened into a single precedence-climbing pass instead of the
// teacher's multi-handler pipeline, since samal's DSL is considerably
// smaller than langlang's own grammar format.
type GrammarCompiler struct {
	input  []rune
	cursor int
	config Config
}

func NewGrammarCompiler(config Config) *GrammarCompiler {
	return &GrammarCompiler{config: config}
}

// CompileExpr parses a single grammar expression (no `name :=` prefix).
func (c *GrammarCompiler) CompileExpr(src string) (Expr, error) {
	c.input = []rune(src)
	c.cursor = 0
	c.skipSpace()
	e, err := c.parseChoice()
	if err != nil {
		return nil, err
	}
	c.skipSpace()
	if !c.atEnd() {
		return nil, c.errf("unexpected trailing input %q", string(c.input[c.cursor:]))
	}
	return e, nil
}

// CompileRules parses a sequence of `name := expression` definitions
// (spec §6 "Grammar DSL surface") into a RuleMap with nil callbacks;
// callers associate callbacks with names afterward via RuleMap indexing.
func (c *GrammarCompiler) CompileRules(src string) (RuleMap, error) {
	c.input = []rune(src)
	c.cursor = 0
	rules := RuleMap{}
	c.skipSpace()
	for !c.atEnd() {
		name, err := c.parseIdentifierText()
		if err != nil {
			return nil, err
		}
		c.skipSpace()
		if !c.consumeLiteral(":=") {
			return nil, c.errf("expected `:=` after rule name %q", name)
		}
		c.skipSpace()
		expr, err := c.parseChoice()
		if err != nil {
			return nil, err
		}
		rules[name] = Rule{Expr: expr}
		c.skipSpace()
	}
	return rules, nil
}

// --- precedence climbing, tightest to loosest: atom -> attribute ->
// prefix -> quantifier -> error-annotation -> sequence -> choice ---

func (c *GrammarCompiler) parseChoice() (Expr, error) {
	first, err := c.parseSequence()
	if err != nil {
		return nil, err
	}
	children := []Expr{first}
	for {
		c.skipSpace()
		if !c.peekRune('|') {
			break
		}
		c.cursor++
		c.skipSpace()
		next, err := c.parseSequence()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return NewChoice(children...), nil
}

func (c *GrammarCompiler) parseSequence() (Expr, error) {
	var children []Expr
	for {
		c.skipSpace()
		if c.atEnd() || c.peekRune('|') || c.peekRune(')') {
			break
		}
		if isIdentStart(c.peek()) {
			save := c.cursor
			_, _ = c.parseIdentifierText()
			c.skipSpace()
			isRule := c.consumeLiteral(":=")
			c.cursor = save
			if isRule {
				break
			}
		}
		child, err := c.parseErrorAnnotation()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return nil, c.errf("expected an expression")
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return NewSequence(children...), nil
}

func (c *GrammarCompiler) parseErrorAnnotation() (Expr, error) {
	e, err := c.parseQuantifier()
	if err != nil {
		return nil, err
	}
	c.skipHSpace()
	if c.peekRune('#') {
		c.cursor++
		msg, err := c.readUntil('#')
		if err != nil {
			return nil, err
		}
		return NewErrorAnnotation(e, msg), nil
	}
	return e, nil
}

func (c *GrammarCompiler) parseQuantifier() (Expr, error) {
	e, err := c.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case c.peekRune('?'):
			c.cursor++
			e = NewOptional(e)
		case c.peekRune('*'):
			c.cursor++
			e = NewZeroOrMore(e)
		case c.peekRune('+'):
			c.cursor++
			e = NewOneOrMore(e)
		default:
			return e, nil
		}
	}
}

func (c *GrammarCompiler) parsePrefix() (Expr, error) {
	switch {
	case c.peekRune('!'):
		c.cursor++
		child, err := c.parsePrefix()
		if err != nil {
			return nil, err
		}
		return NewNot(child), nil
	case c.peekRune('&'):
		c.cursor++
		child, err := c.parsePrefix()
		if err != nil {
			return nil, err
		}
		return NewAnd(child), nil
	default:
		return c.parseAttribute()
	}
}

var wsMarkers = map[string]WSMode{
	"~sws~": WSSkip,
	"~nws~": WSNoSkip,
	"~fws~": WSForceSkip,
	"~snn~": WSSkipNoNewlines,
}

func (c *GrammarCompiler) parseAttribute() (Expr, error) {
	for marker, mode := range wsMarkers {
		if c.consumeLiteral(marker) {
			c.skipSpace()
			child, err := c.parseAttribute()
			if err != nil {
				return nil, err
			}
			return NewWhitespaceMode(child, mode), nil
		}
	}
	return c.parseAtom()
}

func (c *GrammarCompiler) parseAtom() (Expr, error) {
	c.skipSpace()
	switch {
	case c.atEnd():
		return nil, c.errf("unexpected end of grammar")
	case c.peekRune('\''):
		return c.parseLiteral()
	case c.peekRune('['):
		return c.parseCharClass()
	case c.peekRune('('):
		c.cursor++
		c.skipSpace()
		inner, err := c.parseChoice()
		if err != nil {
			return nil, err
		}
		c.skipSpace()
		if !c.consumeLiteral(")") {
			return nil, c.errf("expected closing `)`")
		}
		return inner, nil
	case isIdentStart(c.peek()):
		name, err := c.parseIdentifierText()
		if err != nil {
			return nil, err
		}
		return NewNonTerminal(name), nil
	default:
		return nil, c.errf("unexpected character %q", string(c.peek()))
	}
}

func (c *GrammarCompiler) parseLiteral() (Expr, error) {
	c.cursor++ // opening quote
	var b strings.Builder
	for {
		if c.atEnd() {
			return nil, c.errf("unterminated string literal")
		}
		r := c.peek()
		if r == '\'' {
			c.cursor++
			break
		}
		if r == '\\' {
			c.cursor++
			if c.atEnd() {
				return nil, c.errf("unterminated string literal")
			}
			b.WriteRune(c.peek())
			c.cursor++
			continue
		}
		b.WriteRune(r)
		c.cursor++
	}
	return NewTerminalLiteral(b.String()), nil
}

func (c *GrammarCompiler) parseCharClass() (Expr, error) {
	start := c.cursor
	c.cursor++ // '['
	depth := 1
	for depth > 0 {
		if c.atEnd() {
			return nil, c.errf("missing closing `]`")
		}
		switch c.peek() {
		case '[':
			depth++
		case ']':
			depth--
		}
		c.cursor++
	}
	pattern := string(c.input[start:c.cursor])
	return NewTerminalRegex(pattern)
}

func (c *GrammarCompiler) parseIdentifierText() (string, error) {
	if !isIdentStart(c.peek()) {
		return "", c.errf("expected an identifier")
	}
	start := c.cursor
	for !c.atEnd() && isIdentPart(c.peek()) {
		c.cursor++
	}
	return string(c.input[start:c.cursor]), nil
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentPart(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func (c *GrammarCompiler) readUntil(delim rune) (string, error) {
	start := c.cursor
	for {
		if c.atEnd() {
			return "", c.errf("unterminated annotation, expected closing %q", string(delim))
		}
		if c.peek() == delim {
			text := string(c.input[start:c.cursor])
			c.cursor++
			return text, nil
		}
		c.cursor++
	}
}

func (c *GrammarCompiler) skipSpace() {
	for !c.atEnd() && unicode.IsSpace(c.peek()) {
		c.cursor++
	}
}

func (c *GrammarCompiler) skipHSpace() {
	for !c.atEnd() && (c.peek() == ' ' || c.peek() == '\t') {
		c.cursor++
	}
}

func (c *GrammarCompiler) atEnd() bool { return c.cursor >= len(c.input) }

func (c *GrammarCompiler) peek() rune {
	if c.atEnd() {
		return utf8.RuneError
	}
	return c.input[c.cursor]
}

func (c *GrammarCompiler) peekRune(r rune) bool { return !c.atEnd() && c.peek() == r }

func (c *GrammarCompiler) consumeLiteral(s string) bool {
	rs := []rune(s)
	if c.cursor+len(rs) > len(c.input) {
		return false
	}
	for i, r := range rs {
		if c.input[c.cursor+i] != r {
			return false
		}
	}
	c.cursor += len(rs)
	return true
}

func (c *GrammarCompiler) errf(format string, args ...any) error {
	pos := Span{}
	if c.cursor <= len(c.input) {
		pos = Span{Start: Position{Cursor: c.cursor}, End: Position{Cursor: c.cursor}}
	}
	return &GrammarError{Message: fmt.Sprintf(format, args...), Span: pos}
}
