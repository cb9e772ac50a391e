package samal

// state is the PEG evaluator's pure cursor value: evaluating an expression
// takes a state and a whitespace mode and returns a new state on success.
// The tokenizer itself holds no mutable state (spec §4.A), so the same
// Tokenizer can back many concurrent evaluations.
type state struct {
	cursor int
	mode   WSMode
}

// Evaluator interprets a RuleMap against a Tokenizer (spec §4.B/C). It is a
// pure function of its inputs except for rule callbacks, which may allocate
// freely on the host heap but must not mutate the tokenizer (spec §5).
type Evaluator struct {
	tok   *Tokenizer
	rules RuleMap
}

func NewEvaluator(tok *Tokenizer, rules RuleMap) *Evaluator {
	return &Evaluator{tok: tok, rules: rules}
}

// Parse runs startRule against the whole source. If the start rule matches
// but doesn't consume the whole input, the result is still a failure with
// Eof=true (spec §4.B/C "parse(start_rule, source)"). In that case Tree
// and Best are nil: failure info from sub-expressions of a successful
// parse is not kept.
func (ev *Evaluator) Parse(startRule string) (*MatchNode, *ParseError) {
	st := state{cursor: 0, mode: WSSkip}
	match, errNode, ok := ev.evaluate(NewNonTerminal(startRule), st)
	if !ok {
		return nil, &ParseError{Tree: errNode, Eof: false, Best: bestFail(errNode)}
	}
	if !ev.tok.IsEmpty(match.Span.Range().End) {
		return nil, &ParseError{
			Tree: errNode,
			Eof:  true,
			Best: bestFail(errNode),
		}
	}
	return match, nil
}

func bestFail(e *ErrorNode) *FailInfo {
	if e == nil {
		return nil
	}
	best := &e.Info
	for _, c := range e.Children {
		if cb := bestFail(c); cb != nil && cb.Span.Start.Cursor >= best.Span.Start.Cursor {
			best = cb
		}
	}
	return best
}

// evaluate is the per-expression semantics table from spec §4.B/C. It
// returns (match, error-tree, success).
func (ev *Evaluator) evaluate(e Expr, st state) (*MatchNode, *ErrorNode, bool) {
	switch n := e.(type) {
	case *Terminal:
		return ev.evalTerminal(n, st)
	case *NonTerminal:
		return ev.evalNonTerminal(n, st)
	case *Sequence:
		return ev.evalSequence(n, st)
	case *Choice:
		return ev.evalChoice(n, st)
	case *Optional:
		return ev.evalOptional(n, st)
	case *ZeroOrMore:
		return ev.evalZeroOrMore(n, st)
	case *OneOrMore:
		return ev.evalOneOrMore(n, st)
	case *And:
		return ev.evalAnd(n, st)
	case *Not:
		return ev.evalNot(n, st)
	case *WhitespaceMode:
		child, errNode, ok := ev.evaluate(n.Child, state{cursor: st.cursor, mode: n.Mode})
		if !ok {
			return nil, errNode, false
		}
		return child, nil, true
	case *ErrorAnnotation:
		return ev.evalErrorAnnotation(n, st)
	default:
		panic("unhandled Expr kind in evaluator")
	}
}

func (ev *Evaluator) evalTerminal(t *Terminal, st state) (*MatchNode, *ErrorNode, bool) {
	start := st.cursor
	if t.Kind == TerminalLiteral {
		if end, ok := ev.tok.MatchString(start, t.Literal, st.mode); ok {
			return ev.matchOf(t, start, end, -1, nil), nil, true
		}
		span := ev.tok.Span(NewRange(start, start))
		return nil, newErrorNode(ReasonUnmatchedString, t, span, ev.tok.SnippetFrom(start)), false
	}
	if end, _, ok := ev.tok.MatchRegex(start, t.re, st.mode); ok {
		return ev.matchOf(t, start, end, -1, nil), nil, true
	}
	span := ev.tok.Span(NewRange(start, start))
	return nil, newErrorNode(ReasonUnmatchedRegex, t, span, ev.tok.SnippetFrom(start)), false
}

func (ev *Evaluator) evalNonTerminal(nt *NonTerminal, st state) (*MatchNode, *ErrorNode, bool) {
	rule, ok := ev.rules[nt.Name]
	if !ok {
		panic("unknown rule referenced: " + nt.Name)
	}
	match, errNode, ok := ev.evaluate(rule.Expr, st)
	if !ok {
		return nil, errNode, false
	}
	match.RuleName = nt.Name
	if rule.Callback != nil {
		val, err := rule.Callback(match)
		if err != nil {
			span := ev.tok.Span(match.Span.Range())
			return nil, newErrorNode(ReasonAdditionalErrorMessage, nt, span, err.Error()), false
		}
		match.Value = val
	}
	return match, nil, true
}

func (ev *Evaluator) evalSequence(s *Sequence, st state) (*MatchNode, *ErrorNode, bool) {
	cur := st
	start := st.cursor
	children := make([]*MatchNode, 0, len(s.Children))
	var siblingFails []*ErrorNode
	for _, c := range s.Children {
		match, errNode, ok := ev.evaluate(c, cur)
		if errNode != nil {
			siblingFails = append(siblingFails, errNode)
		}
		if !ok {
			span := ev.tok.Span(NewRange(start, cur.cursor))
			return nil, &ErrorNode{
				Info:     FailInfo{Reason: ReasonSequenceChildFailed, Expr: s, Span: span},
				Children: siblingFails,
			}, false
		}
		children = append(children, match)
		cur.cursor = match.Span.Range().End
	}
	m := ev.matchOf(s, start, cur.cursor, -1, children)
	return m, nil, true
}

func (ev *Evaluator) evalChoice(c *Choice, st state) (*MatchNode, *ErrorNode, bool) {
	start := st.cursor
	var fails []*ErrorNode
	for i, child := range c.Children {
		match, errNode, ok := ev.evaluate(child, st)
		if ok {
			m := ev.matchOf(c, start, match.Span.Range().End, i, []*MatchNode{match})
			return m, nil, true
		}
		if errNode != nil {
			fails = append(fails, errNode)
		}
	}
	span := ev.tok.Span(NewRange(start, start))
	return nil, &ErrorNode{
		Info:     FailInfo{Reason: ReasonChoiceNoChildSucceeded, Expr: c, Span: span},
		Children: fails,
	}, false
}

func (ev *Evaluator) evalOptional(o *Optional, st state) (*MatchNode, *ErrorNode, bool) {
	match, _, ok := ev.evaluate(o.Child, st)
	if ok {
		return ev.matchOf(o, match.Span.Range().Start, match.Span.Range().End, -1, []*MatchNode{match}), nil, true
	}
	return ev.matchOf(o, st.cursor, st.cursor, -1, nil), nil, true
}

func (ev *Evaluator) evalZeroOrMore(z *ZeroOrMore, st state) (*MatchNode, *ErrorNode, bool) {
	start := st.cursor
	cur := st
	var children []*MatchNode
	for {
		match, _, ok := ev.evaluate(z.Child, cur)
		if !ok {
			break
		}
		r := match.Span.Range()
		if r.Start == r.End && r.End == cur.cursor {
			// zero-width match: stop to avoid looping forever.
			children = append(children, match)
			break
		}
		children = append(children, match)
		cur.cursor = r.End
	}
	return ev.matchOf(z, start, cur.cursor, -1, children), nil, true
}

func (ev *Evaluator) evalOneOrMore(o *OneOrMore, st state) (*MatchNode, *ErrorNode, bool) {
	start := st.cursor
	first, errNode, ok := ev.evaluate(o.Child, st)
	if !ok {
		span := ev.tok.Span(NewRange(start, start))
		return nil, &ErrorNode{
			Info:     FailInfo{Reason: ReasonRequiredOneOrMore, Expr: o, Span: span},
			Children: []*ErrorNode{errNode},
		}, false
	}
	children := []*MatchNode{first}
	cur := state{cursor: first.Span.Range().End, mode: st.mode}
	for {
		match, _, ok := ev.evaluate(o.Child, cur)
		if !ok {
			break
		}
		children = append(children, match)
		cur.cursor = match.Span.Range().End
	}
	return ev.matchOf(o, start, cur.cursor, -1, children), nil, true
}

func (ev *Evaluator) evalAnd(a *And, st state) (*MatchNode, *ErrorNode, bool) {
	_, errNode, ok := ev.evaluate(a.Child, st)
	if !ok {
		return nil, errNode, false
	}
	return ev.matchOf(a, st.cursor, st.cursor, -1, nil), nil, true
}

func (ev *Evaluator) evalNot(n *Not, st state) (*MatchNode, *ErrorNode, bool) {
	_, _, ok := ev.evaluate(n.Child, st)
	if ok {
		span := ev.tok.Span(NewRange(st.cursor, st.cursor))
		return nil, newErrorNode(ReasonSequenceChildFailed, n, span, "negative predicate matched"), false
	}
	return ev.matchOf(n, st.cursor, st.cursor, -1, nil), nil, true
}

func (ev *Evaluator) evalErrorAnnotation(a *ErrorAnnotation, st state) (*MatchNode, *ErrorNode, bool) {
	match, errNode, ok := ev.evaluate(a.Child, st)
	if ok {
		return match, nil, true
	}
	span := ev.tok.Span(NewRange(st.cursor, st.cursor))
	return nil, &ErrorNode{
		Info:     FailInfo{Reason: ReasonAdditionalErrorMessage, Expr: a, Span: span, Text: a.Message},
		Children: []*ErrorNode{errNode},
	}, false
}

func (ev *Evaluator) matchOf(e Expr, start, end, alt int, children []*MatchNode) *MatchNode {
	return &MatchNode{
		Span:        ev.tok.Span(NewRange(start, end)),
		Expr:        e,
		Alternative: alt,
		Children:    children,
	}
}
