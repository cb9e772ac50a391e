package samal

import (
	"fmt"
)

// samalRules builds the RuleMap for the samal language surface (spec §6
// "Language surface"). Built directly with pexpr.go constructors rather
// than routed through the textual grammar DSL compiler (Component D is
// for user-authored grammars; the host language's own grammar is wired
// once, in Go, the way a language implementation's own parser typically
// is). Concrete token spelling and operator precedence, where spec.md's
// prose grammar leaves them implicit, follow
// original_source/samal_lib/lib/Parser.cpp.
func samalRules(source []byte) RuleMap {
	rules := RuleMap{}

	lit := func(s string) Expr { return NewTerminalLiteral(s) }
	re := func(p string) Expr {
		t, err := NewTerminalRegex(p)
		if err != nil {
			panic(err)
		}
		return t
	}
	nt := NewNonTerminal
	seq := NewSequence
	ch := NewChoice
	opt := NewOptional
	zom := NewZeroOrMore
	oom := NewOneOrMore
	text := func(m *MatchNode) string { return m.Text(source) }

	rules["Identifier"] = Rule{
		Expr: re(`[A-Za-z_][A-Za-z0-9_]*`),
		Callback: func(m *MatchNode) (any, error) {
			return NewIdentifier(m.Span, "", text(m)), nil
		},
	}

	rules["QualifiedIdentifier"] = Rule{
		Expr: seq(nt("Identifier"), opt(seq(lit("::"), nt("Identifier")))),
		Callback: func(m *MatchNode) (any, error) {
			first := m.Children[0].Value.(*Identifier)
			if len(m.Children) > 1 && len(m.Children[1].Children) > 0 {
				second := m.Children[1].Children[0].Children[1].Value.(*Identifier)
				return NewIdentifier(m.Span, first.Name, second.Name), nil
			}
			return first, nil
		},
	}

	rules["IntLiteral"] = Rule{
		Expr: seq(re(`[0-9]+`), opt(seq(lit("_"), ch(lit("i32"), lit("i64"))))),
		Callback: func(m *MatchNode) (any, error) {
			digits := text(m.Children[0])
			var value int64
			fmt.Sscanf(digits, "%d", &value)
			suffix := ""
			if len(m.Children) > 1 && len(m.Children[1].Children) > 0 {
				suffix = text(m.Children[1].Children[0].Children[1])
			}
			return NewLiteralInt(m.Span, value, suffix), nil
		},
	}

	rules["Datatype"] = Rule{
		Expr: ch(lit("i32"), lit("i64"), lit("bool")),
		Callback: func(m *MatchNode) (any, error) {
			switch text(m) {
			case "i32":
				return NewPrimitive(CategoryI32), nil
			case "i64":
				return NewPrimitive(CategoryI64), nil
			default:
				return NewPrimitive(CategoryBool), nil
			}
		},
	}

	rules["Parameter"] = Rule{
		Expr: seq(nt("Identifier"), lit(":"), nt("Datatype")),
		Callback: func(m *MatchNode) (any, error) {
			name := m.Children[0].Value.(*Identifier).Name
			typ := m.Children[2].Value.(Datatype)
			return NewParameter(m.Span, name, typ), nil
		},
	}

	rules["ParameterList"] = Rule{
		Expr: opt(seq(nt("Parameter"), zom(seq(lit(","), nt("Parameter"))))),
		Callback: func(m *MatchNode) (any, error) {
			var params []Parameter
			if len(m.Children) == 0 {
				return params, nil
			}
			seqNode := m.Children[0]
			params = append(params, seqNode.Children[0].Value.(Parameter))
			for _, rest := range seqNode.Children[1].Children {
				params = append(params, rest.Children[1].Value.(Parameter))
			}
			return params, nil
		},
	}

	rules["ArgumentList"] = Rule{
		Expr: opt(seq(nt("Expression"), zom(seq(lit(","), nt("Expression"))))),
		Callback: func(m *MatchNode) (any, error) {
			var args []Node
			if len(m.Children) == 0 {
				return args, nil
			}
			seqNode := m.Children[0]
			args = append(args, seqNode.Children[0].Value.(Node))
			for _, rest := range seqNode.Children[1].Children {
				args = append(args, rest.Children[1].Value.(Node))
			}
			return args, nil
		},
	}

	rules["TupleOrParenExpr"] = Rule{
		Expr: seq(lit("("), nt("Expression"), zom(seq(lit(","), nt("Expression"))), lit(")")),
		Callback: func(m *MatchNode) (any, error) {
			elems := []Node{m.Children[1].Value.(Node)}
			for _, rest := range m.Children[2].Children {
				elems = append(elems, rest.Children[1].Value.(Node))
			}
			if len(elems) == 1 {
				return elems[0], nil
			}
			return NewTupleCreation(m.Span, elems), nil
		},
	}

	rules["ListExpr"] = Rule{
		Expr: ch(
			seq(lit("["), lit(":"), nt("Datatype"), lit("]")),
			seq(lit("["), opt(seq(nt("Expression"), zom(seq(lit(","), nt("Expression"))))), lit("]")),
		),
		Callback: func(m *MatchNode) (any, error) {
			alt := m.Children[0]
			if m.Alternative == 0 {
				typ := alt.Children[2].Value.(Datatype)
				return NewEmptyTypedList(m.Span, typ), nil
			}
			var elems []Node
			if len(alt.Children[1].Children) > 0 {
				seqNode := alt.Children[1].Children[0]
				elems = append(elems, seqNode.Children[0].Value.(Node))
				for _, rest := range seqNode.Children[1].Children {
					elems = append(elems, rest.Children[1].Value.(Node))
				}
			}
			return NewListCreation(m.Span, elems), nil
		},
	}

	rules["ScopeExpression"] = Rule{
		Expr: seq(lit("{"), opt(seq(nt("Expression"), zom(seq(lit(";"), nt("Expression"))))), lit("}")),
		Callback: func(m *MatchNode) (any, error) {
			var exprs []Node
			if len(m.Children[1].Children) > 0 {
				seqNode := m.Children[1].Children[0]
				exprs = append(exprs, seqNode.Children[0].Value.(Node))
				for _, rest := range seqNode.Children[1].Children {
					exprs = append(exprs, rest.Children[1].Value.(Node))
				}
			}
			return NewScope(m.Span, exprs), nil
		},
	}

	rules["IfExpression"] = Rule{
		Expr: seq(lit("if"), nt("Expression"), nt("ScopeExpression"),
			opt(seq(lit("else"), ch(nt("IfExpression"), nt("ScopeExpression"))))),
		Callback: func(m *MatchNode) (any, error) {
			cond := m.Children[1].Value.(Node)
			then := m.Children[2].Value.(*Scope)
			var elseNode Node
			if len(m.Children[3].Children) > 0 {
				elseMatch := m.Children[3].Children[0].Children[1].Children[0]
				elseNode = elseMatch.Value.(Node)
			}
			return NewIfExpr(m.Span, cond, then, elseNode), nil
		},
	}

	rules["Primary"] = Rule{
		Expr: ch(
			nt("IfExpression"),
			nt("ScopeExpression"),
			nt("ListExpr"),
			nt("TupleOrParenExpr"),
			nt("IntLiteral"),
			nt("QualifiedIdentifier"),
		),
		Callback: func(m *MatchNode) (any, error) {
			return m.Children[0].Value, nil
		},
	}

	rules["Postfix"] = Rule{
		Expr: seq(nt("Primary"), zom(seq(lit("("), nt("ArgumentList"), lit(")")))),
		Callback: func(m *MatchNode) (any, error) {
			result := m.Children[0].Value.(Node)
			for _, callSuffix := range m.Children[1].Children {
				args := callSuffix.Children[1].Value.([]Node)
				result = NewCall(m.Span, result, args)
			}
			return result, nil
		},
	}

	binaryLevel := func(name, lowerName string, ops map[string]BinaryOperator) {
		choices := make([]Expr, 0, len(ops))
		for sym := range ops {
			choices = append(choices, lit(sym))
		}
		rules[name] = Rule{
			Expr: seq(nt(lowerName), zom(seq(ch(choices...), nt(lowerName)))),
			Callback: func(m *MatchNode) (any, error) {
				result := m.Children[0].Value.(Node)
				for _, rest := range m.Children[1].Children {
					opText := text(rest.Children[0])
					op := ops[opText]
					right := rest.Children[1].Value.(Node)
					result = NewBinaryExpr(m.Span, op, result, right)
				}
				return result, nil
			},
		}
	}

	binaryLevel("Multiplicative", "Postfix", map[string]BinaryOperator{"*": OpMul, "/": OpDiv})
	binaryLevel("Additive", "Multiplicative", map[string]BinaryOperator{"+": OpAdd, "-": OpSub})
	binaryLevel("Relational", "Additive", map[string]BinaryOperator{"<=": OpLessEqual, "<": OpLessThan, ">=": OpGreaterEqual, ">": OpGreaterThan})
	binaryLevel("Equality", "Relational", map[string]BinaryOperator{"==": OpEqual, "!=": OpNotEqual})
	binaryLevel("LogicalAnd", "Equality", map[string]BinaryOperator{"&&": OpAnd})
	binaryLevel("LogicalOr", "LogicalAnd", map[string]BinaryOperator{"||": OpOr})

	rules["Assignment"] = Rule{
		Expr: ch(
			seq(nt("Identifier"), lit("="), nt("Expression")),
			nt("LogicalOr"),
		),
		Callback: func(m *MatchNode) (any, error) {
			if m.Alternative == 0 {
				alt := m.Children[0]
				target := alt.Children[0].Value.(*Identifier)
				value := alt.Children[2].Value.(Node)
				return NewAssignment(m.Span, target, value), nil
			}
			return m.Children[0].Value, nil
		},
	}

	rules["Expression"] = Rule{
		Expr: nt("Assignment"),
		Callback: func(m *MatchNode) (any, error) {
			return m.Value, nil
		},
	}

	rules["FunctionDecl"] = Rule{
		Expr: seq(lit("fn"), nt("Identifier"), lit("("), nt("ParameterList"), lit(")"),
			lit("->"), nt("Datatype"), nt("ScopeExpression")),
		Callback: func(m *MatchNode) (any, error) {
			name := m.Children[1].Value.(*Identifier).Name
			params := m.Children[3].Value.([]Parameter)
			ret := m.Children[6].Value.(Datatype)
			body := m.Children[7].Value.(*Scope)
			return NewFunctionDecl(m.Span, name, params, ret, body), nil
		},
	}

	rules["Module"] = Rule{
		Expr: oom(nt("FunctionDecl")),
		Callback: func(m *MatchNode) (any, error) {
			var fns []*FunctionDecl
			for _, c := range m.Children {
				fns = append(fns, c.Value.(*FunctionDecl))
			}
			return NewModule(m.Span, "", fns), nil
		},
	}

	return rules
}

// ParseModule tokenizes and parses a full samal source file (spec §6
// "Language surface", §8 end-to-end scenarios 1/2/3).
func ParseModule(source []byte) (*Module, *ParseError) {
	tok := NewTokenizer(source)
	rules := samalRules(source)
	ev := NewEvaluator(tok, rules)
	match, err := ev.Parse("Module")
	if err != nil {
		return nil, err
	}
	return match.Value.(*Module), nil
}
