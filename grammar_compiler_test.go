package samal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrammarCompilerCompileExprLiteral(t *testing.T) {
	c := NewGrammarCompiler(make(Config))
	expr, err := c.CompileExpr(`'hello'`)
	require.NoError(t, err)
	assert.Equal(t, "'hello'", expr.Dump())
}

func TestGrammarCompilerCompileExprChoiceAndSequence(t *testing.T) {
	c := NewGrammarCompiler(make(Config))
	expr, err := c.CompileExpr(`'a' 'b' | 'c'`)
	require.NoError(t, err)
	assert.Equal(t, "'a' 'b' | 'c'", expr.Dump())
}

func TestGrammarCompilerQuantifiersAndPredicates(t *testing.T) {
	c := NewGrammarCompiler(make(Config))
	expr, err := c.CompileExpr(`!'a' 'b'* 'c'+ 'd'?`)
	require.NoError(t, err)
	assert.Contains(t, expr.Dump(), "*")
	assert.Contains(t, expr.Dump(), "+")
	assert.Contains(t, expr.Dump(), "?")
}

func TestGrammarCompilerRejectsUnterminatedLiteral(t *testing.T) {
	c := NewGrammarCompiler(make(Config))
	_, err := c.CompileExpr(`'unterminated`)
	require.Error(t, err)
	var gerr *GrammarError
	require.ErrorAs(t, err, &gerr)
}

func TestGrammarCompilerCompileRulesAndEvaluate(t *testing.T) {
	c := NewGrammarCompiler(make(Config))
	rules, err := c.CompileRules(`Greeting := 'hello' 'world'`)
	require.NoError(t, err)
	require.Contains(t, rules, "Greeting")

	rule := rules["Greeting"]
	rule.Callback = func(m *MatchNode) (any, error) { return m.Text([]byte("hello world")), nil }
	rules["Greeting"] = rule

	tok := NewTokenizer([]byte("hello world"))
	ev := NewEvaluator(tok, rules)
	match, parseErr := ev.Parse("Greeting")
	require.Nil(t, parseErr)
	assert.Equal(t, "hello world", match.Value.(string))
}

func TestGrammarCompilerErrorAnnotation(t *testing.T) {
	c := NewGrammarCompiler(make(Config))
	expr, err := c.CompileExpr(`'a' #expected an a#`)
	require.NoError(t, err)
	_, ok := expr.(*ErrorAnnotation)
	require.True(t, ok)
}
