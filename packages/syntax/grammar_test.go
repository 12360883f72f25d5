package syntax

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lambdakit/packages/lexer"
	"github.com/user/lambdakit/packages/source"
)

func parse(t *testing.T, src string) []Node {
	t.Helper()
	tokens, err := lexer.Lex(src)
	require.NoError(t, err)
	nodes, err := Parse(tokens)
	require.NoError(t, err)
	return nodes
}

func parseErr(t *testing.T, src string) *source.Diagnostic {
	t.Helper()
	tokens, err := lexer.Lex(src)
	require.NoError(t, err)
	_, err = Parse(tokens)
	require.Error(t, err)
	diag, ok := errors.Cause(err).(*source.Diagnostic)
	require.True(t, ok)
	return diag
}

func TestParseAtoms(t *testing.T) {
	nodes := parse(t, "42 x [1, 2] [] <a, 1>")
	require.Len(t, nodes, 5)
	assert.Equal(t, int64(42), nodes[0].(*Num).Value)
	assert.Equal(t, "x", nodes[1].(*Symbol).Name)
	assert.Len(t, nodes[2].(*List).Items, 2)
	assert.Empty(t, nodes[3].(*List).Items)
	assert.Equal(t, "<a 1>", nodes[4].String())
}

func TestParseSpecialForms(t *testing.T) {
	nodes := parse(t, "(fun (x y) (+ x y)) (let (<x 1> <y 2>) y) (if t 1 0)")
	require.Len(t, nodes, 3)

	fn, ok := nodes[0].(*AnonymousFunction)
	require.True(t, ok)
	assert.Equal(t, 2, fn.Arity())
	assert.Equal(t, source.Span{Start: 0, End: 19}, fn.Pos())

	let, ok := nodes[1].(*LetExpressions)
	require.True(t, ok)
	require.Len(t, let.Bindings, 2)
	assert.Equal(t, "y", let.Bindings[1].Variable.Name)

	_, ok = nodes[2].(*IfExpression)
	assert.True(t, ok)
}

func TestParseApplications(t *testing.T) {
	nodes := parse(t, "(+ 1 2) ((fun (x) x) 1) ((adder 1) 2) (((curry 1) 2) 3)")
	require.Len(t, nodes, 4)

	app, ok := nodes[0].(*FunctionApplication)
	require.True(t, ok)
	assert.Equal(t, "+", app.Func.(*Symbol).Name)
	assert.Len(t, app.Args, 2)

	app, ok = nodes[1].(*FunctionApplication)
	require.True(t, ok)
	assert.IsType(t, &AnonymousFunction{}, app.Func)

	closure, ok := nodes[2].(*ClosureApplication)
	require.True(t, ok)
	assert.IsType(t, &FunctionApplication{}, closure.Func)

	closure, ok = nodes[3].(*ClosureApplication)
	require.True(t, ok)
	assert.IsType(t, &ClosureApplication{}, closure.Func)
	assert.Equal(t, "(((curry 1) 2) 3)", closure.String())
}

func TestParseLeavesUnknownFormsRaw(t *testing.T) {
	nodes := parse(t, "(match l ([] 0)) (1 2)")
	require.Len(t, nodes, 2)
	assert.IsType(t, &SExpr{}, nodes[0])
	assert.IsType(t, &SExpr{}, nodes[1])
}

func TestParseRejectsUnbalancedInput(t *testing.T) {
	diag := parseErr(t, "(+ 1 2")
	assert.Equal(t, source.CodeParse, diag.Code)
	assert.Equal(t, 0, diag.Span.Start)

	diag = parseErr(t, "(+ 1 2))")
	assert.Equal(t, 7, diag.Span.Start)

	diag = parseErr(t, "x <1 2")
	assert.Equal(t, 2, diag.Span.Start)
}

func TestParseEmptyProgram(t *testing.T) {
	nodes := parse(t, "  ; nothing here\n")
	assert.Empty(t, nodes)
}
