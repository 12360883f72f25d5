package scope

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lambdakit/packages/lexer"
	"github.com/user/lambdakit/packages/source"
	"github.com/user/lambdakit/packages/syntax"
)

type testResolver map[string]int

func (r testResolver) ResolveBuiltin(name string) (int, bool) {
	idx, ok := r[name]
	return idx, ok
}

func (r testResolver) BuiltinNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

var builtins = testResolver{"+": 0, "-": 1, "*": 2, "lt": 3, "cons": 4}

func refined(t *testing.T, src string) []syntax.Refined {
	t.Helper()
	tokens, err := lexer.Lex(src)
	require.NoError(t, err)
	raw, err := syntax.Parse(tokens)
	require.NoError(t, err)
	out, err := syntax.Refine(raw)
	require.NoError(t, err)
	return out
}

func annotate(t *testing.T, src string, opts ...Option) []syntax.Refined {
	t.Helper()
	nodes := refined(t, src)
	require.NoError(t, Annotate(nodes, NewContext(builtins, opts...)))
	return nodes
}

func coords(n syntax.Node) [2]int {
	a := n.(syntax.Refined).Attributes()
	return [2]int{a.Depth, a.Slot}
}

func TestAnnotateShadowing(t *testing.T) {
	nodes := annotate(t, "(let (<x 1>) (let (<x 2>) x))")
	outer := nodes[0].(*syntax.LetExpressions)
	inner := outer.Body.(*syntax.LetExpressions)

	assert.Equal(t, [2]int{0, 0}, coords(outer.Bindings[0].Variable))
	assert.Equal(t, [2]int{0, 1}, coords(inner.Bindings[0].Variable))
	assert.Equal(t, [2]int{0, 1}, coords(inner.Body), "inner x shadows the outer binding")
}

func TestAnnotateFunctionParameters(t *testing.T) {
	nodes := annotate(t, "(fun (a b) (+ a b))")
	fn := nodes[0].(*syntax.AnonymousFunction)
	body := fn.Body.(*syntax.FunctionApplication)

	assert.Equal(t, []string{"label0", "label1"}, fn.Attributes().Labels)
	assert.Equal(t, [2]int{1, 0}, coords(fn.Params[0]))
	assert.Equal(t, [2]int{1, 1}, coords(fn.Params[1]))
	assert.Equal(t, [2]int{1, 0}, coords(body.Args[0]))
	assert.Equal(t, [2]int{1, 1}, coords(body.Args[1]))
	assert.Equal(t, [2]int{-1, 0}, coords(body.Func), "builtins live at depth -1")
}

func TestAnnotateRecursiveBinding(t *testing.T) {
	nodes := annotate(t, "(let (<fact (fun (n) (if (lt n 1) 1 (* n (fact (- n 1)))))>) (fact 5))")
	let := nodes[0].(*syntax.LetExpressions)
	fn := let.Bindings[0].Value.(*syntax.AnonymousFunction)
	cond := fn.Body.(*syntax.IfExpression)
	mul := cond.FalseBranch.(*syntax.FunctionApplication)
	call := mul.Args[1].(*syntax.FunctionApplication)

	assert.Equal(t, [2]int{0, 0}, coords(call.Func), "fact resolves to its own let slot")
	assert.Equal(t, [2]int{1, 0}, coords(mul.Args[0]))
	assert.Equal(t, [2]int{0, 0}, coords(let.Body.(*syntax.FunctionApplication).Func))
	assert.Equal(t, []string{"label0", "label1"}, fn.Attributes().Labels)
	assert.Equal(t, []string{"label2", "label3"}, cond.Attributes().Labels)
}

func TestAnnotateLetInsideFunctionContinuesSlots(t *testing.T) {
	nodes := annotate(t, "(fun (x) (let (<y 1>) (+ x y)))")
	fn := nodes[0].(*syntax.AnonymousFunction)
	let := fn.Body.(*syntax.LetExpressions)
	assert.Equal(t, [2]int{1, 1}, coords(let.Bindings[0].Variable))
}

func TestAnnotateSiblingLetsNeverShareSlots(t *testing.T) {
	nodes := annotate(t, "[(let (<a 1>) a) (let (<b 2>) b)]")
	items := nodes[0].(*syntax.List).Items
	a := items[0].(*syntax.LetExpressions).Bindings[0].Variable
	b := items[1].(*syntax.LetExpressions).Bindings[0].Variable
	assert.Equal(t, [2]int{0, 0}, coords(a))
	assert.Equal(t, [2]int{0, 1}, coords(b))
}

func TestAnnotateLabelsAreUnique(t *testing.T) {
	nodes := annotate(t, "(if a (fun (x) (if x 1 2)) (fun (y) y)) (if b 1 2)")
	seen := map[string]bool{}
	var collect func(n syntax.Node)
	collect = func(n syntax.Node) {
		switch n := n.(type) {
		case *syntax.IfExpression:
			for _, l := range n.Attributes().Labels {
				assert.False(t, seen[l], "label %s reused", l)
				seen[l] = true
			}
			collect(n.TrueBranch)
			collect(n.FalseBranch)
		case *syntax.AnonymousFunction:
			for _, l := range n.Attributes().Labels {
				assert.False(t, seen[l], "label %s reused", l)
				seen[l] = true
			}
			collect(n.Body)
		}
	}
	for _, n := range nodes {
		collect(n)
	}
	assert.Len(t, seen, 10)
}

func TestAnnotateImplicitBindingCarriesAcrossCalls(t *testing.T) {
	ctx := NewContext(builtins)
	first := refined(t, "y")
	require.NoError(t, Annotate(first, ctx))
	second := refined(t, "(+ y 1)")
	require.NoError(t, Annotate(second, ctx))

	assert.Equal(t, [2]int{0, 0}, coords(first[0]))
	assert.Equal(t, [2]int{0, 0}, coords(second[0].(*syntax.FunctionApplication).Args[0]))
}

func TestAnnotateMatchPatternsBind(t *testing.T) {
	nodes := annotate(t, "(let (<l 1>) (match l ((cons h t) h) (_ 0)))")
	m := nodes[0].(*syntax.LetExpressions).Body.(*syntax.MatchExpression)
	head := m.Patterns[0].Pattern.(*syntax.FunctionApplication)

	assert.Equal(t, [2]int{0, 0}, coords(m.Value))
	assert.Equal(t, [2]int{-1, 4}, coords(head.Func))
	assert.Equal(t, [2]int{0, 1}, coords(head.Args[0]))
	assert.Equal(t, [2]int{0, 2}, coords(head.Args[1]))
	assert.Equal(t, [2]int{0, 1}, coords(m.Patterns[0].Expr))
	assert.Equal(t, [2]int{0, 3}, coords(m.Patterns[1].Pattern))
}

func TestAnnotateStrictSuggestsNames(t *testing.T) {
	nodes := refined(t, "(let (<fact 1>) (fakt 2))")
	err := Annotate(nodes, NewContext(builtins, WithStrict()))
	require.Error(t, err)
	diag, ok := errors.Cause(err).(*source.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, source.CodeScope, diag.Code)
	assert.Contains(t, diag.Message, `did you mean "fact"?`)

	nodes = refined(t, "(zzzzzzzz 1)")
	err = Annotate(nodes, NewContext(builtins, WithStrict()))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestAnnotateTwiceIsAnInvariantViolation(t *testing.T) {
	nodes := annotate(t, "(fun (x) x)")
	err := Annotate(nodes, NewContext(builtins))
	require.Error(t, err)
	diag, ok := errors.Cause(err).(*source.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, source.CodeInternal, diag.Code)
}

func TestAnnotateRejectsRawForms(t *testing.T) {
	app := &syntax.FunctionApplication{Func: &syntax.SExpr{Items: []syntax.Node{&syntax.Num{Value: 1}}}}
	err := Annotate([]syntax.Refined{app}, NewContext(builtins))
	require.Error(t, err)
	assert.Equal(t, source.CodeInternal, errors.Cause(err).(*source.Diagnostic).Code)
}
