package syntax

import (
	"strconv"

	"github.com/golang/glog"

	c "github.com/user/lambdakit/packages/combinator"
	"github.com/user/lambdakit/packages/lexer"
	"github.com/user/lambdakit/packages/source"
)

// rule is a grammar rule over significant tokens.
type rule = c.Parser[lexer.Token, any]

type grammar struct {
	expr        rule
	application rule
	program     c.Parser[lexer.Token, []any]
}

var defaultGrammar = newGrammar()

func kind(k lexer.Kind) rule {
	return c.Erase(c.Match(func(t lexer.Token) bool { return t.Kind == k }))
}

func word(w string) rule {
	return c.Erase(c.Match(func(t lexer.Token) bool { return t.Kind == lexer.SYMBOL && t.Text == w }))
}

func tokenSpan(v any) source.Span {
	switch x := v.(type) {
	case lexer.Token:
		return x.Span
	case Node:
		return x.Pos()
	}
	return source.Span{}
}

// outer is the span from the first to the last part of a sequence.
func outer(parts []any) source.Span {
	return tokenSpan(parts[0]).Join(tokenSpan(parts[len(parts)-1]))
}

func nodes(v any) []Node {
	items := v.([]any)
	out := make([]Node, 0, len(items))
	for _, it := range items {
		out = append(out, it.(Node))
	}
	return out
}

func newGrammar() *grammar {
	g := &grammar{}
	expr := c.Delay(func() rule { return g.expr })
	application := c.Delay(func() rule { return g.application })
	lparen, rparen := kind(lexer.LPAREN), kind(lexer.RPAREN)
	exprs := c.Erase(c.ZeroOrMore(expr))

	num := c.Transform(c.Match(func(t lexer.Token) bool {
		if t.Kind != lexer.NUMBER {
			return false
		}
		_, err := strconv.ParseInt(t.Text, 10, 64)
		return err == nil
	}), func(t lexer.Token) any {
		v, _ := strconv.ParseInt(t.Text, 10, 64)
		return &Num{base: base{Span: t.Span}, Value: v}
	})

	symbolOf := func(t lexer.Token) *Symbol { return &Symbol{base: base{Span: t.Span}, Name: t.Text} }
	symbol := c.Transform(c.Match(func(t lexer.Token) bool { return t.Kind == lexer.SYMBOL }),
		func(t lexer.Token) any { return symbolOf(t) })
	name := c.Transform(c.Match(func(t lexer.Token) bool {
		return t.Kind == lexer.SYMBOL && !IsKeyword(t.Text)
	}), symbolOf)

	// [e e*] and []
	list := c.Transform(c.Sequence(kind(lexer.LBRACKET), expr, exprs, kind(lexer.RBRACKET)), func(x []any) any {
		return &List{base: base{Span: outer(x)}, Items: append([]Node{x[1].(Node)}, nodes(x[2])...)}
	})
	emptyList := c.Transform(c.Sequence(kind(lexer.LBRACKET), kind(lexer.RBRACKET)), func(x []any) any {
		return &List{base: base{Span: outer(x)}, Items: []Node{}}
	})

	// <e e*>
	tuple := c.Transform(c.Sequence(kind(lexer.LANGLE), expr, exprs, kind(lexer.RANGLE)), func(x []any) any {
		return &Tuple{base: base{Span: outer(x)}, Items: append([]Node{x[1].(Node)}, nodes(x[2])...)}
	})

	// (fun (sym*) e)
	params := c.Transform(c.Sequence(lparen, c.Erase(c.ZeroOrMore(name)), rparen), func(x []any) any {
		return x[1].([]*Symbol)
	})
	fun := c.Transform(c.Sequence(lparen, word(KeywordFun), params, expr, rparen), func(x []any) any {
		return &AnonymousFunction{base: base{Span: outer(x)}, Params: x[2].([]*Symbol), Body: x[3].(Node)}
	})

	// (let (<sym e>*) e)
	binding := c.Transform(c.Sequence(kind(lexer.LANGLE), c.Erase(name), expr, kind(lexer.RANGLE)), func(x []any) any {
		return &BindingPair{base: base{Span: outer(x)}, Variable: x[1].(*Symbol), Value: x[2].(Node)}
	})
	let := c.Transform(c.Sequence(lparen, word(KeywordLet), lparen, c.Erase(c.ZeroOrMore(binding)), rparen, expr, rparen),
		func(x []any) any {
			var pairs []*BindingPair
			for _, b := range x[3].([]any) {
				pairs = append(pairs, b.(*BindingPair))
			}
			return &LetExpressions{base: base{Span: outer(x)}, Bindings: pairs, Body: x[5].(Node)}
		})

	// (if e e e)
	cond := c.Transform(c.Sequence(lparen, word(KeywordIf), expr, expr, expr, rparen), func(x []any) any {
		return &IfExpression{base: base{Span: outer(x)}, Test: x[2].(Node), TrueBranch: x[3].(Node), FalseBranch: x[4].(Node)}
	})

	// ((fun ...) e*), ((application) e*), (name e*)
	call := func(head rule) c.Parser[lexer.Token, []any] {
		return c.Sequence(lparen, head, exprs, rparen)
	}
	funApp := c.Transform(call(fun), func(x []any) any {
		return &FunctionApplication{base: base{Span: outer(x)}, Func: x[1].(Node), Args: nodes(x[2])}
	})
	closureApp := c.Transform(call(application), func(x []any) any {
		return &ClosureApplication{base: base{Span: outer(x)}, Func: x[1].(Node), Args: nodes(x[2])}
	})
	nameApp := c.Transform(call(c.Erase(name)), func(x []any) any {
		return &FunctionApplication{base: base{Span: outer(x)}, Func: x[1].(Node), Args: nodes(x[2])}
	})
	g.application = c.Alternation(funApp, closureApp, nameApp)

	// (e e*) left for Refine.
	sexpr := c.Transform(c.Sequence(lparen, expr, exprs, rparen), func(x []any) any {
		return &SExpr{Span: outer(x), Items: append([]Node{x[1].(Node)}, nodes(x[2])...)}
	})

	g.expr = c.Alternation(list, emptyList, tuple, num, symbol, fun, let, cond, application, sexpr)
	g.program = c.ZeroOrMore(expr)
	return g
}

// Parse builds the raw AST from a token stream. Ignorable tokens are dropped
// first; any token left unconsumed is an error.
func Parse(tokens []lexer.Token) ([]Node, error) {
	sig := lexer.Significant(tokens)
	cur := c.NewCursor(sig)
	parts, _ := defaultGrammar.program(cur)
	if !cur.AtEnd() {
		t, _ := cur.Current()
		return nil, source.Errorf(source.CodeParse, t.Span,
			"unexpected %s %q: malformed or unbalanced form", t.Kind, t.Text)
	}
	out := make([]Node, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.(Node))
	}
	if glog.V(5) {
		glog.Infof("syntax: parsed %d top-level forms from %d tokens", len(out), len(sig))
	}
	return out, nil
}
