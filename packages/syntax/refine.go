package syntax

import (
	"github.com/user/lambdakit/packages/source"
)

func refineError(n Node, format string, args ...interface{}) error {
	return source.Errorf(source.CodeRefine, n.Pos(), format, args...)
}

// Refine turns a raw tree into typed forms. Every SExpr is resolved into a
// special form or an application; shape errors stop refinement at the first
// offending form.
func Refine(nodes []Node) ([]Refined, error) {
	out := make([]Refined, 0, len(nodes))
	for _, n := range nodes {
		r, err := refine(n)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func refineAll(nodes []Node) ([]Node, error) {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		r, err := refine(n)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func refine(n Node) (Refined, error) {
	var err error
	switch n := n.(type) {
	case *Num:
		return n, nil
	case *Symbol:
		if IsKeyword(n.Name) {
			return nil, refineError(n, "keyword %q cannot be used as a value", n.Name)
		}
		return n, nil
	case *List:
		n.Items, err = refineAll(n.Items)
		return n, err
	case *Tuple:
		n.Items, err = refineAll(n.Items)
		return n, err
	case *SExpr:
		return refineForm(n)
	case *IfExpression:
		if n.Test, err = refine(n.Test); err != nil {
			return nil, err
		}
		if n.TrueBranch, err = refine(n.TrueBranch); err != nil {
			return nil, err
		}
		n.FalseBranch, err = refine(n.FalseBranch)
		return n, err
	case *AnonymousFunction:
		if err = checkParams(n.Params); err != nil {
			return nil, err
		}
		n.Body, err = refine(n.Body)
		return n, err
	case *FunctionApplication:
		if n.Func, err = refine(n.Func); err != nil {
			return nil, err
		}
		n.Args, err = refineAll(n.Args)
		return n, err
	case *ClosureApplication:
		if n.Func, err = refine(n.Func); err != nil {
			return nil, err
		}
		n.Args, err = refineAll(n.Args)
		return n, err
	case *LetExpressions:
		for _, b := range n.Bindings {
			if b.Value, err = refine(b.Value); err != nil {
				return nil, err
			}
		}
		n.Body, err = refine(n.Body)
		return n, err
	case *BindingPair:
		n.Value, err = refine(n.Value)
		return n, err
	case *MatchExpression:
		if n.Value, err = refine(n.Value); err != nil {
			return nil, err
		}
		for _, p := range n.Patterns {
			if _, err = refine(p); err != nil {
				return nil, err
			}
		}
		return n, nil
	case *PatternPair:
		if n.Pattern, err = refine(n.Pattern); err != nil {
			return nil, err
		}
		n.Expr, err = refine(n.Expr)
		return n, err
	}
	return nil, source.Errorf(source.CodeInternal, n.Pos(), "unknown node %T", n)
}

// formItems flattens anything that was parsed from a parenthesized form.
// The grammar may have read a binding list or a match clause as an
// application; Refine needs its raw items back.
func formItems(n Node) ([]Node, bool) {
	switch n := n.(type) {
	case *SExpr:
		return n.Items, true
	case *FunctionApplication:
		return append([]Node{n.Func}, n.Args...), true
	case *ClosureApplication:
		return append([]Node{n.Func}, n.Args...), true
	}
	return nil, false
}

func refineForm(s *SExpr) (Refined, error) {
	if head, ok := s.Items[0].(*Symbol); ok && IsKeyword(head.Name) {
		switch head.Name {
		case KeywordFun:
			return refineFun(s)
		case KeywordLet:
			return refineLet(s)
		case KeywordIf:
			return refineIf(s)
		case KeywordMatch:
			return refineMatch(s)
		}
	}

	head, err := refine(s.Items[0])
	if err != nil {
		return nil, err
	}
	args, err := refineAll(s.Items[1:])
	if err != nil {
		return nil, err
	}
	switch head.(type) {
	case *Num, *List, *Tuple:
		return nil, refineError(head, "cannot apply %s", head)
	case *FunctionApplication, *ClosureApplication:
		return &ClosureApplication{base: base{Span: s.Span}, Func: head, Args: args}, nil
	}
	return &FunctionApplication{base: base{Span: s.Span}, Func: head, Args: args}, nil
}

func checkParams(params []*Symbol) error {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if IsKeyword(p.Name) {
			return refineError(p, "keyword %q cannot be a parameter", p.Name)
		}
		if seen[p.Name] {
			return refineError(p, "duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

func refineFun(s *SExpr) (Refined, error) {
	if len(s.Items) != 3 {
		return nil, refineError(s, "fun takes a parameter list and a body, got %d items", len(s.Items)-1)
	}
	raw, ok := formItems(s.Items[1])
	if !ok {
		return nil, refineError(s.Items[1], "parameter list must be parenthesized, got %s", s.Items[1])
	}
	params := make([]*Symbol, 0, len(raw))
	for _, p := range raw {
		sym, ok := p.(*Symbol)
		if !ok {
			return nil, refineError(p, "parameter must be a symbol, got %s", p)
		}
		params = append(params, sym)
	}
	fn := &AnonymousFunction{base: base{Span: s.Span}, Params: params, Body: s.Items[2]}
	return refine(fn)
}

func refineLet(s *SExpr) (Refined, error) {
	if len(s.Items) != 3 {
		return nil, refineError(s, "let takes a binding list and a body, got %d items", len(s.Items)-1)
	}
	raw, ok := formItems(s.Items[1])
	if !ok {
		return nil, refineError(s.Items[1], "binding list must be parenthesized, got %s", s.Items[1])
	}

	var pairs []*BindingPair
	if _, tupled := raw[0].(*Tuple); tupled {
		for _, b := range raw {
			t, ok := b.(*Tuple)
			if !ok || len(t.Items) != 2 {
				return nil, refineError(b, "binding must be <name value>, got %s", b)
			}
			pair, err := bindingPair(t.Span, t.Items[0], t.Items[1])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}
	} else {
		if len(raw)%2 != 0 {
			return nil, refineError(s.Items[1], "binding list has odd length %d", len(raw))
		}
		for i := 0; i < len(raw); i += 2 {
			pair, err := bindingPair(raw[i].Pos().Join(raw[i+1].Pos()), raw[i], raw[i+1])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}
	}
	let := &LetExpressions{base: base{Span: s.Span}, Bindings: pairs, Body: s.Items[2]}
	return refine(let)
}

func bindingPair(span source.Span, name, value Node) (*BindingPair, error) {
	sym, ok := name.(*Symbol)
	if !ok {
		return nil, refineError(name, "binding name must be a symbol, got %s", name)
	}
	if IsKeyword(sym.Name) {
		return nil, refineError(sym, "keyword %q cannot be bound", sym.Name)
	}
	return &BindingPair{base: base{Span: span}, Variable: sym, Value: value}, nil
}

func refineIf(s *SExpr) (Refined, error) {
	if len(s.Items) != 4 {
		return nil, refineError(s, "if takes a test and two branches, got %d items", len(s.Items)-1)
	}
	e := &IfExpression{base: base{Span: s.Span}, Test: s.Items[1], TrueBranch: s.Items[2], FalseBranch: s.Items[3]}
	return refine(e)
}

func refineMatch(s *SExpr) (Refined, error) {
	if len(s.Items) < 3 {
		return nil, refineError(s, "match takes a value and at least one clause")
	}
	m := &MatchExpression{base: base{Span: s.Span}, Value: s.Items[1]}
	for _, clause := range s.Items[2:] {
		items, ok := formItems(clause)
		if !ok || len(items) != 2 {
			return nil, refineError(clause, "match clause must be (pattern expr), got %s", clause)
		}
		m.Patterns = append(m.Patterns, &PatternPair{base: base{Span: clause.Pos()}, Pattern: items[0], Expr: items[1]})
	}
	return refine(m)
}
