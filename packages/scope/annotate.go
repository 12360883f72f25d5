package scope

import (
	"github.com/golang/glog"

	"github.com/user/lambdakit/packages/source"
	"github.com/user/lambdakit/packages/syntax"
)

// Annotate fills in the attributes of every node reachable from nodes. Each
// top-level unit is walked once in the root scope of ctx, so bindings and the
// label counter carry over between calls on the same context.
func Annotate(nodes []syntax.Refined, ctx *Context) error {
	for _, n := range nodes {
		if err := ctx.walk(0, n); err != nil {
			return err
		}
	}
	if glog.V(5) {
		glog.Infof("scope: annotated %d units, %d labels, %d scopes", len(nodes), ctx.Labels(), ctx.Scopes())
	}
	return nil
}

func internal(n syntax.Node, err error) error {
	return source.Errorf(source.CodeInternal, n.Pos(), "%s: %v", n, err)
}

func (c *Context) labelNode(n syntax.Refined, count int) error {
	labels := make([]string, count)
	for i := range labels {
		labels[i] = c.nextLabel()
	}
	if err := n.Attributes().Label(labels...); err != nil {
		return internal(n, err)
	}
	return nil
}

func (c *Context) bindingSite(at int, sym *syntax.Symbol) error {
	if err := c.declare(at, sym); err != nil {
		return internal(sym, err)
	}
	return nil
}

// reference resolves a symbol used as a value: the visible chain first, then
// builtins, then (outside strict mode) a fresh binding site.
func (c *Context) reference(at int, sym *syntax.Symbol) error {
	attrs := sym.Attributes()
	if b, ok := c.lookup(at, sym.Name); ok {
		site := b.Attributes()
		if err := attrs.Bind(site.Depth, site.Slot); err != nil {
			return internal(sym, err)
		}
		return nil
	}
	if c.resolver != nil {
		if idx, ok := c.resolver.ResolveBuiltin(sym.Name); ok {
			if err := attrs.Bind(-1, idx); err != nil {
				return internal(sym, err)
			}
			return nil
		}
	}
	if c.strict {
		if s := c.suggest(at, sym.Name, 2); s != "" {
			return source.Errorf(source.CodeScope, sym.Pos(), "undefined name %q; did you mean %q?", sym.Name, s)
		}
		return source.Errorf(source.CodeScope, sym.Pos(), "undefined name %q", sym.Name)
	}
	return c.bindingSite(at, sym)
}

func (c *Context) walkAll(at int, nodes []syntax.Node) error {
	for _, n := range nodes {
		if err := c.walk(at, n); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) walk(at int, n syntax.Node) error {
	switch n := n.(type) {
	case *syntax.Num:
		return nil
	case *syntax.Symbol:
		return c.reference(at, n)
	case *syntax.List:
		return c.walkAll(at, n.Items)
	case *syntax.Tuple:
		return c.walkAll(at, n.Items)

	case *syntax.IfExpression:
		if err := c.labelNode(n, 2); err != nil {
			return err
		}
		return c.walkAll(at, []syntax.Node{n.Test, n.TrueBranch, n.FalseBranch})

	case *syntax.AnonymousFunction:
		if err := c.labelNode(n, 2); err != nil {
			return err
		}
		fs := c.child(at, true)
		for _, p := range n.Params {
			if err := c.bindingSite(fs, p); err != nil {
				return err
			}
		}
		return c.walk(fs, n.Body)

	case *syntax.FunctionApplication:
		if err := c.walkAll(at, n.Args); err != nil {
			return err
		}
		return c.walk(at, n.Func)
	case *syntax.ClosureApplication:
		if err := c.walkAll(at, n.Args); err != nil {
			return err
		}
		return c.walk(at, n.Func)

	case *syntax.LetExpressions:
		ls := c.child(at, false)
		for _, b := range n.Bindings {
			if err := c.bindingSite(ls, b.Variable); err != nil {
				return err
			}
			if err := c.walk(ls, b.Value); err != nil {
				return err
			}
		}
		return c.walk(ls, n.Body)

	case *syntax.MatchExpression:
		if err := c.walk(at, n.Value); err != nil {
			return err
		}
		for _, p := range n.Patterns {
			cs := c.child(at, false)
			if err := c.pattern(cs, p.Pattern); err != nil {
				return err
			}
			if err := c.walk(cs, p.Expr); err != nil {
				return err
			}
		}
		return nil
	}
	return source.Errorf(source.CodeInternal, n.Pos(), "unexpected %T in refined tree", n)
}

// pattern annotates a match pattern. Symbols bind; the head of a
// constructor pattern stays a reference.
func (c *Context) pattern(at int, n syntax.Node) error {
	switch n := n.(type) {
	case *syntax.Num:
		return nil
	case *syntax.Symbol:
		return c.bindingSite(at, n)
	case *syntax.List:
		return c.patterns(at, n.Items)
	case *syntax.Tuple:
		return c.patterns(at, n.Items)
	case *syntax.FunctionApplication:
		if err := c.walk(at, n.Func); err != nil {
			return err
		}
		return c.patterns(at, n.Args)
	case *syntax.ClosureApplication:
		if err := c.walk(at, n.Func); err != nil {
			return err
		}
		return c.patterns(at, n.Args)
	}
	return source.Errorf(source.CodeScope, n.Pos(), "%s is not a valid pattern", n)
}

func (c *Context) patterns(at int, nodes []syntax.Node) error {
	for _, n := range nodes {
		if err := c.pattern(at, n); err != nil {
			return err
		}
	}
	return nil
}
