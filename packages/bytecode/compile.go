package bytecode

import (
	"github.com/golang/glog"

	"github.com/user/lambdakit/packages/source"
	"github.com/user/lambdakit/packages/syntax"
)

type compiler struct {
	code []Instruction
}

func (c *compiler) emit(ins ...Instruction) {
	c.code = append(c.code, ins...)
}

// Compile lowers annotated trees into one flat instruction sequence. Each
// top-level unit leaves its value on the root frame; the last one is the
// program's result.
func Compile(nodes []syntax.Refined) ([]Instruction, error) {
	c := &compiler{}
	for _, n := range nodes {
		if err := c.compile(n); err != nil {
			return nil, err
		}
	}
	if glog.V(5) {
		glog.Infof("bytecode: %d units -> %d instructions", len(nodes), len(c.code))
	}
	return c.code, nil
}

func notAnnotated(n syntax.Node, what string) error {
	return source.Errorf(source.CodeInternal, n.Pos(), "%s %s was not annotated", what, n)
}

func labels(n syntax.Refined, what string) ([]string, error) {
	attrs := n.Attributes()
	if !attrs.Labelled() || len(attrs.Labels) != 2 {
		return nil, notAnnotated(n, what)
	}
	return attrs.Labels, nil
}

func (c *compiler) compileAll(nodes []syntax.Node) error {
	for _, n := range nodes {
		if err := c.compile(n); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compile(n syntax.Node) error {
	switch n := n.(type) {
	case *syntax.Num:
		c.emit(Load(n.Value), MkBasic())
		return nil

	case *syntax.Symbol:
		attrs := n.Attributes()
		if !attrs.Bound() {
			return notAnnotated(n, "symbol")
		}
		c.emit(LoadVar(attrs.Depth, attrs.Slot))
		return nil

	case *syntax.List:
		return c.aggregate(n.Items, BuiltinList)
	case *syntax.Tuple:
		return c.aggregate(n.Items, BuiltinTuple)

	case *syntax.IfExpression:
		l, err := labels(n, "if")
		if err != nil {
			return err
		}
		elseLabel, end := l[0], l[1]
		if err := c.compile(n.Test); err != nil {
			return err
		}
		c.emit(JumpZ(elseLabel))
		if err := c.compile(n.TrueBranch); err != nil {
			return err
		}
		c.emit(Jump(end), Label(elseLabel))
		if err := c.compile(n.FalseBranch); err != nil {
			return err
		}
		c.emit(Label(end))
		return nil

	case *syntax.AnonymousFunction:
		l, err := labels(n, "function")
		if err != nil {
			return err
		}
		start, end := l[0], l[1]
		c.emit(Label(start), MkFunc(end, n.Arity()), ArgCheck(n.Arity()))
		if err := c.compile(n.Body); err != nil {
			return err
		}
		c.emit(Return(), Label(end))
		return nil

	case *syntax.FunctionApplication:
		return c.call(n.Func, n.Args)
	case *syntax.ClosureApplication:
		return c.call(n.Func, n.Args)

	case *syntax.LetExpressions:
		for _, b := range n.Bindings {
			attrs := b.Variable.Attributes()
			if !attrs.Bound() {
				return notAnnotated(b.Variable, "binding")
			}
			c.emit(InitVar(attrs.Slot))
			if err := c.compile(b.Value); err != nil {
				return err
			}
			c.emit(StoreA(attrs.Slot))
		}
		return c.compile(n.Body)

	case *syntax.MatchExpression:
		return source.Errorf(source.CodeUnsupported, n.Pos(), "pattern matching cannot be compiled: %s", n)
	}
	return source.Errorf(source.CodeInternal, n.Pos(), "unexpected %T in annotated tree", n)
}

// call pushes the arguments left to right, then the callee, which ends up in
// the last slot of the new frame.
func (c *compiler) call(fn syntax.Node, args []syntax.Node) error {
	if err := c.compileAll(args); err != nil {
		return err
	}
	if err := c.compile(fn); err != nil {
		return err
	}
	c.emit(PushStack(len(args)+1), Apply())
	return nil
}

// aggregate builds a list or tuple literal through its builtin constructor.
func (c *compiler) aggregate(items []syntax.Node, ctor int) error {
	if err := c.compileAll(items); err != nil {
		return err
	}
	c.emit(LoadVar(-1, ctor), PushStack(len(items)+1), Apply())
	return nil
}
