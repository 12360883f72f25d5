package syntax

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/user/lambdakit/packages/source"
)

// Node is any AST node. The variant set is closed: Num, Symbol, List, Tuple,
// SExpr and the refined forms below.
type Node interface {
	Pos() source.Span
	String() string
	node()
}

// Refined is implemented by every variant except SExpr. Refine returns
// Refined values only.
type Refined interface {
	Node
	Attributes() *Attrs
}

// Attrs is the write-once attribute record filled in by the annotator.
type Attrs struct {
	Depth  int
	Slot   int
	Labels []string

	bound    bool
	labelled bool
}

// ErrAttrWritten is returned when an attribute is assigned a second time.
var ErrAttrWritten = errors.New("attribute already written")

// Bind records the frame coordinates of a symbol.
func (a *Attrs) Bind(depth, slot int) error {
	if a.bound {
		return ErrAttrWritten
	}
	a.Depth, a.Slot, a.bound = depth, slot, true
	return nil
}

// Bound reports whether Bind has been called.
func (a *Attrs) Bound() bool { return a.bound }

// Label records generated label names.
func (a *Attrs) Label(labels ...string) error {
	if a.labelled {
		return ErrAttrWritten
	}
	a.Labels, a.labelled = labels, true
	return nil
}

// Labelled reports whether Label has been called.
func (a *Attrs) Labelled() bool { return a.labelled }

type base struct {
	Span  source.Span
	attrs Attrs
}

func (b *base) Pos() source.Span   { return b.Span }
func (b *base) Attributes() *Attrs { return &b.attrs }
func (*base) node()                {}

// Num is an integer literal.
type Num struct {
	base
	Value int64
}

// Symbol is a name. As a reference its attributes hold (depth, slot).
type Symbol struct {
	base
	Name string
}

// List is a bracketed literal.
type List struct {
	base
	Items []Node
}

// Tuple is an angle-bracketed literal.
type Tuple struct {
	base
	Items []Node
}

// SExpr is an untyped parenthesized form. Only the raw tree contains it.
type SExpr struct {
	Span  source.Span
	Items []Node
}

func (s *SExpr) Pos() source.Span { return s.Span }
func (*SExpr) node()              {}

// IfExpression carries labels [else, end].
type IfExpression struct {
	base
	Test, TrueBranch, FalseBranch Node
}

// AnonymousFunction carries labels [start, end].
type AnonymousFunction struct {
	base
	Params []*Symbol
	Body   Node
}

// Arity is the number of declared parameters.
func (f *AnonymousFunction) Arity() int { return len(f.Params) }

// FunctionApplication is a call whose callee is a name, a function literal or
// any other expression.
type FunctionApplication struct {
	base
	Func Node
	Args []Node
}

// ClosureApplication is a call whose callee is itself an application, i.e. a
// call through a partially applied function.
type ClosureApplication struct {
	base
	Func Node
	Args []Node
}

// LetExpressions binds each pair in order, then evaluates Body.
type LetExpressions struct {
	base
	Bindings []*BindingPair
	Body     Node
}

// BindingPair is one <variable value> binding.
type BindingPair struct {
	base
	Variable *Symbol
	Value    Node
}

// MatchExpression is parsed and annotated but never compiled.
type MatchExpression struct {
	base
	Value    Node
	Patterns []*PatternPair
}

// PatternPair is one (pattern expr) clause.
type PatternPair struct {
	base
	Pattern Node
	Expr    Node
}

// Keywords that head special forms.
const (
	KeywordFun   = "fun"
	KeywordLet   = "let"
	KeywordIf    = "if"
	KeywordMatch = "match"
)

// IsKeyword reports whether name heads a special form.
func IsKeyword(name string) bool {
	switch name {
	case KeywordFun, KeywordLet, KeywordIf, KeywordMatch:
		return true
	}
	return false
}

func join(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, " ")
}

func form(head string, rest ...string) string {
	return "(" + strings.Join(append([]string{head}, rest...), " ") + ")"
}

func (n *Num) String() string    { return strconv.FormatInt(n.Value, 10) }
func (s *Symbol) String() string { return s.Name }
func (l *List) String() string   { return "[" + join(l.Items) + "]" }
func (t *Tuple) String() string  { return "<" + join(t.Items) + ">" }
func (s *SExpr) String() string  { return "(" + join(s.Items) + ")" }

func (e *IfExpression) String() string {
	return form(KeywordIf, e.Test.String(), e.TrueBranch.String(), e.FalseBranch.String())
}

func (f *AnonymousFunction) String() string {
	params := make([]Node, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, p)
	}
	return form(KeywordFun, "("+join(params)+")", f.Body.String())
}

func (a *FunctionApplication) String() string {
	return "(" + join(append([]Node{a.Func}, a.Args...)) + ")"
}

func (a *ClosureApplication) String() string {
	return "(" + join(append([]Node{a.Func}, a.Args...)) + ")"
}

func (l *LetExpressions) String() string {
	pairs := make([]string, 0, len(l.Bindings))
	for _, b := range l.Bindings {
		pairs = append(pairs, b.String())
	}
	return form(KeywordLet, "("+strings.Join(pairs, " ")+")", l.Body.String())
}

func (b *BindingPair) String() string {
	return "<" + b.Variable.String() + " " + b.Value.String() + ">"
}

func (m *MatchExpression) String() string {
	clauses := make([]string, 0, len(m.Patterns))
	for _, p := range m.Patterns {
		clauses = append(clauses, p.String())
	}
	return form(KeywordMatch, append([]string{m.Value.String()}, clauses...)...)
}

func (p *PatternPair) String() string {
	return "(" + p.Pattern.String() + " " + p.Expr.String() + ")"
}
