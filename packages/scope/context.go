// Package scope resolves lexical names into frame coordinates and hands out
// jump labels.
package scope

import (
	"fmt"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/user/lambdakit/packages/syntax"
)

// Resolver resolves predeclared names. Builtins live at depth -1.
type Resolver interface {
	ResolveBuiltin(name string) (int, bool)
	BuiltinNames() []string
}

// Option configures a Context.
type Option func(*Context)

// WithStrict makes references to unknown names an error instead of an
// implicit binding site.
func WithStrict() Option {
	return func(c *Context) { c.strict = true }
}

type frameRecord struct {
	depth    int
	nextSlot int
}

type scopeRecord struct {
	parent int // -1 for the root
	frame  int
	names  map[string]*syntax.Symbol
}

// Context is an arena of scopes. Scopes refer to their parent and to the
// frame that owns their slot counter by index. Index 0 is the root scope at
// depth 0.
type Context struct {
	resolver Resolver
	strict   bool
	label    int

	frames []frameRecord
	scopes []scopeRecord
}

// NewContext returns an empty root context. The label counter starts at -1
// so the first label is label0. resolver may be nil.
func NewContext(resolver Resolver, opts ...Option) *Context {
	c := &Context{
		resolver: resolver,
		label:    -1,
		frames:   []frameRecord{{depth: 0}},
		scopes:   []scopeRecord{{parent: -1, frame: 0, names: map[string]*syntax.Symbol{}}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strict reports whether unknown names are rejected.
func (c *Context) Strict() bool { return c.strict }

// Labels is the number of labels handed out so far.
func (c *Context) Labels() int { return c.label + 1 }

// Scopes is the number of scopes in the arena.
func (c *Context) Scopes() int { return len(c.scopes) }

func (c *Context) nextLabel() string {
	c.label++
	return fmt.Sprintf("label%d", c.label)
}

func (c *Context) depth(at int) int {
	return c.frames[c.scopes[at].frame].depth
}

// child opens a scope under parent. A new frame starts one level deeper with
// its slot counter at zero; otherwise the child shares the parent's frame.
func (c *Context) child(parent int, newFrame bool) int {
	frame := c.scopes[parent].frame
	if newFrame {
		c.frames = append(c.frames, frameRecord{depth: c.depth(parent) + 1})
		frame = len(c.frames) - 1
	}
	c.scopes = append(c.scopes, scopeRecord{parent: parent, frame: frame, names: map[string]*syntax.Symbol{}})
	return len(c.scopes) - 1
}

func (c *Context) lookup(at int, name string) (*syntax.Symbol, bool) {
	for i := at; i >= 0; i = c.scopes[i].parent {
		if sym, ok := c.scopes[i].names[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// declare makes sym a binding site in scope at, taking the next slot of the
// scope's frame. Slots are never reused within a frame.
func (c *Context) declare(at int, sym *syntax.Symbol) error {
	f := &c.frames[c.scopes[at].frame]
	if err := sym.Attributes().Bind(f.depth, f.nextSlot); err != nil {
		return err
	}
	f.nextSlot++
	c.scopes[at].names[sym.Name] = sym
	return nil
}

// visible lists every name reachable from scope at, builtins included.
func (c *Context) visible(at int) []string {
	seen := map[string]bool{}
	for i := at; i >= 0; i = c.scopes[i].parent {
		for name := range c.scopes[i].names {
			seen[name] = true
		}
	}
	if c.resolver != nil {
		for _, name := range c.resolver.BuiltinNames() {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// suggest finds the closest visible name within maxDistance edits. Ties go
// to the first name alphabetically.
func (c *Context) suggest(at int, needle string, maxDistance int) string {
	match := ""
	closest := maxDistance + 1
	for _, name := range c.visible(at) {
		d := levenshtein.DistanceForStrings(
			[]rune(strings.ToLower(needle)),
			[]rune(strings.ToLower(name)),
			levenshtein.DefaultOptionsWithSub,
		)
		if d < closest {
			closest = d
			match = name
		}
	}
	return match
}
