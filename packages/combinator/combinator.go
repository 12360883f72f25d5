// Package combinator implements backtracking parser combinators over any
// indexable input. A parser either succeeds, returning a value and leaving
// the cursor after what it consumed, or fails, returning false and leaving
// the cursor exactly where it found it.
package combinator

// Cursor walks an indexable input.
type Cursor[T any] struct {
	input []T
	pos   int
}

// NewCursor wraps input with a cursor at position 0.
func NewCursor[T any](input []T) *Cursor[T] {
	return &Cursor[T]{input: input}
}

// Pos returns the index of the current element.
func (c *Cursor[T]) Pos() int { return c.pos }

// Reset moves the cursor back (or forward) to pos.
func (c *Cursor[T]) Reset(pos int) { c.pos = pos }

// Len returns the length of the underlying input.
func (c *Cursor[T]) Len() int { return len(c.input) }

// AtEnd reports whether every element has been consumed.
func (c *Cursor[T]) AtEnd() bool { return c.pos >= len(c.input) }

// Current returns the element under the cursor.
func (c *Cursor[T]) Current() (T, bool) {
	if c.AtEnd() {
		var zero T
		return zero, false
	}
	return c.input[c.pos], true
}

func (c *Cursor[T]) advance() { c.pos++ }

// Parser consumes a prefix of the cursor's remaining input.
type Parser[T, R any] func(c *Cursor[T]) (R, bool)

// Parse runs p from the start of input and returns the result together with
// the number of elements consumed.
func (p Parser[T, R]) Parse(input []T) (R, int, bool) {
	c := NewCursor(input)
	out, ok := p(c)
	return out, c.Pos(), ok
}

// Match consumes one element satisfying pred.
func Match[T any](pred func(T) bool) Parser[T, T] {
	return func(c *Cursor[T]) (T, bool) {
		cur, ok := c.Current()
		if !ok || !pred(cur) {
			var zero T
			return zero, false
		}
		c.advance()
		return cur, true
	}
}

// Sequence runs every parser in order. It fails atomically: if any element
// fails the cursor returns to where the sequence started.
func Sequence[T, R any](ps ...Parser[T, R]) Parser[T, []R] {
	return func(c *Cursor[T]) ([]R, bool) {
		start := c.Pos()
		out := make([]R, 0, len(ps))
		for _, p := range ps {
			r, ok := p(c)
			if !ok {
				c.Reset(start)
				return nil, false
			}
			out = append(out, r)
		}
		return out, true
	}
}

// Alternation tries each parser in order from the same position; the first
// success wins.
func Alternation[T, R any](ps ...Parser[T, R]) Parser[T, R] {
	return func(c *Cursor[T]) (R, bool) {
		start := c.Pos()
		for _, p := range ps {
			c.Reset(start)
			if r, ok := p(c); ok {
				return r, true
			}
		}
		c.Reset(start)
		var zero R
		return zero, false
	}
}

// Transform maps the result of p with f.
func Transform[T, A, B any](p Parser[T, A], f func(A) B) Parser[T, B] {
	return func(c *Cursor[T]) (B, bool) {
		a, ok := p(c)
		if !ok {
			var zero B
			return zero, false
		}
		return f(a), true
	}
}

// Many matches p one or more times, greedily. When p eventually fails the
// cursor is put back at the end of the last successful match.
func Many[T, R any](p Parser[T, R]) Parser[T, []R] {
	return func(c *Cursor[T]) ([]R, bool) {
		start := c.Pos()
		first, ok := p(c)
		if !ok {
			c.Reset(start)
			return nil, false
		}
		out := []R{first}
		last := c.Pos()
		for {
			r, ok := p(c)
			if !ok || c.Pos() == last {
				break
			}
			out = append(out, r)
			last = c.Pos()
		}
		c.Reset(last)
		return out, true
	}
}

// Optional never fails: it yields a one-element slice when p matches and an
// empty slice otherwise.
func Optional[T, R any](p Parser[T, R]) Parser[T, []R] {
	return func(c *Cursor[T]) ([]R, bool) {
		start := c.Pos()
		if r, ok := p(c); ok {
			return []R{r}, true
		}
		c.Reset(start)
		return []R{}, true
	}
}

// ZeroOrMore is Optional(Many(p)), flattened.
func ZeroOrMore[T, R any](p Parser[T, R]) Parser[T, []R] {
	return Transform(Optional(Many(p)), func(rs [][]R) []R {
		if len(rs) == 0 {
			return []R{}
		}
		return rs[0]
	})
}

// Delay builds the parser on every use, which lets recursive rules refer to
// parsers that are not constructed yet.
func Delay[T, R any](producer func() Parser[T, R]) Parser[T, R] {
	return func(c *Cursor[T]) (R, bool) {
		return producer()(c)
	}
}

// Erase widens the result type to any so heterogeneous parsers can share a
// Sequence.
func Erase[T, R any](p Parser[T, R]) Parser[T, any] {
	return Transform(p, func(r R) any { return r })
}

// Spanned carries a result together with the input range it was parsed from.
type Spanned[R any] struct {
	Value R
	Start int
	End   int
}

// Span records the index range p consumed.
func Span[T, R any](p Parser[T, R]) Parser[T, Spanned[R]] {
	return func(c *Cursor[T]) (Spanned[R], bool) {
		start := c.Pos()
		r, ok := p(c)
		if !ok {
			return Spanned[R]{}, false
		}
		return Spanned[R]{Value: r, Start: start, End: c.Pos()}, true
	}
}
