package vm

import (
	"fmt"

	"github.com/user/lambdakit/packages/bytecode"
)

// variadic marks a builtin that accepts any number of arguments.
const variadic = -1

type builtinFunc func(m *Machine, args []Ref) (Ref, error)

var natives = map[string]Native{}

func define(name string, arity int, fn builtinFunc) {
	natives[name] = func(m *Machine) error {
		args := m.frame.Slots
		if arity != variadic && len(args) != arity {
			return m.faultf(Arity, "%s takes %d arguments, got %d", name, arity, len(args))
		}
		r, err := fn(m, args)
		if err != nil {
			return err
		}
		return m.ret(r)
	}
}

func (m *Machine) boolean(b bool) Ref {
	if b {
		return m.heap.Alloc(BasicValue(1))
	}
	return m.heap.Alloc(BasicValue(0))
}

func arith(op func(a, b int64) (int64, bool)) builtinFunc {
	return func(m *Machine, args []Ref) (Ref, error) {
		a, err := m.basic(args[0])
		if err != nil {
			return Ref{}, err
		}
		b, err := m.basic(args[1])
		if err != nil {
			return Ref{}, err
		}
		v, ok := op(a, b)
		if !ok {
			return Ref{}, m.faultf(DivideByZero, "%d / 0", a)
		}
		return m.heap.Alloc(BasicValue(v)), nil
	}
}

func compare(op func(a, b int64) bool) builtinFunc {
	return func(m *Machine, args []Ref) (Ref, error) {
		a, err := m.basic(args[0])
		if err != nil {
			return Ref{}, err
		}
		b, err := m.basic(args[1])
		if err != nil {
			return Ref{}, err
		}
		return m.boolean(op(a, b)), nil
	}
}

func build(tuple bool) builtinFunc {
	return func(m *Machine, args []Ref) (Ref, error) {
		items := make([]Ref, len(args))
		copy(items, args)
		return m.heap.Alloc(VectorValue{Items: items, Tuple: tuple}), nil
	}
}

func (m *Machine) list(r Ref) ([]Ref, error) {
	vec, err := m.vector(r)
	if err != nil {
		return nil, err
	}
	if vec.Tuple {
		return nil, m.faultf(TypeMismatch, "expected a list, got a tuple")
	}
	return vec.Items, nil
}

// equal compares basics by value and vectors element-wise; anything else is
// equal only to itself.
func (m *Machine) equal(a, b Ref) bool {
	if a == b {
		return true
	}
	va, err := m.heap.Deref(a)
	if err != nil {
		return false
	}
	vb, err := m.heap.Deref(b)
	if err != nil {
		return false
	}
	switch x := va.(type) {
	case BasicValue:
		y, ok := vb.(BasicValue)
		return ok && x == y
	case VectorValue:
		y, ok := vb.(VectorValue)
		if !ok || x.Tuple != y.Tuple || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !m.equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func init() {
	define("+", 2, arith(func(a, b int64) (int64, bool) { return a + b, true }))
	define("-", 2, arith(func(a, b int64) (int64, bool) { return a - b, true }))
	define("*", 2, arith(func(a, b int64) (int64, bool) { return a * b, true }))
	define("/", 2, arith(func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}))
	define("%", 2, arith(func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	}))

	define("eq", 2, func(m *Machine, args []Ref) (Ref, error) {
		return m.boolean(m.equal(args[0], args[1])), nil
	})
	define("lt", 2, compare(func(a, b int64) bool { return a < b }))
	define("gt", 2, compare(func(a, b int64) bool { return a > b }))
	define("lte", 2, compare(func(a, b int64) bool { return a <= b }))
	define("gte", 2, compare(func(a, b int64) bool { return a >= b }))
	define("and", 2, compare(func(a, b int64) bool { return a != 0 && b != 0 }))
	define("or", 2, compare(func(a, b int64) bool { return a != 0 || b != 0 }))
	define("not", 1, func(m *Machine, args []Ref) (Ref, error) {
		a, err := m.basic(args[0])
		if err != nil {
			return Ref{}, err
		}
		return m.boolean(a == 0), nil
	})

	define("list", variadic, build(false))
	define("tuple", variadic, build(true))
	define("cons", 2, func(m *Machine, args []Ref) (Ref, error) {
		rest, err := m.list(args[1])
		if err != nil {
			return Ref{}, err
		}
		items := make([]Ref, 0, len(rest)+1)
		items = append(items, args[0])
		items = append(items, rest...)
		return m.heap.Alloc(VectorValue{Items: items}), nil
	})
	define("head", 1, func(m *Machine, args []Ref) (Ref, error) {
		items, err := m.list(args[0])
		if err != nil {
			return Ref{}, err
		}
		if len(items) == 0 {
			return Ref{}, m.faultf(OutOfRange, "head of an empty list")
		}
		return items[0], nil
	})
	define("tail", 1, func(m *Machine, args []Ref) (Ref, error) {
		items, err := m.list(args[0])
		if err != nil {
			return Ref{}, err
		}
		if len(items) == 0 {
			return Ref{}, m.faultf(OutOfRange, "tail of an empty list")
		}
		rest := make([]Ref, len(items)-1)
		copy(rest, items[1:])
		return m.heap.Alloc(VectorValue{Items: rest}), nil
	})
	define("empty", 1, func(m *Machine, args []Ref) (Ref, error) {
		items, err := m.list(args[0])
		if err != nil {
			return Ref{}, err
		}
		return m.boolean(len(items) == 0), nil
	})
	define("len", 1, func(m *Machine, args []Ref) (Ref, error) {
		vec, err := m.vector(args[0])
		if err != nil {
			return Ref{}, err
		}
		return m.heap.Alloc(BasicValue(len(vec.Items))), nil
	})
	define("nth", 2, func(m *Machine, args []Ref) (Ref, error) {
		vec, err := m.vector(args[0])
		if err != nil {
			return Ref{}, err
		}
		i, err := m.basic(args[1])
		if err != nil {
			return Ref{}, err
		}
		if i < 0 || i >= int64(len(vec.Items)) {
			return Ref{}, m.faultf(OutOfRange, "index %d outside %d items", i, len(vec.Items))
		}
		return vec.Items[i], nil
	})

	for i := 0; i < bytecode.BuiltinCount; i++ {
		name, _ := bytecode.BuiltinName(i)
		if natives[name] == nil {
			panic(fmt.Sprintf("vm: builtin %q has no implementation", name))
		}
	}
}
