// Package vm executes bytecode on a chain of stack frames over an
// append-only heap.
package vm

import (
	"fmt"
)

// Kind tags a heap value.
type Kind int

const (
	BASIC Kind = iota
	VECTOR
	BUILTIN
	FUNCTION
	CLOSURE

	undefinedKind Kind = -1
)

func (k Kind) String() string {
	switch k {
	case BASIC:
		return "BASIC"
	case VECTOR:
		return "VECTOR"
	case BUILTIN:
		return "BUILTIN"
	case FUNCTION:
		return "FUNCTION"
	case CLOSURE:
		return "CLOSURE"
	case undefinedKind:
		return "UNDEFINED"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Ref is a tagged heap address. Refs are plain values; the heap never
// moves or frees what they point to.
type Ref struct {
	Kind Kind
	Addr int
}

// Undefined fills a slot reserved by INITVAR until STOREA writes it.
var Undefined = Ref{Kind: undefinedKind, Addr: -1}

// Defined reports whether r points at a heap value.
func (r Ref) Defined() bool { return r.Kind != undefinedKind }

func (r Ref) String() string {
	if !r.Defined() {
		return "undefined"
	}
	return fmt.Sprintf("@%d:%s", r.Addr, r.Kind)
}

// Value is a heap value. Values are never mutated after allocation.
type Value interface {
	Kind() Kind
	String() string
}

// Native is a builtin implementation. It reads its arguments from the
// current frame's slots and must finish by returning a value through the
// machine.
type Native func(m *Machine) error

// BasicValue is an integer.
type BasicValue int64

func (BasicValue) Kind() Kind       { return BASIC }
func (v BasicValue) String() string { return fmt.Sprintf("BASIC %d", int64(v)) }

// VectorValue is an ordered sequence of references. Lists and tuples share
// the representation.
type VectorValue struct {
	Items []Ref
	Tuple bool
}

func (VectorValue) Kind() Kind { return VECTOR }
func (v VectorValue) String() string {
	tag := "list"
	if v.Tuple {
		tag = "tuple"
	}
	return fmt.Sprintf("VECTOR %s %v", tag, v.Items)
}

// BuiltinValue is a native callable.
type BuiltinValue struct {
	Name  string
	Index int
	Fn    Native
}

func (BuiltinValue) Kind() Kind       { return BUILTIN }
func (v BuiltinValue) String() string { return "BUILTIN " + v.Name }

// FunctionValue is a compiled function. Env is the frame it was created in;
// calls link their frame's static chain to it.
type FunctionValue struct {
	Entry int
	Arity int
	Env   *Frame
}

func (FunctionValue) Kind() Kind { return FUNCTION }
func (v FunctionValue) String() string {
	return fmt.Sprintf("FUNCTION entry=%d arity=%d", v.Entry, v.Arity)
}

// ClosureValue is a partially applied function: the arguments supplied so
// far and the ARGCHECK to resume at.
type ClosureValue struct {
	Args   Ref
	Resume int
	Env    *Frame
}

func (ClosureValue) Kind() Kind { return CLOSURE }
func (v ClosureValue) String() string {
	return fmt.Sprintf("CLOSURE args=%s resume=%d", v.Args, v.Resume)
}
