package vm

import (
	"github.com/pkg/errors"
)

// ErrBadRef is returned when a reference does not match the heap.
var ErrBadRef = errors.New("bad heap reference")

// Heap is append-only storage for values. Addresses increase strictly and
// are never reused.
type Heap struct {
	values []Value
}

// Alloc stores v and returns its reference.
func (h *Heap) Alloc(v Value) Ref {
	h.values = append(h.values, v)
	return Ref{Kind: v.Kind(), Addr: len(h.values) - 1}
}

// Deref returns the value at r. The tag in r must agree with the stored
// value.
func (h *Heap) Deref(r Ref) (Value, error) {
	if r.Addr < 0 || r.Addr >= len(h.values) {
		return nil, errors.Wrapf(ErrBadRef, "address %d out of range [0, %d)", r.Addr, len(h.values))
	}
	v := h.values[r.Addr]
	if v.Kind() != r.Kind {
		return nil, errors.Wrapf(ErrBadRef, "%s points at a %s", r, v.Kind())
	}
	return v, nil
}

// Len is the number of values allocated so far.
func (h *Heap) Len() int { return len(h.values) }

// At returns the value stored at addr without a tag check.
func (h *Heap) At(addr int) (Value, bool) {
	if addr < 0 || addr >= len(h.values) {
		return nil, false
	}
	return h.values[addr], true
}
