package vm

// Frame is one activation. Up is the lexically enclosing frame that LOADVAR
// walks; Caller is the frame RETURN goes back to. Slots hold parameters and
// let variables, Operands hold temporaries.
type Frame struct {
	Depth    int
	Up       *Frame
	Caller   *Frame
	Slots    []Ref
	Operands []Ref
}

func (f *Frame) push(r Ref) {
	f.Operands = append(f.Operands, r)
}

func (f *Frame) pop() (Ref, bool) {
	n := len(f.Operands)
	if n == 0 {
		return Ref{}, false
	}
	r := f.Operands[n-1]
	f.Operands = f.Operands[:n-1]
	return r, true
}

// popN removes the top n operands, oldest first.
func (f *Frame) popN(n int) ([]Ref, bool) {
	if n > len(f.Operands) {
		return nil, false
	}
	k := len(f.Operands) - n
	out := make([]Ref, n)
	copy(out, f.Operands[k:])
	f.Operands = f.Operands[:k]
	return out, true
}

func (f *Frame) popSlot() (Ref, bool) {
	n := len(f.Slots)
	if n == 0 {
		return Ref{}, false
	}
	r := f.Slots[n-1]
	f.Slots = f.Slots[:n-1]
	return r, true
}

// reserve grows the slot area so that slot is addressable.
func (f *Frame) reserve(slot int) {
	for len(f.Slots) <= slot {
		f.Slots = append(f.Slots, Undefined)
	}
}

// lookup walks the static chain to the frame at depth.
func (f *Frame) lookup(depth int) *Frame {
	for cur := f; cur != nil; cur = cur.Up {
		if cur.Depth == depth {
			return cur
		}
	}
	return nil
}
