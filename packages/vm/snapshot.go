package vm

import "github.com/user/lambdakit/packages/bytecode"

// FrameSnapshot is a copy of one frame's storage.
type FrameSnapshot struct {
	Depth    int
	Slots    []Ref
	Operands []Ref
}

// Snapshot is an immutable copy of the observable machine state. It is safe
// to keep after the machine moves on.
type Snapshot struct {
	PC      int
	Instr   bytecode.Instruction
	Steps   int
	Depth   int
	Returns int
	HeapLen int
	Halted  bool
	Fault   *Fault
	// Frames runs from the current frame out to the root.
	Frames []FrameSnapshot
}

func copyRefs(refs []Ref) []Ref {
	if refs == nil {
		return nil
	}
	out := make([]Ref, len(refs))
	copy(out, refs)
	return out
}

// Snapshot captures the current state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		PC:      m.pc,
		Instr:   m.ir,
		Steps:   m.steps,
		Depth:   m.frame.Depth,
		Returns: len(m.returns),
		HeapLen: m.heap.Len(),
		Halted:  m.halted,
		Fault:   m.fault,
	}
	for f := m.frame; f != nil; f = f.Caller {
		s.Frames = append(s.Frames, FrameSnapshot{
			Depth:    f.Depth,
			Slots:    copyRefs(f.Slots),
			Operands: copyRefs(f.Operands),
		})
	}
	return s
}
