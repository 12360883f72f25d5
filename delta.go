package lambdakit

import (
	"fmt"
	"strings"

	"github.com/user/lambdakit/packages/bytecode"
	"github.com/user/lambdakit/packages/vm"
)

// StepDelta is the observable change made by a single Step.
// デバッガはこの差分だけを表示する。
type StepDelta struct {
	Step  int
	Instr bytecode.Instruction

	BeforePC    int
	AfterPC     int
	BeforeDepth int
	AfterDepth  int

	// Allocated holds the heap values created by the step, in address
	// order.
	Allocated []vm.Ref
	Halted    bool
}

// Jumped reports whether control left the fall-through path.
func (d StepDelta) Jumped() bool {
	return d.AfterPC != d.BeforePC+1
}

func (d StepDelta) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %4d %-24s", d.Step, d.BeforePC, d.Instr)
	if d.Jumped() {
		fmt.Fprintf(&b, " -> %d", d.AfterPC)
	}
	if d.AfterDepth != d.BeforeDepth {
		fmt.Fprintf(&b, " depth %d -> %d", d.BeforeDepth, d.AfterDepth)
	}
	if n := len(d.Allocated); n > 0 {
		fmt.Fprintf(&b, " +%d heap", n)
	}
	if d.Halted {
		b.WriteString(" (halted)")
	}
	return b.String()
}

type machineMark struct {
	pc      int
	depth   int
	heapLen int
}

func mark(m *vm.Machine) machineMark {
	return machineMark{pc: m.PC(), depth: m.Depth(), heapLen: m.Heap().Len()}
}

// deltaSince compares m with a mark taken before its last step.
func deltaSince(m *vm.Machine, before machineMark) StepDelta {
	d := StepDelta{
		Step:        m.Steps(),
		Instr:       m.Instr(),
		BeforePC:    before.pc,
		AfterPC:     m.PC(),
		BeforeDepth: before.depth,
		AfterDepth:  m.Depth(),
		Halted:      m.Halted(),
	}
	h := m.Heap()
	for addr := before.heapLen; addr < h.Len(); addr++ {
		v, _ := h.At(addr)
		d.Allocated = append(d.Allocated, vm.Ref{Kind: v.Kind(), Addr: addr})
	}
	return d
}
