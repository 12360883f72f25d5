package vm

import (
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/user/lambdakit/packages/bytecode"
)

// Machine is a single-threaded interpreter for one instruction sequence. It
// exclusively owns its heap, frames and label table.
type Machine struct {
	code []bytecode.Instruction

	pc      int
	ir      bytecode.Instruction
	root    *Frame
	frame   *Frame
	heap    Heap
	returns []int
	lits    []int64

	labels   map[string]int
	scans    int
	builtins []Ref

	steps  int
	halted bool
	fault  *Fault
}

// New returns a machine positioned at the first instruction with an empty
// root frame at depth 0.
func New(code []bytecode.Instruction) *Machine {
	root := &Frame{Depth: 0}
	m := &Machine{
		code:     code,
		root:     root,
		frame:    root,
		labels:   make(map[string]int),
		builtins: make([]Ref, bytecode.BuiltinCount),
		halted:   len(code) == 0,
	}
	for i := range m.builtins {
		m.builtins[i] = Undefined
	}
	return m
}

// Code returns the program being executed.
func (m *Machine) Code() []bytecode.Instruction { return m.code }

// PC is the address of the next instruction.
func (m *Machine) PC() int { return m.pc }

// Instr is the instruction register: the last instruction fetched.
func (m *Machine) Instr() bytecode.Instruction { return m.ir }

// Steps counts executed instructions.
func (m *Machine) Steps() int { return m.steps }

// Depth is the depth of the current frame.
func (m *Machine) Depth() int { return m.frame.Depth }

// Frame returns the current frame. Callers must not modify it.
func (m *Machine) Frame() *Frame { return m.frame }

// Heap returns the heap. Callers must not allocate through it.
func (m *Machine) Heap() *Heap { return &m.heap }

// Halted reports whether the program ran to completion.
func (m *Machine) Halted() bool { return m.halted }

// Fault returns the fault that stopped the machine, if any.
func (m *Machine) Fault() *Fault { return m.fault }

// Deref resolves a reference against this machine's heap.
func (m *Machine) Deref(r Ref) (Value, error) { return m.heap.Deref(r) }

// Result is the value on top of the root frame once the machine halted.
func (m *Machine) Result() (Ref, bool) {
	if !m.halted || len(m.root.Operands) == 0 {
		return Ref{}, false
	}
	return m.root.Operands[len(m.root.Operands)-1], true
}

// Run steps until the program halts or faults.
func (m *Machine) Run() error {
	for !m.halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step fetches the instruction at pc, advances pc and executes it. It
// returns ErrHalted once the program is done and the same *Fault on every
// call after a fault.
func (m *Machine) Step() error {
	if m.fault != nil {
		return m.fault
	}
	if m.halted {
		return ErrHalted
	}
	if m.pc < 0 || m.pc >= len(m.code) {
		m.ir = bytecode.Instruction{}
		m.pc++
		return m.faultf(BadInstruction, "pc %d outside program of length %d", m.pc-1, len(m.code))
	}
	m.ir = m.code[m.pc]
	m.pc++
	m.steps++
	if glog.V(9) {
		glog.Infof("vm: %4d %-24s depth=%d", m.pc-1, m.ir, m.frame.Depth)
	}
	if err := m.exec(m.ir); err != nil {
		return err
	}
	if m.pc >= len(m.code) {
		m.halted = true
	}
	return nil
}

// ResolveLabel returns the address of LABEL name. The first lookup of each
// name scans the program; later lookups are served from the table.
func (m *Machine) ResolveLabel(name string) (int, bool) {
	if pc, ok := m.labels[name]; ok {
		return pc, true
	}
	m.scans++
	for pc, ins := range m.code {
		if ins.Op == bytecode.LABEL && ins.Label == name {
			m.labels[name] = pc
			return pc, true
		}
	}
	return 0, false
}

// LabelScans counts how many times ResolveLabel had to scan the program.
func (m *Machine) LabelScans() int { return m.scans }

func (m *Machine) jump(label string) error {
	pc, ok := m.ResolveLabel(label)
	if !ok {
		return m.faultf(UnresolvedLabel, "no label %q", label)
	}
	m.pc = pc
	return nil
}

func (m *Machine) push(r Ref) { m.frame.push(r) }

func (m *Machine) pop() (Ref, error) {
	r, ok := m.frame.pop()
	if !ok {
		return Ref{}, m.faultf(Underflow, "operand stack of frame at depth %d is empty", m.frame.Depth)
	}
	return r, nil
}

func (m *Machine) popBasic() (int64, error) {
	r, err := m.pop()
	if err != nil {
		return 0, err
	}
	return m.basic(r)
}

func (m *Machine) basic(r Ref) (int64, error) {
	v, err := m.heap.Deref(r)
	if err != nil {
		return 0, m.faultf(TypeMismatch, "%v", err)
	}
	b, ok := v.(BasicValue)
	if !ok {
		return 0, m.faultf(TypeMismatch, "expected BASIC, got %s", v.Kind())
	}
	return int64(b), nil
}

func (m *Machine) vector(r Ref) (VectorValue, error) {
	v, err := m.heap.Deref(r)
	if err != nil {
		return VectorValue{}, m.faultf(TypeMismatch, "%v", err)
	}
	vec, ok := v.(VectorValue)
	if !ok {
		return VectorValue{}, m.faultf(TypeMismatch, "expected VECTOR, got %s", v.Kind())
	}
	return vec, nil
}

// ret discards the current frame, pushes r onto the caller and resumes at
// the saved return address. Builtins finish through it.
func (m *Machine) ret(r Ref) error {
	caller := m.frame.Caller
	if caller == nil {
		return m.faultf(Underflow, "return from the root frame")
	}
	n := len(m.returns)
	if n == 0 {
		return m.faultf(Underflow, "return address stack is empty")
	}
	m.frame = caller
	m.push(r)
	m.pc = m.returns[n-1]
	m.returns = m.returns[:n-1]
	return nil
}

// enter links the current frame to the environment of the callee it is
// about to run.
func (m *Machine) enter(env *Frame, pc int) {
	m.frame.Up = env
	m.frame.Depth = env.Depth + 1
	m.pc = pc
}

func (m *Machine) builtin(idx int) (Ref, error) {
	if idx < 0 || idx >= len(m.builtins) {
		return Ref{}, m.faultf(BadInstruction, "no builtin with index %d", idx)
	}
	if r := m.builtins[idx]; r.Defined() {
		return r, nil
	}
	name, _ := bytecode.BuiltinName(idx)
	r := m.heap.Alloc(BuiltinValue{Name: name, Index: idx, Fn: natives[name]})
	m.builtins[idx] = r
	return r, nil
}

func (m *Machine) exec(ins bytecode.Instruction) error {
	switch ins.Op {
	case bytecode.LOAD:
		m.lits = append(m.lits, ins.Const)

	case bytecode.MKBASIC:
		n := len(m.lits)
		if n == 0 {
			return m.faultf(Underflow, "no literal loaded")
		}
		c := m.lits[n-1]
		m.lits = m.lits[:n-1]
		m.push(m.heap.Alloc(BasicValue(c)))

	case bytecode.INITVAR:
		if ins.Slot < 0 {
			return m.faultf(BadInstruction, "negative slot")
		}
		m.frame.reserve(ins.Slot)
		m.frame.Slots[ins.Slot] = Undefined

	case bytecode.STOREA:
		if ins.Slot < 0 {
			return m.faultf(BadInstruction, "negative slot")
		}
		r, err := m.pop()
		if err != nil {
			return err
		}
		m.frame.reserve(ins.Slot)
		m.frame.Slots[ins.Slot] = r

	case bytecode.LABEL:

	case bytecode.MKFUNC:
		m.push(m.heap.Alloc(FunctionValue{Entry: m.pc, Arity: ins.Arity, Env: m.frame}))
		return m.jump(ins.Label)

	case bytecode.ARGCHECK:
		have := len(m.frame.Slots)
		switch {
		case have == ins.Arity:
		case have > ins.Arity:
			return m.faultf(OverApplication, "function of arity %d applied to %d arguments", ins.Arity, have)
		default:
			args := make([]Ref, have)
			copy(args, m.frame.Slots)
			vec := m.heap.Alloc(VectorValue{Items: args})
			closure := m.heap.Alloc(ClosureValue{Args: vec, Resume: m.pc - 1, Env: m.frame.Up})
			return m.ret(closure)
		}

	case bytecode.JUMPZ:
		v, err := m.popBasic()
		if err != nil {
			return err
		}
		if v == 0 {
			return m.jump(ins.Label)
		}

	case bytecode.JUMP:
		return m.jump(ins.Label)

	case bytecode.PUSHSTACK:
		if ins.Count < 1 {
			return m.faultf(BadInstruction, "PUSHSTACK needs at least the callee")
		}
		args, ok := m.frame.popN(ins.Count)
		if !ok {
			return m.faultf(Underflow, "PUSHSTACK %d with %d operands", ins.Count, len(m.frame.Operands))
		}
		m.frame = &Frame{Depth: m.frame.Depth + 1, Up: m.frame, Caller: m.frame, Slots: args}

	case bytecode.APPLY:
		return m.apply()

	case bytecode.RETURN:
		r, err := m.pop()
		if err != nil {
			return err
		}
		return m.ret(r)

	case bytecode.LOADVAR:
		if ins.Depth == -1 {
			r, err := m.builtin(ins.Slot)
			if err != nil {
				return err
			}
			m.push(r)
			return nil
		}
		if ins.Depth > m.frame.Depth {
			return m.faultf(FutureFrame, "depth %d requested from depth %d", ins.Depth, m.frame.Depth)
		}
		f := m.frame.lookup(ins.Depth)
		if f == nil {
			return m.faultf(FutureFrame, "no frame at depth %d", ins.Depth)
		}
		if ins.Slot < 0 || ins.Slot >= len(f.Slots) || !f.Slots[ins.Slot].Defined() {
			return m.faultf(Uninitialized, "slot %d at depth %d has no value", ins.Slot, ins.Depth)
		}
		m.push(f.Slots[ins.Slot])

	default:
		return m.faultf(BadInstruction, "unknown opcode %s", ins.Op)
	}
	return nil
}

// apply pops the callee from the last slot of the freshly pushed frame and
// dispatches on its tag.
func (m *Machine) apply() error {
	callee, ok := m.frame.popSlot()
	if !ok {
		return m.faultf(Underflow, "APPLY without a callee")
	}
	v, err := m.heap.Deref(callee)
	if err != nil {
		return m.faultf(TypeMismatch, "%v", err)
	}
	m.returns = append(m.returns, m.pc)

	switch fn := v.(type) {
	case FunctionValue:
		m.enter(fn.Env, fn.Entry)
		return nil
	case ClosureValue:
		captured, err := m.vector(fn.Args)
		if err != nil {
			return err
		}
		slots := make([]Ref, 0, len(captured.Items)+len(m.frame.Slots))
		slots = append(slots, captured.Items...)
		m.frame.Slots = append(slots, m.frame.Slots...)
		m.enter(fn.Env, fn.Resume)
		return nil
	case BuiltinValue:
		if fn.Fn == nil {
			return m.faultf(BadInstruction, "builtin %s has no implementation", fn.Name)
		}
		return fn.Fn(m)
	}
	return m.faultf(TypeMismatch, "cannot apply %s", Format(&m.heap, callee))
}

// Format renders the value at r for people: 3, [1, 2], <1, 2>,
// <function/2>, <closure+1>, <builtin +>.
func (m *Machine) Format(r Ref) string { return Format(&m.heap, r) }

// Format renders r against h.
func Format(h *Heap, r Ref) string {
	if !r.Defined() {
		return "<undefined>"
	}
	v, err := h.Deref(r)
	if err != nil {
		return fmt.Sprintf("<bad %s>", r)
	}
	switch v := v.(type) {
	case BasicValue:
		return fmt.Sprintf("%d", int64(v))
	case VectorValue:
		parts := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			parts = append(parts, Format(h, item))
		}
		if v.Tuple {
			return "<" + strings.Join(parts, ", ") + ">"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case BuiltinValue:
		return "<builtin " + v.Name + ">"
	case FunctionValue:
		return fmt.Sprintf("<function/%d>", v.Arity)
	case ClosureValue:
		n := 0
		if args, ok := h.At(v.Args.Addr); ok {
			if vec, ok := args.(VectorValue); ok {
				n = len(vec.Items)
			}
		}
		return fmt.Sprintf("<closure+%d>", n)
	}
	return v.String()
}

// Repr dumps pc, the instruction register, the frame chain from the current
// frame outwards and the heap.
func (m *Machine) Repr() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pc: %d  ir: %s  steps: %d", m.pc, m.ir, m.steps)
	switch {
	case m.fault != nil:
		fmt.Fprintf(&b, "  fault: %s", m.fault.Code)
	case m.halted:
		b.WriteString("  halted")
	}
	b.WriteString("\nframes:\n")
	for f := m.frame; f != nil; f = f.Caller {
		fmt.Fprintf(&b, "  depth %d  slots %v  operands %v\n", f.Depth, f.Slots, f.Operands)
	}
	fmt.Fprintf(&b, "returns: %v\n", m.returns)
	b.WriteString("heap:\n")
	for addr, v := range m.heap.values {
		fmt.Fprintf(&b, "  @%-4d %s\n", addr, v)
	}
	return b.String()
}
