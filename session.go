package lambdakit

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/user/lambdakit/packages/vm"
)

var (
	ErrNoProgram  = errors.New("session: no program")
	ErrStepBudget = errors.New("step budget exhausted")
)

// Session runs one program on its own machine. Sessions never share
// mutable state, so any number may run the same Program concurrently; a
// single Session is not safe for concurrent use.
type Session struct {
	prog  *Program
	opts  Options
	m     *vm.Machine
	trace *TraceLog
}

// Result is the outcome of a completed run.
type Result struct {
	Value   vm.Ref
	Text    string
	Steps   int
	HeapLen int
}

// NewSession creates a session positioned before the first instruction.
func NewSession(prog *Program, opts Options) (*Session, error) {
	if prog == nil {
		return nil, ErrNoProgram
	}
	return &Session{
		prog:  prog,
		opts:  opts,
		m:     vm.New(prog.Code),
		trace: NewTraceLog(),
	}, nil
}

// Program returns the program being run.
func (s *Session) Program() *Program { return s.prog }

// Machine exposes the underlying machine for inspection. Stepping it
// directly bypasses the trace.
func (s *Session) Machine() *vm.Machine { return s.m }

// Trace returns the steps recorded so far. It stays empty unless
// Options.Trace is set.
func (s *Session) Trace() *TraceLog { return s.trace }

// Steps is the number of instructions executed.
func (s *Session) Steps() int { return s.m.Steps() }

// Done reports whether the machine halted or faulted.
func (s *Session) Done() bool { return s.m.Halted() || s.m.Fault() != nil }

// Step executes one instruction. It returns vm.ErrHalted after the end of
// the program and the machine's *vm.Fault once it faulted.
func (s *Session) Step() (StepDelta, error) {
	before := mark(s.m)
	if err := s.m.Step(); err != nil {
		return StepDelta{}, err
	}
	d := deltaSince(s.m, before)
	if s.opts.Trace {
		s.trace.Append(StepEvent{
			Step:    d.Step,
			PC:      d.BeforePC,
			Instr:   d.Instr,
			Depth:   d.AfterDepth,
			HeapLen: s.m.Heap().Len(),
		})
	}
	return d, nil
}

// Run steps until the machine halts, faults, runs out of budget or ctx is
// done.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	for !s.m.Halted() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.opts.MaxSteps > 0 && s.m.Steps() >= s.opts.MaxSteps {
			return nil, errors.Wrapf(ErrStepBudget, "after %d steps", s.m.Steps())
		}
		if _, err := s.Step(); err != nil {
			return nil, errors.Wrapf(err, "step %d", s.m.Steps())
		}
	}
	res, ok := s.Result()
	if !ok {
		return nil, errors.New("program left no value")
	}
	glog.V(3).Infof("lambdakit: run finished in %d steps, heap %d", res.Steps, res.HeapLen)
	return res, nil
}

// Result returns the final value once the machine has halted.
func (s *Session) Result() (*Result, bool) {
	r, ok := s.m.Result()
	if !ok {
		return nil, false
	}
	return &Result{
		Value:   r,
		Text:    s.m.Format(r),
		Steps:   s.m.Steps(),
		HeapLen: s.m.Heap().Len(),
	}, true
}
