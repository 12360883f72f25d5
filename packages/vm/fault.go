package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/user/lambdakit/packages/bytecode"
)

// FaultCode classifies a runtime fault.
type FaultCode string

const (
	TypeMismatch    FaultCode = "TYPE_MISMATCH"
	UnresolvedLabel FaultCode = "UNRESOLVED_LABEL"
	FutureFrame     FaultCode = "FUTURE_FRAME"
	OverApplication FaultCode = "OVER_APPLICATION"
	Underflow       FaultCode = "UNDERFLOW"
	Uninitialized   FaultCode = "UNINITIALIZED"
	Arity           FaultCode = "ARITY"
	DivideByZero    FaultCode = "DIVIDE_BY_ZERO"
	OutOfRange      FaultCode = "OUT_OF_RANGE"
	BadInstruction  FaultCode = "BAD_INSTRUCTION"
)

// ErrHalted is returned by Step once the program has run to completion.
var ErrHalted = errors.New("machine halted")

// Fault is a fatal runtime error. A machine that faulted stays faulted.
type Fault struct {
	PC      int
	Instr   bytecode.Instruction
	Code    FaultCode
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at %d (%s): %s", f.Code, f.PC, f.Instr, f.Message)
}

func (m *Machine) faultf(code FaultCode, format string, args ...interface{}) error {
	m.fault = &Fault{PC: m.pc - 1, Instr: m.ir, Code: code, Message: fmt.Sprintf(format, args...)}
	return m.fault
}
