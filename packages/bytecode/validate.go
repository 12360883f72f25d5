package bytecode

import (
	"context"
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
)

// ValidationError is one problem found in an instruction sequence.
type ValidationError struct {
	Type    string
	PC      int
	Instr   Instruction
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s at %d (%s): %s", e.Type, e.PC, e.Instr, e.Message)
}

// ValidationResult contains the result of validation.
// Validate is a gate in front of image loading and VM construction.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
	// Whether the check was cancelled before completing
	Cancelled bool
}

// Err folds every problem into a single error, or nil when valid.
func (r *ValidationResult) Err() error {
	var result *multierror.Error
	for _, e := range r.Errors {
		result = multierror.Append(result, e)
	}
	if r.Cancelled {
		result = multierror.Append(result, context.Canceled)
	}
	return result.ErrorOrNil()
}

func (r *ValidationResult) fail(typ string, pc int, ins Instruction, format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{
		Type:    typ,
		PC:      pc,
		Instr:   ins,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks the structural invariants the VM relies on: unique labels,
// resolvable jump targets, argument ranges and builtin indices. The VM
// would otherwise only find these at the moment it executes the bad
// instruction.
func Validate(ctx context.Context, code []Instruction) *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Errors: make([]ValidationError, 0),
	}

	defined := make(map[string]int)
	for pc, ins := range code {
		if ins.Op != LABEL {
			continue
		}
		if first, ok := defined[ins.Label]; ok {
			result.fail("duplicate_label", pc, ins, "label already defined at %d", first)
			continue
		}
		defined[ins.Label] = pc
	}

	for pc, ins := range code {
		// Check cancellation periodically
		if pc%1024 == 0 {
			select {
			case <-ctx.Done():
				result.Cancelled = true
				return result
			default:
			}
		}

		switch ins.Op {
		case LOAD, MKBASIC, APPLY, RETURN:
		case LABEL:
			if ins.Label == "" {
				result.fail("empty_label", pc, ins, "label has no name")
			}
		case JUMPZ, JUMP, MKFUNC:
			if _, ok := defined[ins.Label]; !ok {
				result.fail("unresolved_label", pc, ins, "no LABEL %q in program", ins.Label)
			}
			if ins.Op == MKFUNC && ins.Arity < 0 {
				result.fail("bad_arity", pc, ins, "negative arity %d", ins.Arity)
			}
		case ARGCHECK:
			if ins.Arity < 0 {
				result.fail("bad_arity", pc, ins, "negative arity %d", ins.Arity)
			}
		case INITVAR, STOREA:
			if ins.Slot < 0 {
				result.fail("bad_slot", pc, ins, "negative slot %d", ins.Slot)
			}
		case PUSHSTACK:
			if ins.Count < 1 {
				result.fail("bad_count", pc, ins, "a call frame needs at least the callee")
			}
		case LOADVAR:
			switch {
			case ins.Depth < -1:
				result.fail("bad_depth", pc, ins, "depth %d below the builtin level", ins.Depth)
			case ins.Depth == -1:
				if _, ok := BuiltinName(ins.Slot); !ok {
					result.fail("unknown_builtin", pc, ins, "no builtin with index %d", ins.Slot)
				}
			case ins.Slot < 0:
				result.fail("bad_slot", pc, ins, "negative slot %d", ins.Slot)
			}
		default:
			result.fail("bad_opcode", pc, ins, "unknown opcode %d", int(ins.Op))
		}
	}

	return result
}
