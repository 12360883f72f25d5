// Package bytecode defines the instruction set, the compiler from annotated
// syntax trees and the on-disk image format.
package bytecode

import (
	"fmt"

	"github.com/pkg/errors"
)

// Op is an opcode.
type Op int

const (
	LOAD Op = iota
	MKBASIC
	INITVAR
	STOREA
	LABEL
	MKFUNC
	ARGCHECK
	JUMPZ
	JUMP
	PUSHSTACK
	APPLY
	RETURN
	LOADVAR
)

var opNames = [...]string{
	LOAD:      "LOAD",
	MKBASIC:   "MKBASIC",
	INITVAR:   "INITVAR",
	STOREA:    "STOREA",
	LABEL:     "LABEL",
	MKFUNC:    "MKFUNC",
	ARGCHECK:  "ARGCHECK",
	JUMPZ:     "JUMPZ",
	JUMP:      "JUMP",
	PUSHSTACK: "PUSHSTACK",
	APPLY:     "APPLY",
	RETURN:    "RETURN",
	LOADVAR:   "LOADVAR",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp maps an opcode name back to its Op.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, errors.Errorf("unknown opcode %q", name)
}

// MarshalYAML writes the opcode by name.
func (o Op) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}

// UnmarshalYAML reads an opcode name.
func (o *Op) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	op, err := ParseOp(name)
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Instruction is one immutable VM instruction. Only the fields its opcode
// uses are meaningful:
//
//	LOAD      Const
//	INITVAR   Slot
//	STOREA    Slot
//	LABEL     Label
//	MKFUNC    Label (end), Arity
//	ARGCHECK  Arity
//	JUMPZ     Label
//	JUMP      Label
//	PUSHSTACK Count
//	LOADVAR   Depth, Slot
type Instruction struct {
	Op    Op     `yaml:"op"`
	Const int64  `yaml:"const,omitempty"`
	Depth int    `yaml:"depth,omitempty"`
	Slot  int    `yaml:"slot,omitempty"`
	Label string `yaml:"label,omitempty"`
	Arity int    `yaml:"arity,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

func Load(c int64) Instruction                 { return Instruction{Op: LOAD, Const: c} }
func MkBasic() Instruction                     { return Instruction{Op: MKBASIC} }
func InitVar(slot int) Instruction             { return Instruction{Op: INITVAR, Slot: slot} }
func StoreA(slot int) Instruction              { return Instruction{Op: STOREA, Slot: slot} }
func Label(name string) Instruction            { return Instruction{Op: LABEL, Label: name} }
func MkFunc(end string, arity int) Instruction { return Instruction{Op: MKFUNC, Label: end, Arity: arity} }
func ArgCheck(arity int) Instruction           { return Instruction{Op: ARGCHECK, Arity: arity} }
func JumpZ(label string) Instruction           { return Instruction{Op: JUMPZ, Label: label} }
func Jump(label string) Instruction            { return Instruction{Op: JUMP, Label: label} }
func PushStack(count int) Instruction          { return Instruction{Op: PUSHSTACK, Count: count} }
func Apply() Instruction                       { return Instruction{Op: APPLY} }
func Return() Instruction                      { return Instruction{Op: RETURN} }
func LoadVar(depth, slot int) Instruction      { return Instruction{Op: LOADVAR, Depth: depth, Slot: slot} }

func (i Instruction) String() string {
	switch i.Op {
	case LOAD:
		return fmt.Sprintf("LOAD %d", i.Const)
	case INITVAR, STOREA:
		return fmt.Sprintf("%s %d", i.Op, i.Slot)
	case LABEL, JUMPZ, JUMP:
		return fmt.Sprintf("%s %s", i.Op, i.Label)
	case MKFUNC:
		return fmt.Sprintf("MKFUNC %s %d", i.Label, i.Arity)
	case ARGCHECK:
		return fmt.Sprintf("ARGCHECK %d", i.Arity)
	case PUSHSTACK:
		return fmt.Sprintf("PUSHSTACK %d", i.Count)
	case LOADVAR:
		if i.Depth < 0 {
			if name, ok := BuiltinName(i.Slot); ok {
				return fmt.Sprintf("LOADVAR %d %d ; %s", i.Depth, i.Slot, name)
			}
		}
		return fmt.Sprintf("LOADVAR %d %d", i.Depth, i.Slot)
	}
	return i.Op.String()
}
