// Package regalloc lowers a function's virtual-register instruction list
// into physical-register form under the Win64 calling convention (spec
// §4.5), grounded on the reference allocator's alloc/call_prolog/epilog
// trace (original_source's reg_allocator.rs) rather than on any file in the
// Go teacher, which targets a different ISA's calling convention.
package regalloc

import (
	"fmt"

	"cc64/compiler/ast"
)

// Register is a physical x86-64 register name.
type Register string

const (
	RAX Register = "RAX"
	RBX Register = "RBX"
	RCX Register = "RCX"
	RDX Register = "RDX"
	RSI Register = "RSI"
	RDI Register = "RDI"
	RSP Register = "RSP"
	RBP Register = "RBP"
	R8  Register = "R8"
	R9  Register = "R9"
	R10 Register = "R10"
	R11 Register = "R11"
	R12 Register = "R12"
	R13 Register = "R13"
	R14 Register = "R14"
	R15 Register = "R15"
)

// IntSize is the slot width (bytes) of one stack-frame or spill slot.
const IntSize = 8

// FrameSize is the fixed size reserved below RSP for every call: Win64's
// 32-byte shadow space plus room for stack-passed arguments beyond the
// first four (spec §4.5).
const FrameSize = 64

// Instruction is the closed sum of physical-register instructions — the
// same shape as codegen.Instruction with every VReg operand resolved to a
// Register, an immediate, a stack slot, or a label (spec §8 invariant 5).
type Instruction interface {
	isInstruction()
}

type Push struct{ Reg Register }
type Pop struct{ Reg Register }

type MovReg struct{ Dst, Src Register }
type MovNum struct {
	Dst   Register
	Value int32
}
type MovToStack struct {
	Offset int
	Src    Register
}
type MovFromStack struct {
	Dst    Register
	Offset int
}

type Neg struct{ Reg Register }

type BinOp struct {
	Op       ast.InfixOp
	Dst, Src Register
}

type CmpNum struct {
	Reg   Register
	Value int32
}
type CmpReg struct{ Left, Right Register }

type AddImmediate struct {
	Reg   Register
	Value int32
}
type SubImmediate struct {
	Reg   Register
	Value int32
}

type Call struct{ Name string }

type Jump struct{ Label string }
type CondJump struct {
	Predicate ast.InfixOp
	Label     string
}
type Label struct{ Name string }

type Ret struct{}

func (*Push) isInstruction()         {}
func (*Pop) isInstruction()          {}
func (*MovReg) isInstruction()       {}
func (*MovNum) isInstruction()       {}
func (*MovToStack) isInstruction()   {}
func (*MovFromStack) isInstruction() {}
func (*Neg) isInstruction()          {}
func (*BinOp) isInstruction()        {}
func (*CmpNum) isInstruction()       {}
func (*CmpReg) isInstruction()       {}
func (*AddImmediate) isInstruction() {}
func (*SubImmediate) isInstruction() {}
func (*Call) isInstruction()         {}
func (*Jump) isInstruction()         {}
func (*CondJump) isInstruction()     {}
func (*Label) isInstruction()        {}
func (*Ret) isInstruction()          {}

// Function is one function's fully allocated instruction stream.
type Function struct {
	Name       string
	ParamCount int
	Body       []Instruction
}

func (f Function) String() string {
	return fmt.Sprintf("Function(%s, %d params, %d instructions)", f.Name, f.ParamCount, len(f.Body))
}
