// Package codegen lowers a post-destruction CFG into a flat list of
// virtual-register instructions (spec §4.4), in the same selector/allocator
// split the teacher uses in its instruction_selection.go and
// virtual_register.go, generalized from a target-register-class machine to
// this compiler's single flat VReg space.
package codegen

import (
	"fmt"

	"cc64/compiler/ast"
)

// VReg is a virtual register: a monotonically assigned slot, not yet bound
// to any physical register. Function parameters occupy the first N (spec
// §4.4), by construction of Select's allocator binding order.
type VReg int

func (r VReg) String() string { return fmt.Sprintf("VR%d", int(r)) }

// Instruction is the closed sum of virtual-register instructions.
type Instruction interface {
	isInstruction()
}

// LoadImmediate loads a constant into Dst.
type LoadImmediate struct {
	Dst   VReg
	Value int32
}

// Copy moves Src into Dst (a register-copy, spec §4.4's "copy the left
// operand", and the lowering of `=`).
type Copy struct {
	Dst VReg
	Src VReg
}

// Negate negates Reg in place.
type Negate struct {
	Reg VReg
}

// BinOp applies Op to Dst and Src, leaving the result in Dst. Dst already
// holds the left operand by the time this is emitted (spec §4.4).
type BinOp struct {
	Op  ast.InfixOp
	Dst VReg
	Src VReg
}

// CompareImmediate compares Reg against Value, setting the flags a
// following CondJump reads.
type CompareImmediate struct {
	Reg   VReg
	Value int32
}

// CompareRegs compares Left against Right, setting the flags a following
// CondJump reads.
type CompareRegs struct {
	Left  VReg
	Right VReg
}

// CondJump jumps to Label when the flags set by the preceding compare
// satisfy Predicate. For If/While lowering Predicate is always
// ast.InfixEqual (comparing a condition register to zero); for a
// comparison-operator expression Predicate is that operator itself.
type CondJump struct {
	Predicate ast.InfixOp
	Label     string
}

// Jump is an unconditional jump.
type Jump struct {
	Label string
}

// Label marks a jump target.
type Label struct {
	Name string
}

// Call invokes Name with Args already loaded into virtual registers,
// leaving the result (if any) in Result.
type Call struct {
	Name   string
	Args   []VReg
	Result VReg
}

// Return optionally carries a result register; Reg is nil for a bare
// `return;`.
type Return struct {
	Reg *VReg
}

func (*LoadImmediate) isInstruction()    {}
func (*Copy) isInstruction()             {}
func (*Negate) isInstruction()           {}
func (*BinOp) isInstruction()            {}
func (*CompareImmediate) isInstruction() {}
func (*CompareRegs) isInstruction()      {}
func (*CondJump) isInstruction()         {}
func (*Jump) isInstruction()             {}
func (*Label) isInstruction()            {}
func (*Call) isInstruction()             {}
func (*Return) isInstruction()           {}

func label(r VReg, suffix string) string {
	return fmt.Sprintf("VR%d%s", int(r), suffix)
}
