package codegen

import (
	"fmt"

	"cc64/compiler/ast"
)

// jumpMnemonic maps a comparison predicate to its x86 conditional-jump
// mnemonic (spec §4.6 "Intel/MASM conventions").
var jumpMnemonic = map[ast.InfixOp]string{
	ast.InfixEqual:     "je",
	ast.InfixNotEqual:  "jne",
	ast.InfixLess:      "jl",
	ast.InfixGreater:   "jg",
	ast.InfixLessEq:    "jle",
	ast.InfixGreaterEq: "jge",
}

// JumpMnemonic returns the conditional-jump mnemonic for predicate.
func JumpMnemonic(predicate ast.InfixOp) string {
	if m, ok := jumpMnemonic[predicate]; ok {
		return m
	}
	return "j?" + string(predicate)
}

// Dump prints a virtual-register instruction list one line per
// instruction, in the teacher's plain stdout debug-dump style.
func Dump(name string, instrs []Instruction) {
	fmt.Printf("========== VASM: %s ==========\n", name)
	for _, instr := range instrs {
		fmt.Printf("  %s\n", Text(instr))
	}
	fmt.Println()
}

// Text renders one instruction as a single line, independent of any
// MASM-specific formatting (that belongs to the masm package once
// instructions have been through physical register allocation).
func Text(instr Instruction) string {
	switch i := instr.(type) {
	case *LoadImmediate:
		return fmt.Sprintf("%s <- #%d", i.Dst, i.Value)
	case *Copy:
		return fmt.Sprintf("%s <- %s", i.Dst, i.Src)
	case *Negate:
		return fmt.Sprintf("neg %s", i.Reg)
	case *BinOp:
		return fmt.Sprintf("%s <- %s %s %s", i.Dst, i.Dst, i.Op, i.Src)
	case *CompareImmediate:
		return fmt.Sprintf("cmp %s, #%d", i.Reg, i.Value)
	case *CompareRegs:
		return fmt.Sprintf("cmp %s, %s", i.Left, i.Right)
	case *CondJump:
		return fmt.Sprintf("%s %s", JumpMnemonic(i.Predicate), i.Label)
	case *Jump:
		return fmt.Sprintf("jmp %s", i.Label)
	case *Label:
		return fmt.Sprintf("%s:", i.Name)
	case *Call:
		return fmt.Sprintf("%s <- call %s(%v)", i.Result, i.Name, i.Args)
	case *Return:
		if i.Reg == nil {
			return "ret"
		}
		return fmt.Sprintf("ret %s", *i.Reg)
	default:
		return fmt.Sprintf("<unknown instruction %T>", instr)
	}
}
