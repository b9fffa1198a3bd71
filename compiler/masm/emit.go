// Package masm renders allocated physical-register instructions into MASM
// x64 assembly text (spec §4.6), the way the teacher's serializer renders a
// program as one indented pass over its functions.
package masm

import (
	"fmt"
	"strings"

	"cc64/compiler/ast"
	"cc64/compiler/regalloc"
)

const indentWidth = 4

// Emit renders a whole program's allocated functions as a single .code
// section, one `proc ... endp` block per function in declaration order.
func Emit(functions []*regalloc.Function) string {
	var b strings.Builder
	b.WriteString(".code\n")
	for _, fn := range functions {
		fmt.Fprintf(&b, "%s%s proc\n", indent(1), fn.Name)
		for _, instr := range fn.Body {
			fmt.Fprintf(&b, "%s%s\n", indent(2), text(instr))
		}
		fmt.Fprintf(&b, "%s%s endp\n\n", indent(1), fn.Name)
	}
	b.WriteString("end\n")
	return b.String()
}

func indent(level int) string {
	return strings.Repeat(" ", level*indentWidth)
}

var binOpMnemonic = map[ast.InfixOp]string{
	ast.InfixAdd: "add",
	ast.InfixSub: "sub",
	ast.InfixMul: "imul",
	ast.InfixDiv: "idiv",
	ast.InfixAnd: "and",
	ast.InfixOr:  "or",
}

var jumpMnemonic = map[ast.InfixOp]string{
	ast.InfixEqual:     "je",
	ast.InfixNotEqual:  "jne",
	ast.InfixLess:      "jl",
	ast.InfixGreater:   "jg",
	ast.InfixLessEq:    "jle",
	ast.InfixGreaterEq: "jge",
}

// text renders one physical instruction using Intel/MASM operand order
// (destination first); stack slots render as `offset[RBP]` per spec §4.6.
func text(instr regalloc.Instruction) string {
	switch i := instr.(type) {
	case *regalloc.Push:
		return fmt.Sprintf("push %s", i.Reg)
	case *regalloc.Pop:
		return fmt.Sprintf("pop %s", i.Reg)
	case *regalloc.MovReg:
		return fmt.Sprintf("mov %s, %s", i.Dst, i.Src)
	case *regalloc.MovNum:
		return fmt.Sprintf("mov %s, %d", i.Dst, i.Value)
	case *regalloc.MovToStack:
		return fmt.Sprintf("mov %d[RBP], %s", i.Offset, i.Src)
	case *regalloc.MovFromStack:
		return fmt.Sprintf("mov %s, %d[RBP]", i.Dst, i.Offset)
	case *regalloc.Neg:
		return fmt.Sprintf("neg %s", i.Reg)
	case *regalloc.BinOp:
		m, ok := binOpMnemonic[i.Op]
		if !ok {
			m = "op" + string(i.Op)
		}
		return fmt.Sprintf("%s %s, %s", m, i.Dst, i.Src)
	case *regalloc.CmpNum:
		return fmt.Sprintf("cmp %s, %d", i.Reg, i.Value)
	case *regalloc.CmpReg:
		return fmt.Sprintf("cmp %s, %s", i.Left, i.Right)
	case *regalloc.AddImmediate:
		return fmt.Sprintf("add %s, %d", i.Reg, i.Value)
	case *regalloc.SubImmediate:
		return fmt.Sprintf("sub %s, %d", i.Reg, i.Value)
	case *regalloc.Call:
		return fmt.Sprintf("call %s", i.Name)
	case *regalloc.Jump:
		return fmt.Sprintf("jmp %s", i.Label)
	case *regalloc.CondJump:
		m, ok := jumpMnemonic[i.Predicate]
		if !ok {
			m = "j?" + string(i.Predicate)
		}
		return fmt.Sprintf("%s %s", m, i.Label)
	case *regalloc.Label:
		return fmt.Sprintf("%s:", i.Name)
	case *regalloc.Ret:
		return "ret"
	default:
		return fmt.Sprintf("<unknown instruction %T>", instr)
	}
}
