package regalloc

import (
	"fmt"

	"cc64/compiler/ast"
	"cc64/compiler/codegen"
)

// binOpMnemonic names each arithmetic/logical opcode the way the reference
// allocator's X64 enum does (Add, Sub, Imul, Idiv, And, Or).
var binOpMnemonic = map[ast.InfixOp]string{
	ast.InfixAdd: "add",
	ast.InfixSub: "sub",
	ast.InfixMul: "imul",
	ast.InfixDiv: "idiv",
	ast.InfixAnd: "and",
	ast.InfixOr:  "or",
}

// Dump prints a function's fully allocated instruction stream, one line
// per instruction, in the teacher's plain stdout debug-dump style.
func Dump(fn *Function) {
	fmt.Printf("========== ASM: %s ==========\n", fn.Name)
	for _, instr := range fn.Body {
		fmt.Printf("  %s\n", Text(instr))
	}
	fmt.Println()
}

// Text renders one physical instruction as a single line, with the same
// operand syntax the masm package uses (stack slots as `offset[RBP]`). It
// adds no `proc ... endp` framing; that belongs to the masm package once a
// whole program is in hand.
func Text(instr Instruction) string {
	switch i := instr.(type) {
	case *Push:
		return fmt.Sprintf("push %s", i.Reg)
	case *Pop:
		return fmt.Sprintf("pop %s", i.Reg)
	case *MovReg:
		return fmt.Sprintf("mov %s, %s", i.Dst, i.Src)
	case *MovNum:
		return fmt.Sprintf("mov %s, %d", i.Dst, i.Value)
	case *MovToStack:
		return fmt.Sprintf("mov %d[RBP], %s", i.Offset, i.Src)
	case *MovFromStack:
		return fmt.Sprintf("mov %s, %d[RBP]", i.Dst, i.Offset)
	case *Neg:
		return fmt.Sprintf("neg %s", i.Reg)
	case *BinOp:
		m, ok := binOpMnemonic[i.Op]
		if !ok {
			m = "op" + string(i.Op)
		}
		return fmt.Sprintf("%s %s, %s", m, i.Dst, i.Src)
	case *CmpNum:
		return fmt.Sprintf("cmp %s, %d", i.Reg, i.Value)
	case *CmpReg:
		return fmt.Sprintf("cmp %s, %s", i.Left, i.Right)
	case *AddImmediate:
		return fmt.Sprintf("add %s, %d", i.Reg, i.Value)
	case *SubImmediate:
		return fmt.Sprintf("sub %s, %d", i.Reg, i.Value)
	case *Call:
		return fmt.Sprintf("call %s", i.Name)
	case *Jump:
		return fmt.Sprintf("jmp %s", i.Label)
	case *CondJump:
		return fmt.Sprintf("%s %s", codegen.JumpMnemonic(i.Predicate), i.Label)
	case *Label:
		return fmt.Sprintf("%s:", i.Name)
	case *Ret:
		return "ret"
	default:
		return fmt.Sprintf("<unknown instruction %T>", instr)
	}
}
