package regalloc

import "cc64/compiler/codegen"

// Allocate lowers one function's selected virtual-register instructions
// into a physical instruction stream (spec §4.5).
func Allocate(name string, paramCount int, vasm []codegen.Instruction) *Function {
	a := newAllocator()
	for i := 0; i < paramCount; i++ {
		v := codegen.VReg(i)
		if i < len(paramRegisters) {
			a.bindParam(v, paramRegisters[i])
		} else {
			a.bindStackParam(v, i*IntSize)
		}
	}

	var body []Instruction
	body = append(body, prolog()...)
	for _, instr := range vasm {
		body = append(body, a.lower(instr)...)
	}
	// Unconditional trailing epilog, in addition to whatever a Return
	// statement already emitted inline: a function's last block may not
	// itself end in a return (the CFG builder never speculatively forces
	// one), and this is also what the reference allocator does even when
	// the last instruction already was a return.
	body = append(body, epilog()...)

	return &Function{Name: name, ParamCount: paramCount, Body: body}
}

func prolog() []Instruction {
	out := make([]Instruction, 0, len(calleeSaved))
	for _, r := range calleeSaved {
		out = append(out, &Push{Reg: r})
	}
	return out
}

func epilog() []Instruction {
	out := make([]Instruction, 0, len(calleeSaved)+1)
	for i := len(calleeSaved) - 1; i >= 0; i-- {
		out = append(out, &Pop{Reg: calleeSaved[i]})
	}
	return append(out, &Ret{})
}

func (a *allocator) lower(instr codegen.Instruction) []Instruction {
	switch v := instr.(type) {
	case *codegen.LoadImmediate:
		instrs, reg := a.alloc(v.Dst)
		return append(instrs, &MovNum{Dst: reg, Value: v.Value})

	case *codegen.Copy:
		linstrs, dst := a.alloc(v.Dst)
		rinstrs, src := a.alloc(v.Src)
		out := append(linstrs, rinstrs...)
		return append(out, &MovReg{Dst: dst, Src: src})

	case *codegen.Negate:
		instrs, reg := a.alloc(v.Reg)
		return append(instrs, &Neg{Reg: reg})

	case *codegen.BinOp:
		linstrs, dst := a.alloc(v.Dst)
		rinstrs, src := a.alloc(v.Src)
		out := append(linstrs, rinstrs...)
		return append(out, &BinOp{Op: v.Op, Dst: dst, Src: src})

	case *codegen.CompareImmediate:
		instrs, reg := a.alloc(v.Reg)
		return append(instrs, &CmpNum{Reg: reg, Value: v.Value})

	case *codegen.CompareRegs:
		linstrs, left := a.alloc(v.Left)
		rinstrs, right := a.alloc(v.Right)
		out := append(linstrs, rinstrs...)
		return append(out, &CmpReg{Left: left, Right: right})

	case *codegen.CondJump:
		return []Instruction{&CondJump{Predicate: v.Predicate, Label: v.Label}}

	case *codegen.Jump:
		return []Instruction{&Jump{Label: v.Label}}

	case *codegen.Label:
		return []Instruction{&Label{Name: v.Name}}

	case *codegen.Call:
		return a.call(v)

	case *codegen.Return:
		return a.ret(v)

	default:
		return nil
	}
}

// call implements spec §4.5's "Call sequencing": save caller-saved
// registers, open a call frame sized for the shadow space and argument
// area, place arguments, call, tear the frame back down, then bind the
// result.
func (a *allocator) call(v *codegen.Call) []Instruction {
	var out []Instruction
	for _, r := range callerSavedForCall {
		out = append(out, &Push{Reg: r})
	}
	out = append(out, &SubImmediate{Reg: RSP, Value: FrameSize})
	out = append(out, &MovReg{Dst: RBP, Src: RSP})

	for i, argVR := range v.Args {
		instrs, reg := a.alloc(argVR)
		out = append(out, instrs...)
		out = append(out, &MovToStack{Offset: i * IntSize, Src: reg})
		if i < len(paramRegisters) {
			out = append(out, &MovReg{Dst: paramRegisters[i], Src: reg})
		}
	}

	out = append(out, &Call{Name: v.Name})
	out = append(out, &AddImmediate{Reg: RSP, Value: FrameSize})
	for i := len(callerSavedForCall) - 1; i >= 0; i-- {
		out = append(out, &Pop{Reg: callerSavedForCall[i]})
	}

	resultInstrs, resultReg := a.alloc(v.Result)
	out = append(out, resultInstrs...)
	out = append(out, &MovReg{Dst: resultReg, Src: RAX})
	return out
}

// ret implements spec §4.5's "Return lowering": move the result into RAX,
// then run the epilog in place (the real function may have several return
// points, each needing its own unwind).
func (a *allocator) ret(v *codegen.Return) []Instruction {
	var out []Instruction
	if v.Reg != nil {
		instrs, reg := a.alloc(*v.Reg)
		out = append(out, instrs...)
		out = append(out, &MovReg{Dst: RAX, Src: reg})
	}
	return append(out, epilog()...)
}
