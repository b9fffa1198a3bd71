package regalloc

import (
	"sort"

	"cc64/compiler/codegen"
)

// calleeSaved is the fixed prolog/epilog push order (spec §4.5).
var calleeSaved = []Register{RBX, RSI, RDI, R12, R13, R14, R15}

// callerSavedForCall is the caller-saved set pushed around a call site, RAX
// excluded since it is about to be overwritten by the call's own result.
var callerSavedForCall = []Register{RCX, RDX, R8, R9, R10, R11}

// paramRegisters holds the first four integer argument registers, in
// position order.
var paramRegisters = []Register{RCX, RDX, R8, R9}

// freeListInit is the allocator's free-list reset state, a stack popped
// from the end: R15 is acquired first, then R14, ... then RBX last.
var freeListInit = []Register{RBX, RCX, RDX, RSI, RDI, R8, R9, R10, R11, R12, R13, R14, R15}

type bindingStatus int

const (
	inRegister bindingStatus = iota
	spilled
)

type binding struct {
	status bindingStatus
	reg    Register // valid when status == inRegister
	offset int       // valid when status == spilled; an offset[RBP] slot
}

// allocator is the per-function physical register allocator (spec §4.5
// "Allocator state").
type allocator struct {
	vmap     map[codegen.VReg]*binding
	free     []Register
	stackTop int
	last     codegen.VReg
	hasLast  bool
}

func newAllocator() *allocator {
	free := make([]Register, len(freeListInit))
	copy(free, freeListInit)
	return &allocator{vmap: map[codegen.VReg]*binding{}, free: free}
}

func (a *allocator) removeFree(reg Register) {
	for i, r := range a.free {
		if r == reg {
			a.free = append(a.free[:i], a.free[i+1:]...)
			return
		}
	}
}

// bindParam binds a parameter's virtual register to its ABI register,
// reserving it (spec §4.5 "Parameter binding").
func (a *allocator) bindParam(v codegen.VReg, reg Register) {
	a.vmap[v] = &binding{status: inRegister, reg: reg}
	a.removeFree(reg)
}

// bindStackParam binds a parameter beyond the fourth to its caller-frame
// stack slot.
func (a *allocator) bindStackParam(v codegen.VReg, offset int) {
	a.vmap[v] = &binding{status: spilled, offset: offset}
}

// acquireRegister pops a free physical register, spilling to make room if
// none remain (spec §4.5 "Acquiring a physical register").
func (a *allocator) acquireRegister() (Register, []Instruction) {
	if n := len(a.free); n > 0 {
		r := a.free[n-1]
		a.free = a.free[:n-1]
		return r, nil
	}

	victim, victimReg := a.pickVictim()
	offset := a.stackTop
	a.stackTop += IntSize
	a.vmap[victim] = &binding{status: spilled, offset: offset}
	a.last = victim
	a.hasLast = true
	return victimReg, []Instruction{&MovToStack{Offset: offset, Src: victimReg}}
}

// pickVictim chooses a deterministic spill candidate: the smallest virtual
// register currently holding a physical register, other than last (spec
// §9 "two-operand instruction hazard").
func (a *allocator) pickVictim() (codegen.VReg, Register) {
	var candidates []codegen.VReg
	for vr, b := range a.vmap {
		if b.status == inRegister {
			candidates = append(candidates, vr)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	for _, vr := range candidates {
		if !a.hasLast || vr != a.last {
			return vr, a.vmap[vr].reg
		}
	}
	return a.last, a.vmap[a.last].reg
}

// alloc resolves v to a physical register, emitting whatever load or spill
// code is needed first (spec §4.5 "Allocation").
func (a *allocator) alloc(v codegen.VReg) ([]Instruction, Register) {
	if b, ok := a.vmap[v]; ok {
		switch b.status {
		case inRegister:
			a.last, a.hasLast = v, true
			return nil, b.reg
		default: // spilled
			reg, instrs := a.acquireRegister()
			instrs = append(instrs, &MovFromStack{Dst: reg, Offset: b.offset})
			a.vmap[v] = &binding{status: inRegister, reg: reg}
			a.last, a.hasLast = v, true
			return instrs, reg
		}
	}

	reg, instrs := a.acquireRegister()
	a.vmap[v] = &binding{status: inRegister, reg: reg}
	a.last, a.hasLast = v, true
	return instrs, reg
}
