package codegen

import "cc64/compiler/ast"

// ssaKey is the comparable identity of an SSAVar, used as a map key since
// ast.SSAVar itself carries a *int and isn't comparable with ==.
type ssaKey struct {
	name string
	sub  int
	has  bool
}

func keyOf(v ast.SSAVar) ssaKey {
	if v.Subscript == nil {
		return ssaKey{name: v.Name}
	}
	return ssaKey{name: v.Name, sub: *v.Subscript, has: true}
}

// Allocator hands out virtual registers: a monotonic counter, plus a cache
// so the same SSA variable always maps to the same register (spec §4.4
// "Register allocator (virtual)").
type Allocator struct {
	next  VReg
	bound map[ssaKey]VReg
}

// NewAllocator creates an empty Allocator.
func NewAllocator() *Allocator {
	return &Allocator{bound: map[ssaKey]VReg{}}
}

// Temp returns a fresh virtual register bound to nothing.
func (a *Allocator) Temp() VReg {
	r := a.next
	a.next++
	return r
}

// Bind returns v's virtual register, allocating one the first time v is
// seen.
func (a *Allocator) Bind(v ast.SSAVar) VReg {
	k := keyOf(v)
	if r, ok := a.bound[k]; ok {
		return r
	}
	r := a.Temp()
	a.bound[k] = r
	return r
}
