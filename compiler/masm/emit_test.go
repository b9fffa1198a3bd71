package masm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cc64/compiler/masm"
	"cc64/compiler/regalloc"
)

// Grounded on the reference serializer's golden trace, adapted to this
// compiler's stack-slot syntax (offset[RBP] rather than [RBP-offset]) and
// jmp mnemonic for the unconditional jump.
func TestEmitRendersOneProcPerFunction(t *testing.T) {
	fn := &regalloc.Function{
		Name:       "main",
		ParamCount: 0,
		Body: []regalloc.Instruction{
			&regalloc.MovNum{Dst: regalloc.RSP, Value: 0},
			&regalloc.MovReg{Dst: regalloc.RSP, Src: regalloc.RSP},
			&regalloc.MovToStack{Offset: 0, Src: regalloc.RSP},
			&regalloc.MovFromStack{Dst: regalloc.RSP, Offset: 0},
			&regalloc.Call{Name: "Tag"},
			&regalloc.Neg{Reg: regalloc.RSP},
			&regalloc.CmpNum{Reg: regalloc.RSP, Value: 0},
			&regalloc.CmpReg{Left: regalloc.RSP, Right: regalloc.RSP},
			&regalloc.Jump{Label: "Tag"},
			&regalloc.Label{Name: "Tag"},
			&regalloc.SubImmediate{Reg: regalloc.RSP, Value: 0},
			&regalloc.Ret{},
			&regalloc.Push{Reg: regalloc.RSP},
			&regalloc.Pop{Reg: regalloc.RSP},
		},
	}

	out := masm.Emit([]*regalloc.Function{fn})
	expected := `.code
    main proc
        mov RSP, 0
        mov RSP, RSP
        mov 0[RBP], RSP
        mov RSP, 0[RBP]
        call Tag
        neg RSP
        cmp RSP, 0
        cmp RSP, RSP
        jmp Tag
        Tag:
        sub RSP, 0
        ret
        push RSP
        pop RSP
    main endp

end
`
	require.Equal(t, expected, out)
}

func TestEmitMultipleFunctionsEachGetTheirOwnProcBlock(t *testing.T) {
	f := &regalloc.Function{Name: "f", Body: []regalloc.Instruction{&regalloc.Ret{}}}
	g := &regalloc.Function{Name: "g", Body: []regalloc.Instruction{&regalloc.Ret{}}}
	out := masm.Emit([]*regalloc.Function{f, g})
	require.Contains(t, out, "f proc")
	require.Contains(t, out, "f endp")
	require.Contains(t, out, "g proc")
	require.Contains(t, out, "g endp")
}
