package regalloc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cc64/compiler/cfg"
	"cc64/compiler/codegen"
	"cc64/compiler/frontend"
	"cc64/compiler/regalloc"
	"cc64/compiler/ssa"
)

func allocate(t *testing.T, source string, fnIndex int) *regalloc.Function {
	t.Helper()
	program, err := frontend.ParseProgram(strings.NewReader(source))
	require.NoError(t, err)
	require.Greater(t, len(program.Functions), fnIndex)
	fn := program.Functions[fnIndex]

	g, err := cfg.Build(fn)
	require.NoError(t, err)

	result, err := ssa.Construct(g)
	require.NoError(t, err)
	ssa.Destruct(g, result.Leaving)

	vasm, err := codegen.Select(g)
	require.NoError(t, err)

	return regalloc.Allocate(fn.Name, len(fn.Parameters), vasm)
}

func texts(fn *regalloc.Function) []string {
	out := make([]string, len(fn.Body))
	for i, instr := range fn.Body {
		out[i] = regalloc.Text(instr)
	}
	return out
}

// calling convention: a single-parameter identity function binds its
// parameter straight to RCX and never touches the stack. The trailing
// Return re-emits its own epilog inline, on top of the function's own
// unconditional trailing epilog, so a body ending in return carries two
// full unwind sequences.
func TestAllocateIdentityBindsFirstParamToRCX(t *testing.T) {
	fn := allocate(t, "int f(int a) { return a; }", 0)
	lines := texts(fn)

	prolog := []string{"push RBX", "push RSI", "push RDI", "push R12", "push R13", "push R14", "push R15"}
	epilog := []string{"pop R15", "pop R14", "pop R13", "pop R12", "pop RDI", "pop RSI", "pop RBX", "ret"}

	var expected []string
	expected = append(expected, prolog...)
	expected = append(expected, "mov RAX, RCX")
	expected = append(expected, epilog...)
	expected = append(expected, epilog...)

	require.Equal(t, expected, lines)
}

// the fifth parameter of a five-parameter function falls off the end of
// the ABI register list and is bound to a caller-frame stack slot instead.
func TestAllocateFifthParameterIsStackBound(t *testing.T) {
	fn := allocate(t, "int f(int a, int b, int c, int d, int e) { return e; }", 0)
	lines := texts(fn)
	var sawFromStack bool
	for _, l := range lines {
		if strings.HasSuffix(l, ", 32[RBP]") {
			sawFromStack = true
		}
	}
	require.True(t, sawFromStack, "expected the 5th parameter to load from its stack slot: %v", lines)
}

// register spilling: summing seven literals left-associatively allocates a
// fresh register per operand and per partial sum. The first statement takes
// all 13 free-list registers, so the second statement's literal forces a
// spill of the first-used register (R15) back out to the stack before R15
// can be reused for it.
func TestAllocateSpillsWhenFreeListExhausted(t *testing.T) {
	fn := allocate(t, "int main() { 1+2+3+4+5+6+7; 1; }", 0)
	lines := texts(fn)

	expectedPrefix := []string{
		"push RBX", "push RSI", "push RDI", "push R12", "push R13", "push R14", "push R15",
		"mov R15, 1",
		"mov R14, 2",
		"mov R13, R15",
		"add R13, R14",
		"mov R12, 3",
		"mov R11, R13",
		"add R11, R12",
		"mov R10, 4",
		"mov R9, R11",
		"add R9, R10",
		"mov R8, 5",
		"mov RDI, R9",
		"add RDI, R8",
		"mov RSI, 6",
		"mov RDX, RDI",
		"add RDX, RSI",
		"mov RCX, 7",
		"mov RBX, RDX",
		"add RBX, RCX",
		"mov 0[RBP], R15",
		"mov R15, 1",
	}
	require.GreaterOrEqual(t, len(lines), len(expectedPrefix))
	require.Equal(t, expectedPrefix, lines[:len(expectedPrefix)])

	expectedSuffix := []string{
		"pop R15", "pop R14", "pop R13", "pop R12", "pop RDI", "pop RSI", "pop RBX", "ret",
	}
	require.Equal(t, expectedSuffix, lines[len(lines)-len(expectedSuffix):])
}

// call sequencing: the callee-saved set and the caller-saved-for-call set
// are both pushed (in that order) before the frame is opened, arguments
// land in both their stack slot and (for the first four) their ABI
// register, and the call result is copied out of RAX into a fresh
// register before use.
func TestAllocateCallSequencing(t *testing.T) {
	fn := allocate(t, "int g(int x) { return x; } int f(int a) { return g(a) + 1; }", 1)
	lines := texts(fn)

	require.Equal(t, []string{"push RCX", "push RDX", "push R8", "push R9", "push R10", "push R11"}, lines[7:13])
	require.Equal(t, "sub RSP, 64", lines[13])
	require.Equal(t, "mov RBP, RSP", lines[14])
	require.Equal(t, "mov 0[RBP], RCX", lines[15])
	require.Equal(t, "mov RCX, RCX", lines[16])
	require.Equal(t, "call g", lines[17])
	require.Equal(t, "add RSP, 64", lines[18])
	require.Equal(t, []string{"pop R11", "pop R10", "pop R9", "pop R8", "pop RDX", "pop RCX"}, lines[19:25])
}
