package ssa_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cc64/compiler/ast"
	"cc64/compiler/cfg"
	"cc64/compiler/frontend"
	"cc64/compiler/ssa"
)

func build(t *testing.T, source string, fnIndex int) *cfg.CFG {
	t.Helper()
	program, err := frontend.ParseProgram(strings.NewReader(source))
	require.NoError(t, err)
	require.Greater(t, len(program.Functions), fnIndex)
	g, err := cfg.Build(program.Functions[fnIndex])
	require.NoError(t, err)
	return g
}

func allIdentifiers(e ast.Expression, out *[]*ast.Identifier) {
	switch v := e.(type) {
	case *ast.Identifier:
		*out = append(*out, v)
	case *ast.Prefix:
		allIdentifiers(v.Operand, out)
	case *ast.Infix:
		allIdentifiers(v.Left, out)
		allIdentifiers(v.Right, out)
	case *ast.Call:
		for _, a := range v.Arguments.Values {
			allIdentifiers(a, out)
		}
	}
}

// Invariant 2: after construction, every identifier use carries a concrete
// subscript. Function names in call position stay unsubscripted, and
// allIdentifiers never visits a call's callee, so only real variable uses
// are checked.
func TestConstructEveryUseHasASubscript(t *testing.T) {
	g := build(t, "void f(int a) { int b; if (0) { int b; } f(a); b; }", 0)
	_, err := ssa.Construct(g)
	require.NoError(t, err)

	for _, block := range g.Blocks {
		for _, stmt := range block.Statements {
			var idents []*ast.Identifier
			switch s := stmt.(type) {
			case *ast.ExpressionStmt:
				allIdentifiers(s.Expression, &idents)
			case *ast.If:
				allIdentifiers(s.Condition, &idents)
			case *ast.While:
				allIdentifiers(s.Condition, &idents)
			case *ast.Return:
				if s.Value != nil {
					allIdentifiers(s.Value, &idents)
				}
			}
			for _, id := range idents {
				require.True(t, id.Var.HasSubscript(), "identifier %q used without a subscript", id.Var.Name)
			}
		}
	}
}

// Scenario F: the post-if join block carries a φ for b with exactly the
// pre-if and then-branch subscripts as incoming.
func TestConstructJoinPhiHasBothIncomingSubscripts(t *testing.T) {
	g := build(t, "void f(int a) { int b; if (0) { int b; } f(a); b; }", 0)
	_, err := ssa.Construct(g)
	require.NoError(t, err)

	var phi *ast.Phi
	for _, block := range g.Blocks {
		for _, stmt := range block.Statements {
			if p, ok := stmt.(*ast.Phi); ok && p.Result.Name == "b" {
				phi = p
			}
		}
	}
	require.NotNil(t, phi, "expected a phi for b at the post-if join")
	require.Len(t, phi.Incoming, 2)
}

// Invariant 3 + 6: after destruction, no phi remains anywhere in the CFG.
func TestDestructRemovesAllPhis(t *testing.T) {
	g := build(t, "void f(int a) { int b; if (0) { int b; } f(a); b; }", 0)
	result, err := ssa.Construct(g)
	require.NoError(t, err)
	ssa.Destruct(g, result.Leaving)

	for _, block := range g.Blocks {
		for _, stmt := range block.Statements {
			_, ok := stmt.(*ast.Phi)
			require.False(t, ok, "phi survived destruction")
		}
	}
}

// Invariant 6 round-trip, over every scenario-bearing shape: destruct(construct(ast))
// always leaves the CFG phi-free and every use subscripted.
func TestRoundTripNoPhiNoUndefinedSubscripts(t *testing.T) {
	sources := []string{
		"int f(int a) { return a; }",
		"void main() { if (0) { 1; } else { 2; } }",
		"void main() { while (2) {} }",
		"void f(int a) { int b; if (0) { int b; } f(a); b; }",
		"int main() { 1+2+3+4+5+6+7; 1; }",
	}
	for _, src := range sources {
		g := build(t, src, 0)
		result, err := ssa.Construct(g)
		require.NoError(t, err, src)
		ssa.Destruct(g, result.Leaving)

		for _, block := range g.Blocks {
			for _, stmt := range block.Statements {
				_, ok := stmt.(*ast.Phi)
				require.False(t, ok, "%s: phi survived destruction", src)
			}
		}
	}
}
