package cfg_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cc64/compiler/cfg"
	"cc64/compiler/frontend"
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

// Invariant 1: predecessor/successor edges are always symmetric.
func TestBuildEdgesAreSymmetric(t *testing.T) {
	g := build(t, "void main() { if (1) { 2; } else { 3; } while (4) { 5; } }", 0)
	for i, block := range g.Blocks {
		for succ := range block.Successors {
			_, ok := g.Blocks[succ].Predecessors[i]
			require.True(t, ok, "block %d lists %d as successor but not vice versa", i, succ)
		}
		for pred := range block.Predecessors {
			_, ok := g.Blocks[pred].Successors[i]
			require.True(t, ok, "block %d lists %d as predecessor but not vice versa", i, pred)
		}
	}
}

// Boundary behavior: a return inside a while body suppresses the back-edge
// from body-exit to the condition block (and the CFG builder never
// connects it as a successor in the first place).
func TestBuildReturnInWhileBodySuppressesBackEdge(t *testing.T) {
	g := build(t, "int f() { while (1) { return 2; } }", 0)
	branch := g.WhileBranches[1] // block 0 is entry, block 1 is the condition
	require.True(t, branch.BodyReturns)

	bodyExitBlock := g.Blocks[branch.BodyExit]
	for succ := range bodyExitBlock.Successors {
		require.NotEqual(t, 1, succ, "returning while-body must not connect back to its condition block")
	}
}

// Boundary behavior: a function with no statements produces a single
// empty entry block and no if/while metadata.
func TestBuildEmptyFunctionHasOneBlock(t *testing.T) {
	g := build(t, "void f() {}", 0)
	require.Len(t, g.Blocks, 1)
	require.Empty(t, g.Blocks[0].Statements)
	require.Empty(t, g.IfBranches)
	require.Empty(t, g.WhileBranches)
}

// Boundary behavior: an if with an empty body and empty alternative emits
// no body/alt blocks at all, just a direct edge to the join.
func TestBuildEmptyIfArmsFoldAway(t *testing.T) {
	g := build(t, "void f() { if (1) {} else {} }", 0)
	require.Empty(t, g.IfBranches)
	require.Len(t, g.Blocks, 2) // entry (condition) + join
	require.Contains(t, g.Blocks[0].Successors, 1)
}

// Both arms of an if returning leaves the join block unreachable from
// either arm.
func TestBuildBothArmsReturnLeavesJoinDisconnected(t *testing.T) {
	g := build(t, "int f() { if (1) { return 2; } else { return 3; } }", 0)
	branch := g.IfBranches[0]
	require.True(t, branch.BodyReturns)
	require.True(t, branch.AltReturns)
	require.Empty(t, g.Blocks[branch.BodyExit].Successors)
	require.Empty(t, g.Blocks[branch.AltExit].Successors)
}
