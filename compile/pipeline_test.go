package compile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cc64/compiler/ast"
	"cc64/compile"
)

func hasPhi(result *compile.Result) bool {
	for _, block := range result.Functions[0].CFG.Blocks {
		for _, stmt := range block.Statements {
			if _, ok := stmt.(*ast.Phi); ok {
				return true
			}
		}
	}
	return false
}

func writeSource(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.c")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestRunDumpASTStopsAfterParsing(t *testing.T) {
	path := writeSource(t, "int f(int a) { return a; }")
	result, err := compile.Run(compile.Options{SourceFile: path, DumpAST: true})
	require.NoError(t, err)
	require.NotNil(t, result.Program)
	require.Empty(t, result.Functions)
	require.Empty(t, result.Assembly)
}

func TestRunDumpVASMStopsBeforeRegisterAllocation(t *testing.T) {
	path := writeSource(t, "int f(int a) { return a; }")
	result, err := compile.Run(compile.Options{SourceFile: path, DumpVASM: true})
	require.NoError(t, err)
	require.Len(t, result.Functions, 1)
	require.NotNil(t, result.Functions[0].VASM)
	require.Nil(t, result.Functions[0].Asm)
	require.Empty(t, result.Assembly)
}

// --ssa names the SSA-form CFG, taken right after construction and before
// destruction has had a chance to eliminate its phi-statements.
func TestRunDumpSSAShowsPhiStatements(t *testing.T) {
	path := writeSource(t, "void f(int a) { int b; if (0) { int b; } f(a); b; }")
	result, err := compile.Run(compile.Options{SourceFile: path, DumpSSA: true})
	require.NoError(t, err)
	require.Len(t, result.Functions, 1)
	require.True(t, hasPhi(result), "--ssa dump should still carry phi-statements")
	require.Empty(t, result.Assembly)
}

// --cfg names the final non-SSA CFG, taken right after destruction has
// eliminated every phi-statement, and must therefore differ from --ssa.
func TestRunDumpCFGShowsDestructedGraphWithNoPhis(t *testing.T) {
	path := writeSource(t, "void f(int a) { int b; if (0) { int b; } f(a); b; }")
	result, err := compile.Run(compile.Options{SourceFile: path, DumpCFG: true})
	require.NoError(t, err)
	require.Len(t, result.Functions, 1)
	require.False(t, hasPhi(result), "--cfg dump must show the destructed, phi-free graph")
	require.Empty(t, result.Assembly)
}

func TestRunProducesAssemblyTextWhenNoDumpFlagSet(t *testing.T) {
	path := writeSource(t, "int f(int a) { return a; }")
	result, err := compile.Run(compile.Options{SourceFile: path})
	require.NoError(t, err)
	require.Len(t, result.Functions, 1)
	require.NotNil(t, result.Functions[0].Asm)
	require.Contains(t, result.Assembly, "f proc")
	require.Contains(t, result.Assembly, "f endp")
}

func TestRunReturnsFrontEndErrorOnMissingFile(t *testing.T) {
	_, err := compile.Run(compile.Options{SourceFile: filepath.Join(t.TempDir(), "missing.c")})
	require.Error(t, err)
}
