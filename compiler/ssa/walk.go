package ssa

import (
	"sort"

	"cc64/compiler/ast"
)

// walkExpr visits every identifier reachable from e. callee is true while
// descending into a Call's callee position, where the identifier names a
// function and must not be treated as an SSA variable reference (spec §3:
// "None marks unresolved references: function names; pre-SSA holes").
func walkExpr(e ast.Expression, callee bool, visit func(id *ast.Identifier, callee bool)) {
	switch v := e.(type) {
	case *ast.Identifier:
		visit(v, callee)
	case *ast.Number:
	case *ast.Prefix:
		walkExpr(v.Operand, false, visit)
	case *ast.Infix:
		walkExpr(v.Left, false, visit)
		walkExpr(v.Right, false, visit)
	case *ast.Call:
		walkExpr(v.Callee, true, visit)
		walkExpr(v.Arguments, false, visit)
	case *ast.Arguments:
		for _, a := range v.Values {
			walkExpr(a, false, visit)
		}
	}
}

// collectNames returns, in stable sorted order, every variable name
// declared or referenced directly by stmts — the statements a single
// basic block owns, never recursing into a nested body since the CFG
// builder already flattened those into their own blocks.
func collectNames(stmts []ast.Statement) []string {
	seen := map[string]struct{}{}
	add := func(name string) { seen[name] = struct{}{} }
	visit := func(id *ast.Identifier, callee bool) {
		if !callee {
			add(id.Var.Name)
		}
	}
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Declaration:
			add(s.Var.Name)
		case *ast.ExpressionStmt:
			walkExpr(s.Expression, false, visit)
		case *ast.If:
			walkExpr(s.Condition, false, visit)
		case *ast.While:
			walkExpr(s.Condition, false, visit)
		case *ast.Return:
			if s.Value != nil {
				walkExpr(s.Value, false, visit)
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
