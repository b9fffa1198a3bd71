package ssa

import (
	"sort"

	"cc64/compiler/ast"
	"cc64/compiler/cfg"
)

// Destruct removes every φ-statement from g, replacing each with a copy
// statement appended to the end of each predecessor block (spec §4.3).
// leaving is the Result.Leaving computed by Construct for this same CFG.
func Destruct(g *cfg.CFG, leaving []map[string]int) {
	for _, block := range g.Blocks {
		n := 0
		for n < len(block.Statements) {
			if _, ok := block.Statements[n].(*ast.Phi); !ok {
				break
			}
			n++
		}
		if n == 0 {
			continue
		}
		phis := block.Statements[:n]
		block.Statements = block.Statements[n:]

		preds := make([]int, 0, len(block.Predecessors))
		for p := range block.Predecessors {
			preds = append(preds, p)
		}
		sort.Ints(preds)

		for _, stmt := range phis {
			phi := stmt.(*ast.Phi)
			name := phi.Result.Name
			for _, p := range preds {
				sub, ok := leaving[p][name]
				if !ok {
					continue
				}
				copyStmt := &ast.ExpressionStmt{Expression: &ast.Infix{
					Op:    ast.InfixAssign,
					Left:  &ast.Identifier{Var: phi.Result},
					Right: &ast.Identifier{Var: ast.SSAVar{Name: name, Subscript: intPtr(sub)}},
				}}
				g.Blocks[p].Statements = append(g.Blocks[p].Statements, copyStmt)
			}
		}
	}
}
