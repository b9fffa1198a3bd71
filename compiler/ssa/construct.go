// Package ssa builds and destroys SSA form on a function's CFG (spec §4.2,
// §4.3): dominance-free φ-insertion, an iterative reaching-definitions
// solver, renaming, and later φ-elimination via predecessor-placed copies.
package ssa

import (
	"cc64/compiler/ast"
	"cc64/compiler/cfg"
	"cc64/compiler/ccerr"
)

// Result carries the per-block leaving-definition maps SSA construction
// computed, since SSA destruction (a later, separate pass) needs them.
type Result struct {
	Leaving []map[string]int // per block: name -> subscript leaving the block
}

// Construct runs all three SSA-construction sub-passes over g in place.
func Construct(g *cfg.CFG) (*Result, error) {
	insertPhis(g)

	counter := map[string]int{}
	next := func(name string) int {
		s := counter[name]
		counter[name]++
		return s
	}

	for i, p := range g.Parameters {
		g.Parameters[i] = p.WithSubscript(next(p.Name))
	}

	deDef, defKill := assignSubscripts(g, next)
	reach := solveReachingDefs(g, deDef, defKill)
	leaving := computeLeaving(reach, defKill)

	if err := rename(g, reach); err != nil {
		return nil, err
	}

	return &Result{Leaving: leaving}, nil
}

// insertPhis prepends one φ per live name to every block with more than
// one predecessor (spec §4.2 "φ-insertion"). Incoming sets are left empty;
// renaming fills them in from the reaching-definitions solution.
func insertPhis(g *cfg.CFG) {
	for _, block := range g.Blocks {
		if len(block.Predecessors) <= 1 {
			continue
		}
		names := collectNames(block.Statements)
		if len(names) == 0 {
			continue
		}
		phis := make([]ast.Statement, len(names))
		for i, name := range names {
			phis[i] = &ast.Phi{Result: ast.NewVar(name)}
		}
		block.Statements = append(phis, block.Statements...)
	}
}

// assignSubscripts walks every block in order, giving each φ/declaration a
// fresh subscript, and returns the per-block de-def and def-kill maps
// (spec §4.2, GLOSSARY).
func assignSubscripts(g *cfg.CFG, next func(string) int) (deDef, defKill []map[string]int) {
	deDef = make([]map[string]int, len(g.Blocks))
	defKill = make([]map[string]int, len(g.Blocks))

	for i, block := range g.Blocks {
		defs := map[string][]int{}
		for _, stmt := range block.Statements {
			switch s := stmt.(type) {
			case *ast.Phi:
				name := s.Result.Name
				sub := next(name)
				s.Result = s.Result.WithSubscript(sub)
				defs[name] = append(defs[name], sub)
			case *ast.Declaration:
				name := s.Var.Name
				sub := next(name)
				s.Var = s.Var.WithSubscript(sub)
				defs[name] = append(defs[name], sub)
			}
		}
		deDef[i] = map[string]int{}
		defKill[i] = map[string]int{}
		for name, subs := range defs {
			if len(subs) == 1 {
				deDef[i][name] = subs[0]
			}
			defKill[i][name] = subs[len(subs)-1]
		}
	}
	return deDef, defKill
}

// transitivePredecessors computes, for every block, the closure of its
// predecessor sets (spec §4.2 "Predecessor resolution"). Back-edges are
// handled by tracking visited blocks so the expansion always terminates.
func transitivePredecessors(blocks []*cfg.Block) []map[int]struct{} {
	result := make([]map[int]struct{}, len(blocks))
	for i := range blocks {
		acc := map[int]struct{}{}
		visited := map[int]struct{}{}
		var visit func(n int)
		visit = func(n int) {
			if _, ok := visited[n]; ok {
				return
			}
			visited[n] = struct{}{}
			for p := range blocks[n].Predecessors {
				if _, already := acc[p]; !already {
					acc[p] = struct{}{}
				}
				visit(p)
			}
		}
		visit(i)
		result[i] = acc
	}
	return result
}

// solveReachingDefs is the spec §4.2 iterative fixpoint: for each block,
// union in every transitive predecessor's surviving reaching defs plus its
// de-def, until nothing changes.
func solveReachingDefs(g *cfg.CFG, deDef, defKill []map[string]int) []map[string]map[int]struct{} {
	reach := make([]map[string]map[int]struct{}, len(g.Blocks))
	for i := range reach {
		reach[i] = map[string]map[int]struct{}{}
	}
	for _, p := range g.Parameters {
		if reach[0][p.Name] == nil {
			reach[0][p.Name] = map[int]struct{}{}
		}
		reach[0][p.Name][*p.Subscript] = struct{}{}
	}

	transPred := transitivePredecessors(g.Blocks)

	for {
		changed := false
		for i := range g.Blocks {
			for p := range transPred[i] {
				for name, subs := range reach[p] {
					if _, killed := defKill[p][name]; killed {
						continue
					}
					for s := range subs {
						if reach[i][name] == nil {
							reach[i][name] = map[int]struct{}{}
						}
						if _, exists := reach[i][name][s]; !exists {
							reach[i][name][s] = struct{}{}
							changed = true
						}
					}
				}
				for name, s := range deDef[p] {
					if reach[i][name] == nil {
						reach[i][name] = map[int]struct{}{}
					}
					if _, exists := reach[i][name][s]; !exists {
						reach[i][name][s] = struct{}{}
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
	}
	return reach
}

// representative picks the canonical (smallest) subscript out of a
// reaching set, per spec §9's determinism requirement.
func representative(subs map[int]struct{}) (int, bool) {
	first := true
	best := 0
	for s := range subs {
		if first || s < best {
			best = s
			first = false
		}
	}
	return best, !first
}

// computeLeaving builds each block's name -> single-subscript map that
// exits it (spec §4.2 "Leaving definitions", GLOSSARY).
func computeLeaving(reach []map[string]map[int]struct{}, defKill []map[string]int) []map[string]int {
	leaving := make([]map[string]int, len(reach))
	for i := range reach {
		leaving[i] = map[string]int{}
		for name, subs := range reach[i] {
			if rep, ok := representative(subs); ok {
				leaving[i][name] = rep
			}
		}
		for name, s := range defKill[i] {
			leaving[i][name] = s
		}
	}
	return leaving
}

// rename walks every block, binding each use to the subscript reaching it
// (spec §4.2 "Renaming").
func rename(g *cfg.CFG, reach []map[string]map[int]struct{}) error {
	for i, block := range g.Blocks {
		local := map[string]int{}
		for name, subs := range reach[i] {
			if rep, ok := representative(subs); ok {
				local[name] = rep
			}
		}

		for _, stmt := range block.Statements {
			switch s := stmt.(type) {
			case *ast.Phi:
				sub := *s.Result.Subscript
				local[s.Result.Name] = sub
				if subs, ok := reach[i][s.Result.Name]; ok {
					for inSub := range subs {
						s.Incoming = append(s.Incoming, ast.SSAVar{Name: s.Result.Name, Subscript: intPtr(inSub)})
					}
					sortIncoming(s.Incoming)
				}
			case *ast.Declaration:
				local[s.Var.Name] = *s.Var.Subscript
			case *ast.ExpressionStmt:
				if err := renameUses(s.Expression, local); err != nil {
					return err
				}
			case *ast.If:
				if err := renameUses(s.Condition, local); err != nil {
					return err
				}
			case *ast.While:
				if err := renameUses(s.Condition, local); err != nil {
					return err
				}
			case *ast.Return:
				if s.Value != nil {
					if err := renameUses(s.Value, local); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func renameUses(e ast.Expression, local map[string]int) error {
	var walkErr error
	walkExpr(e, false, func(id *ast.Identifier, callee bool) {
		if callee || walkErr != nil {
			return
		}
		if sub, ok := local[id.Var.Name]; ok {
			id.Var = id.Var.WithSubscript(sub)
			return
		}
		walkErr = ccerr.UndefinedVariable(id.Var.Name)
	})
	return walkErr
}

func intPtr(i int) *int { return &i }

func sortIncoming(vars []ast.SSAVar) {
	for i := 1; i < len(vars); i++ {
		for j := i; j > 0 && *vars[j-1].Subscript > *vars[j].Subscript; j-- {
			vars[j-1], vars[j] = vars[j], vars[j-1]
		}
	}
}
