package codegen

import (
	"sort"

	"cc64/compiler/ast"
	"cc64/compiler/ccerr"
	"cc64/compiler/cfg"
)

// Select lowers g into a flat instruction list (spec §4.4). g must already
// be past SSA destruction: no φ may remain in any block.
func Select(g *cfg.CFG) ([]Instruction, error) {
	alloc := NewAllocator()
	for _, p := range g.Parameters {
		alloc.Bind(p)
	}

	sel := &selector{g: g, alloc: alloc, sched: newSchedule()}
	bodies := make([][]Instruction, len(g.Blocks))
	for i, block := range g.Blocks {
		instrs, err := sel.block(i, block)
		if err != nil {
			return nil, err
		}
		bodies[i] = instrs
	}

	var out []Instruction
	for i := range g.Blocks {
		out = append(out, sel.sched.prefix[i]...)
		out = append(out, bodies[i]...)
		out = append(out, sel.sched.suffix[i]...)
	}
	return out, nil
}

type selector struct {
	g     *cfg.CFG
	alloc *Allocator
	sched *schedule
}

func (s *selector) block(idx int, block *cfg.Block) ([]Instruction, error) {
	var out []Instruction
	for _, stmt := range block.Statements {
		instrs, err := s.statement(idx, block, stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	return out, nil
}

func (s *selector) statement(idx int, block *cfg.Block, stmt ast.Statement) ([]Instruction, error) {
	switch st := stmt.(type) {
	case *ast.Declaration:
		s.alloc.Bind(st.Var)
		return nil, nil

	case *ast.ExpressionStmt:
		_, instrs, err := s.expr(st.Expression)
		return instrs, err

	case *ast.Return:
		if st.Value == nil {
			return []Instruction{&Return{}}, nil
		}
		reg, instrs, err := s.expr(st.Value)
		if err != nil {
			return nil, err
		}
		r := reg
		return append(instrs, &Return{Reg: &r}), nil

	case *ast.If:
		return s.ifStatement(idx, block, st)

	case *ast.While:
		return s.whileStatement(idx, block, st)

	case *ast.Nop, *ast.Phi:
		return nil, ccerr.Invariant(ccerr.StageCodegen, "%T reached code selection", stmt)

	default:
		return nil, ccerr.Invariant(ccerr.StageCodegen, "unhandled statement type %T", stmt)
	}
}

func sortedSuccessors(block *cfg.Block) []int {
	out := make([]int, 0, len(block.Successors))
	for succ := range block.Successors {
		out = append(out, succ)
	}
	sort.Ints(out)
	return out
}

func (s *selector) ifStatement(idx int, block *cfg.Block, st *ast.If) ([]Instruction, error) {
	reg, instrs, err := s.expr(st.Condition)
	if err != nil {
		return nil, err
	}

	succs := sortedSuccessors(block)
	if len(succs) == 1 {
		// Empty body and empty alternative: emit nothing further.
		return instrs, nil
	}

	branch := s.g.IfBranches[idx]
	end := label(reg, "End")

	if !branch.HasAlt {
		instrs = append(instrs, &CompareImmediate{Reg: reg, Value: 0}, &CondJump{Predicate: ast.InfixEqual, Label: end})
		s.sched.addSuffix(branch.BodyExit, &Label{Name: end})
		return instrs, nil
	}

	altEntry := succs[1]
	start := label(reg, "Start")
	instrs = append(instrs, &CompareImmediate{Reg: reg, Value: 0}, &CondJump{Predicate: ast.InfixEqual, Label: start})
	s.sched.addSuffix(branch.BodyExit, &Jump{Label: end})
	s.sched.addPrefix(altEntry, &Label{Name: start})
	s.sched.addSuffix(branch.AltExit, &Label{Name: end})
	return instrs, nil
}

func (s *selector) whileStatement(idx int, block *cfg.Block, st *ast.While) ([]Instruction, error) {
	reg, instrs, err := s.expr(st.Condition)
	if err != nil {
		return nil, err
	}

	start := label(reg, "Start")
	end := label(reg, "End")
	s.sched.addPrefix(idx, &Label{Name: start})
	instrs = append(instrs, &CompareImmediate{Reg: reg, Value: 0}, &CondJump{Predicate: ast.InfixEqual, Label: end})

	branch := s.g.WhileBranches[idx]
	s.sched.addSuffix(branch.BodyExit, &Jump{Label: start}, &Label{Name: end})
	return instrs, nil
}

// ---------------------------------------------------------------------
// expressions
// ---------------------------------------------------------------------

var comparisonPredicates = map[ast.InfixOp]bool{
	ast.InfixLess:      true,
	ast.InfixGreater:   true,
	ast.InfixLessEq:    true,
	ast.InfixGreaterEq: true,
	ast.InfixEqual:     true,
	ast.InfixNotEqual:  true,
}

func (s *selector) expr(e ast.Expression) (VReg, []Instruction, error) {
	switch v := e.(type) {
	case *ast.Identifier:
		return s.alloc.Bind(v.Var), nil, nil

	case *ast.Number:
		r := s.alloc.Temp()
		return r, []Instruction{&LoadImmediate{Dst: r, Value: v.Value}}, nil

	case *ast.Call:
		return s.call(v)

	case *ast.Prefix:
		return s.prefix(v)

	case *ast.Infix:
		return s.infix(v)

	default:
		return 0, nil, ccerr.Invariant(ccerr.StageCodegen, "unhandled expression type %T", e)
	}
}

func (s *selector) call(v *ast.Call) (VReg, []Instruction, error) {
	callee, ok := v.Callee.(*ast.Identifier)
	if !ok {
		return 0, nil, ccerr.Invariant(ccerr.StageCodegen, "call target is %T, not an identifier", v.Callee)
	}

	var instrs []Instruction
	args := make([]VReg, 0, len(v.Arguments.Values))
	for _, a := range v.Arguments.Values {
		r, ai, err := s.expr(a)
		if err != nil {
			return 0, nil, err
		}
		instrs = append(instrs, ai...)
		args = append(args, r)
	}

	result := s.alloc.Temp()
	instrs = append(instrs, &Call{Name: callee.Var.Name, Args: args, Result: result})
	return result, instrs, nil
}

func (s *selector) prefix(v *ast.Prefix) (VReg, []Instruction, error) {
	reg, instrs, err := s.expr(v.Operand)
	if err != nil {
		return 0, nil, err
	}

	switch v.Op {
	case ast.PrefixPlus:
		return reg, instrs, nil

	case ast.PrefixNeg:
		instrs = append(instrs, &Negate{Reg: reg})
		return reg, instrs, nil

	case ast.PrefixNot:
		r := s.alloc.Temp()
		end := label(r, "")
		instrs = append(instrs,
			&LoadImmediate{Dst: r, Value: 1},
			&CompareImmediate{Reg: reg, Value: 0},
			&CondJump{Predicate: ast.InfixEqual, Label: end},
			&LoadImmediate{Dst: r, Value: 0},
			&Label{Name: end},
		)
		return r, instrs, nil

	default:
		return 0, nil, ccerr.Invariant(ccerr.StageCodegen, "unknown prefix operator %q", v.Op)
	}
}

func (s *selector) infix(v *ast.Infix) (VReg, []Instruction, error) {
	if v.Op == ast.InfixAssign {
		target, ok := v.Left.(*ast.Identifier)
		if !ok {
			return 0, nil, ccerr.Invariant(ccerr.StageCodegen, "assignment target is %T, not an identifier", v.Left)
		}
		dst := s.alloc.Bind(target.Var)
		src, instrs, err := s.expr(v.Right)
		if err != nil {
			return 0, nil, err
		}
		instrs = append(instrs, &Copy{Dst: dst, Src: src})
		return dst, instrs, nil
	}

	left, linstrs, err := s.expr(v.Left)
	if err != nil {
		return 0, nil, err
	}
	right, rinstrs, err := s.expr(v.Right)
	if err != nil {
		return 0, nil, err
	}
	instrs := append(linstrs, rinstrs...)

	if comparisonPredicates[v.Op] {
		r := s.alloc.Temp()
		end := label(r, "")
		instrs = append(instrs,
			&LoadImmediate{Dst: r, Value: 1},
			&CompareRegs{Left: left, Right: right},
			&CondJump{Predicate: v.Op, Label: end},
			&LoadImmediate{Dst: r, Value: 0},
			&Label{Name: end},
		)
		return r, instrs, nil
	}

	dst := s.alloc.Temp()
	instrs = append(instrs, &Copy{Dst: dst, Src: left}, &BinOp{Op: v.Op, Dst: dst, Src: right})
	return dst, instrs, nil
}
