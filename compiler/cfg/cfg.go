// Package cfg builds a control-flow graph out of a function's pre-CFG
// statement tree (spec §4.1). Every edge is added through connect, which
// updates both sides at once; edges out of a returning arm are never added,
// so there is no disconnect step. Because this front end holds the complete
// statement tree
// before CFG construction starts (unlike a streaming parser-driven
// builder), block placement is decided structurally per construct, in the
// style of the teacher's processIf/processFor, rather than by a scratch-
// index state machine replayed one token at a time.
package cfg

import (
	"cc64/compiler/ast"
	"cc64/compiler/ccerr"
)

// Block is one basic block: a straight-line statement run plus the set of
// blocks that can precede and follow it.
type Block struct {
	Statements   []ast.Statement
	Predecessors map[int]struct{}
	Successors   map[int]struct{}
}

func newBlock() *Block {
	return &Block{
		Predecessors: make(map[int]struct{}),
		Successors:   make(map[int]struct{}),
	}
}

// CFG is a function's control-flow graph: blocks indexed by position in
// Blocks, block 0 is always the entry. There is no reserved prolog/epilog
// sentinel block — index 0 is the function's first real block, per the
// data model in spec §3.
//
// IfBranches and WhileBranches record, per condition block, the exit block
// of each arm the builder resolved while laying out the construct. Code
// selection (spec §4.4) needs these exact indices to schedule labels and
// jumps on the right block; re-deriving them later from block-index
// arithmetic would be fragile, so the builder hands them down directly.
type CFG struct {
	Void          bool
	Name          string
	Parameters    []ast.SSAVar
	Blocks        []*Block
	IfBranches    map[int]IfBranch
	WhileBranches map[int]WhileBranch
}

// IfBranch describes one if-statement's layout, keyed by its condition
// block's index.
type IfBranch struct {
	HasAlt      bool
	BodyExit    int
	BodyReturns bool
	AltExit     int // meaningless unless HasAlt
	AltReturns  bool
}

// WhileBranch describes one while-statement's layout, keyed by its
// condition block's index.
type WhileBranch struct {
	BodyExit    int
	BodyReturns bool
}

type builder struct {
	blocks        []*Block
	ifBranches    map[int]IfBranch
	whileBranches map[int]WhileBranch
}

func (b *builder) newBlock() int {
	b.blocks = append(b.blocks, newBlock())
	return len(b.blocks) - 1
}

func (b *builder) push(block int, stmt ast.Statement) {
	b.blocks[block].Statements = append(b.blocks[block].Statements, stmt)
}

func (b *builder) connect(pred, succ int) {
	b.blocks[pred].Successors[succ] = struct{}{}
	b.blocks[succ].Predecessors[pred] = struct{}{}
}

// Build walks fn's pre-CFG statement tree and produces its CFG.
func Build(fn *ast.Function) (*CFG, error) {
	b := &builder{
		ifBranches:    map[int]IfBranch{},
		whileBranches: map[int]WhileBranch{},
	}
	entry := b.newBlock()
	if _, _, err := b.statement(entry, fn.Body); err != nil {
		return nil, err
	}
	return &CFG{
		Void:          fn.Void,
		Name:          fn.Name,
		Parameters:    fn.Parameters,
		Blocks:        b.blocks,
		IfBranches:    b.ifBranches,
		WhileBranches: b.whileBranches,
	}, nil
}

// isEmpty reports whether a statement contributes no instructions of its
// own — only an empty compound qualifies, used to decide whether an if's
// arm folds away instead of getting its own block (spec §4.1, §9 "empty-
// alternative edge policy").
func isEmpty(stmt ast.Statement) bool {
	if stmt == nil {
		return true
	}
	c, ok := stmt.(*ast.Compound)
	return ok && len(c.Statements) == 0
}

// statement lowers stmt into block `cur`, returning the block execution
// continues in afterward and whether cur is now unconditionally
// terminated by a return (so the caller must not connect it forward).
func (b *builder) statement(cur int, stmt ast.Statement) (next int, returns bool, err error) {
	switch s := stmt.(type) {
	case *ast.Compound:
		for _, sub := range s.Statements {
			if cur, returns, err = b.statement(cur, sub); err != nil {
				return 0, false, err
			}
			if returns {
				// Anything textually following a return in the same
				// compound is unreachable; give it a fresh, unconnected
				// block so it still has somewhere to live.
				cur = b.newBlock()
			}
		}
		return cur, returns, nil

	case *ast.Declaration, *ast.ExpressionStmt:
		b.push(cur, stmt)
		return cur, false, nil

	case *ast.Return:
		b.push(cur, stmt)
		return cur, true, nil

	case *ast.If:
		return b.ifStatement(cur, s)

	case *ast.While:
		return b.whileStatement(cur, s)

	case *ast.Nop, *ast.Phi:
		return 0, false, ccerr.Invariant(ccerr.StageCFG, "%T reached the CFG builder", stmt)

	default:
		return 0, false, ccerr.Invariant(ccerr.StageCFG, "unhandled statement type %T", stmt)
	}
}

func (b *builder) ifStatement(cond int, s *ast.If) (next int, returns bool, err error) {
	b.push(cond, &ast.If{Condition: s.Condition})

	hasAlt := s.Alternative != nil
	bodyEmpty := isEmpty(s.Body)
	altEmpty := !hasAlt || isEmpty(s.Alternative)

	if bodyEmpty && altEmpty {
		join := b.newBlock()
		b.connect(cond, join)
		return join, false, nil
	}

	if altEmpty {
		bodyEntry := b.newBlock()
		b.connect(cond, bodyEntry)
		bodyExit, bodyReturns, err := b.statement(bodyEntry, s.Body)
		if err != nil {
			return 0, false, err
		}
		join := b.newBlock()
		b.connect(cond, join)
		if !bodyReturns {
			b.connect(bodyExit, join)
		}
		b.ifBranches[cond] = IfBranch{HasAlt: false, BodyExit: bodyExit, BodyReturns: bodyReturns}
		return join, false, nil
	}

	bodyEntry := b.newBlock()
	b.connect(cond, bodyEntry)
	bodyExit, bodyReturns, err := b.statement(bodyEntry, s.Body)
	if err != nil {
		return 0, false, err
	}

	altEntry := b.newBlock()
	b.connect(cond, altEntry)
	altExit, altReturns, err := b.statement(altEntry, s.Alternative)
	if err != nil {
		return 0, false, err
	}

	branch := IfBranch{
		HasAlt:      true,
		BodyExit:    bodyExit,
		BodyReturns: bodyReturns,
		AltExit:     altExit,
		AltReturns:  altReturns,
	}
	b.ifBranches[cond] = branch

	if bodyReturns && altReturns {
		return b.newBlock(), true, nil
	}
	join := b.newBlock()
	if !bodyReturns {
		b.connect(bodyExit, join)
	}
	if !altReturns {
		b.connect(altExit, join)
	}
	return join, false, nil
}

func (b *builder) whileStatement(cur int, s *ast.While) (next int, returns bool, err error) {
	cond := b.newBlock()
	b.connect(cur, cond)
	b.push(cond, &ast.While{Condition: s.Condition})

	bodyEntry := b.newBlock()
	b.connect(cond, bodyEntry)
	bodyExit, bodyReturns, err := b.statement(bodyEntry, s.Body)
	if err != nil {
		return 0, false, err
	}
	if !bodyReturns {
		// Back-edge: recorded only as a predecessor of cond, never as one
		// of cond's own two declared successors (spec §3 invariant).
		b.connect(bodyExit, cond)
	}

	loopExit := b.newBlock()
	b.connect(cond, loopExit)
	b.whileBranches[cond] = WhileBranch{BodyExit: bodyExit, BodyReturns: bodyReturns}
	return loopExit, false, nil
}
