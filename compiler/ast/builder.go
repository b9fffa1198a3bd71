package ast

import (
	"strconv"
	"strings"

	"cc64/compiler/ccerr"
)

// Build reconstructs a Program from the ordered (tag, text) event stream a
// front-end driver emits while walking its parse (spec §6). Build holds no
// knowledge of grammar or tokens; it only knows how to fold this exact event
// vocabulary into AST nodes, using two scratch stacks:
//
//   - exprs holds completed sub-expressions, most recently built on top.
//   - blocks holds completed Compound bodies, most recently closed on top;
//     EnterCompoundStatement/ExitCompoundStatement push/pop the statement
//     accumulator underneath it (accum).
//
// Any tag outside the vocabulary below is a fatal mismatch between the
// front-end driver and this reconstruction and is reported via ccerr.
func Build(events []Event) (*Program, error) {
	b := &builder{}
	for _, ev := range events {
		if err := b.apply(ev); err != nil {
			return nil, err
		}
	}
	if len(b.accum) != 0 {
		return nil, ccerr.Invariant(ccerr.StageAST, "event stream ended with %d open compound statement(s)", len(b.accum))
	}
	return &b.program, nil
}

type builder struct {
	program Program
	exprs   []Expression
	blocks  []*Compound
	accum   [][]Statement // one accumulator per currently-open compound
}

func (b *builder) pushExpr(e Expression) { b.exprs = append(b.exprs, e) }

func (b *builder) popExpr() (Expression, error) {
	if len(b.exprs) == 0 {
		return nil, ccerr.Invariant(ccerr.StageAST, "expression stack underflow")
	}
	e := b.exprs[len(b.exprs)-1]
	b.exprs = b.exprs[:len(b.exprs)-1]
	return e, nil
}

func (b *builder) popBlock() (*Compound, error) {
	if len(b.blocks) == 0 {
		return nil, ccerr.Invariant(ccerr.StageAST, "block stack underflow")
	}
	c := b.blocks[len(b.blocks)-1]
	b.blocks = b.blocks[:len(b.blocks)-1]
	return c, nil
}

// emit appends a finished statement to the innermost open compound.
func (b *builder) emit(s Statement) error {
	if len(b.accum) == 0 {
		return ccerr.Invariant(ccerr.StageAST, "statement outside any compound: %T", s)
	}
	top := len(b.accum) - 1
	b.accum[top] = append(b.accum[top], s)
	return nil
}

func (b *builder) apply(ev Event) error {
	switch ev.Tag {
	case TagExitPrimaryExpression:
		return b.exitPrimaryExpression(ev.Text)
	case TagExitUnaryExpression:
		return b.exitUnaryExpression(ev.Text)
	case TagExitArgumentExpressionList:
		return b.exitArgumentExpressionList(ev.Text)
	case TagExitPostfixExpression:
		return b.exitPostfixExpression()
	case TagExitMultiplicativeExpression,
		TagExitAdditiveExpression,
		TagExitRelationalExpression,
		TagExitEqualityExpression,
		TagExitLogicalAndExpression,
		TagExitLogicalOrExpression,
		TagExitAssignmentExpression:
		return b.exitInfixExpression(ev.Text)
	case TagExitDeclaration:
		return b.emit(&Declaration{Var: NewVar(ev.Text)})
	case TagEnterCompoundStatement:
		b.accum = append(b.accum, []Statement{})
		return nil
	case TagExitCompoundStatement:
		return b.exitCompoundStatement()
	case TagExitExpressionStatement:
		return b.exitExpressionStatement()
	case TagExitSelectionStatement:
		return b.exitSelectionStatement(ev.Text)
	case TagExitIterationStatement:
		return b.exitIterationStatement()
	case TagExitJumpStatement:
		return b.exitJumpStatement(ev.Text)
	case TagExitFunctionDefinition:
		return b.exitFunctionDefinition(ev.Text)
	default:
		return ccerr.New(ccerr.StageAST, "unrecognized AST event tag %q", ev.Tag)
	}
}

// ExitPrimaryExpression carries either an identifier name or a decimal
// integer literal as text; which one it is follows from whether the text
// parses as a number.
func (b *builder) exitPrimaryExpression(text string) error {
	if n, err := strconv.ParseInt(text, 10, 32); err == nil {
		b.pushExpr(&Number{Value: int32(n)})
		return nil
	}
	b.pushExpr(&Identifier{Var: NewVar(text)})
	return nil
}

func (b *builder) exitUnaryExpression(text string) error {
	operand, err := b.popExpr()
	if err != nil {
		return err
	}
	b.pushExpr(&Prefix{Op: PrefixOp(text), Operand: operand})
	return nil
}

// ExitArgumentExpressionList's text is the decimal argument count; this
// reconstruction has no separate "enter" marker for a call's argument list,
// so the count is how it knows how many completed expressions on top of the
// stack belong to it.
func (b *builder) exitArgumentExpressionList(text string) error {
	n, err := strconv.Atoi(text)
	if err != nil {
		return ccerr.New(ccerr.StageAST, "ExitArgumentExpressionList: malformed count %q", text)
	}
	if n < 0 || n > len(b.exprs) {
		return ccerr.Invariant(ccerr.StageAST, "ExitArgumentExpressionList: count %d exceeds expression stack depth %d", n, len(b.exprs))
	}
	vals := make([]Expression, n)
	copy(vals, b.exprs[len(b.exprs)-n:])
	b.exprs = b.exprs[:len(b.exprs)-n]
	b.pushExpr(&Arguments{Values: vals})
	return nil
}

// ExitPostfixExpression only fires when the postfix was a call: callee then
// its already-built Arguments are the top two entries on the stack.
func (b *builder) exitPostfixExpression() error {
	args, err := b.popExpr()
	if err != nil {
		return err
	}
	arguments, ok := args.(*Arguments)
	if !ok {
		return ccerr.Invariant(ccerr.StageAST, "ExitPostfixExpression: expected Arguments on stack, got %T", args)
	}
	callee, err := b.popExpr()
	if err != nil {
		return err
	}
	b.pushExpr(&Call{Callee: callee, Arguments: arguments})
	return nil
}

func (b *builder) exitInfixExpression(text string) error {
	right, err := b.popExpr()
	if err != nil {
		return err
	}
	left, err := b.popExpr()
	if err != nil {
		return err
	}
	b.pushExpr(&Infix{Op: InfixOp(text), Left: left, Right: right})
	return nil
}

func (b *builder) exitCompoundStatement() error {
	if len(b.accum) == 0 {
		return ccerr.Invariant(ccerr.StageAST, "ExitCompoundStatement with no matching Enter")
	}
	top := len(b.accum) - 1
	stmts := b.accum[top]
	b.accum = b.accum[:top]
	b.blocks = append(b.blocks, &Compound{Statements: stmts})
	return nil
}

func (b *builder) exitExpressionStatement() error {
	e, err := b.popExpr()
	if err != nil {
		return err
	}
	return b.emit(&ExpressionStmt{Expression: e})
}

// ExitSelectionStatement's text is non-empty exactly when an else branch was
// parsed; in that case two closed compounds are waiting on the block stack
// (then, pushed first; else, pushed second), otherwise just the one.
func (b *builder) exitSelectionStatement(text string) error {
	var alt *Compound
	if text != "" {
		a, err := b.popBlock()
		if err != nil {
			return err
		}
		alt = a
	}
	then, err := b.popBlock()
	if err != nil {
		return err
	}
	cond, err := b.popExpr()
	if err != nil {
		return err
	}
	stmt := &If{Condition: cond, Body: then}
	if alt != nil {
		stmt.Alternative = alt
	}
	return b.emit(stmt)
}

func (b *builder) exitIterationStatement() error {
	body, err := b.popBlock()
	if err != nil {
		return err
	}
	cond, err := b.popExpr()
	if err != nil {
		return err
	}
	return b.emit(&While{Condition: cond, Body: body})
}

// ExitJumpStatement's text is empty for a bare `return;`; otherwise the
// return value expression is already on top of the expression stack.
func (b *builder) exitJumpStatement(text string) error {
	if text == "" {
		return b.emit(&Return{})
	}
	v, err := b.popExpr()
	if err != nil {
		return err
	}
	return b.emit(&Return{Value: v})
}

// ExitFunctionDefinition's text is "<void|int> <name> <param1> <param2> ..."
// with parameters listed in reverse declaration order; the function body is
// the single compound waiting on the block stack.
func (b *builder) exitFunctionDefinition(text string) error {
	body, err := b.popBlock()
	if err != nil {
		return err
	}
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ccerr.New(ccerr.StageAST, "ExitFunctionDefinition: malformed signature %q", text)
	}
	void := fields[0] == "void"
	name := fields[1]
	rest := fields[2:]
	params := make([]SSAVar, len(rest))
	for i, p := range rest {
		params[len(rest)-1-i] = NewVar(p)
	}
	b.program.Functions = append(b.program.Functions, &Function{
		Void:       void,
		Name:       name,
		Parameters: params,
		Body:       body,
	})
	return nil
}
