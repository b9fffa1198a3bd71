// Package frontend is a recursive-descent parser over the C subset (spec
// §2/§3) that drives compiler/ast.Build by emitting its exact event
// vocabulary while it walks the grammar, in the same spirit as the
// teacher's parser.go driving a grammar to build parse-tree nodes.
package frontend

import (
	"fmt"
	"io"
	"strings"

	"cc64/compiler/ast"
	"cc64/compiler/ccerr"
	"cc64/compiler/lexer"
)

// ParseProgram tokenizes r and parses it into an *ast.Program.
func ParseProgram(r io.Reader) (*ast.Program, error) {
	tokens, err := lexer.TokenizerFromReader(r).Tokens()
	if err != nil {
		return nil, ccerr.New(ccerr.StageFrontEnd, "tokenizing source: %v", err)
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already-scanned token list into an *ast.Program.
func ParseTokens(tokens []lexer.Token) (*ast.Program, error) {
	p := &parser{stream: lexer.NewTokenStream(tokens)}
	p.advance()
	if err := p.program(); err != nil {
		return nil, err
	}
	return ast.Build(p.events)
}

type parser struct {
	stream  lexer.TokenStream
	current lexer.Token
	events  []ast.Event
}

func (p *parser) emit(tag ast.Tag, text string) {
	p.events = append(p.events, ast.Event{Tag: tag, Text: text})
}

func (p *parser) advance() lexer.Token {
	p.current = p.stream.Read()
	return p.current
}

func (p *parser) is(id lexer.TokenId) bool {
	return p.current != nil && p.current.Id() == id
}

func (p *parser) errorf(format string, args ...interface{}) error {
	loc := lexer.Location{}
	if p.current != nil {
		loc = p.current.Location()
	}
	return ccerr.NewAt(ccerr.StageFrontEnd, loc, format, args...)
}

// expect consumes the current token if it matches id, returning its text.
func (p *parser) expect(id lexer.TokenId) (string, error) {
	if !p.is(id) {
		got := "eof"
		if p.current != nil {
			got = p.current.Text()
		}
		return "", p.errorf("expected %s, got %q", id, got)
	}
	text := p.current.Text()
	p.advance()
	return text, nil
}

// ---------------------------------------------------------------------
// program / functions
// ---------------------------------------------------------------------

func (p *parser) program() error {
	for !p.is(lexer.TokenEOF) {
		if err := p.functionDefinition(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) functionDefinition() error {
	var void bool
	switch {
	case p.is(lexer.TokenVoid):
		void = true
		p.advance()
	case p.is(lexer.TokenInt):
		p.advance()
	default:
		return p.errorf("expected 'void' or 'int' to start a function definition")
	}
	name, err := p.expect(lexer.TokenIdentifier)
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenParenOpen); err != nil {
		return err
	}
	var params []string
	if !p.is(lexer.TokenParenClose) {
		for {
			if _, err := p.expect(lexer.TokenInt); err != nil {
				return err
			}
			pname, err := p.expect(lexer.TokenIdentifier)
			if err != nil {
				return err
			}
			params = append(params, pname)
			if p.is(lexer.TokenComma) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.TokenParenClose); err != nil {
		return err
	}
	if err := p.compoundStatement(); err != nil {
		return err
	}

	var b strings.Builder
	if void {
		b.WriteString("void")
	} else {
		b.WriteString("int")
	}
	b.WriteByte(' ')
	b.WriteString(name)
	for i := len(params) - 1; i >= 0; i-- {
		b.WriteByte(' ')
		b.WriteString(params[i])
	}
	p.emit(ast.TagExitFunctionDefinition, b.String())
	return nil
}

// ---------------------------------------------------------------------
// statements
// ---------------------------------------------------------------------

func (p *parser) compoundStatement() error {
	if _, err := p.expect(lexer.TokenBraceOpen); err != nil {
		return err
	}
	p.emit(ast.TagEnterCompoundStatement, "")
	for !p.is(lexer.TokenBraceClose) {
		if err := p.statement(); err != nil {
			return err
		}
	}
	if _, err := p.expect(lexer.TokenBraceClose); err != nil {
		return err
	}
	p.emit(ast.TagExitCompoundStatement, "")
	return nil
}

func (p *parser) statement() error {
	switch {
	case p.is(lexer.TokenBraceOpen):
		return p.compoundStatement()
	case p.is(lexer.TokenIf):
		return p.selectionStatement()
	case p.is(lexer.TokenWhile):
		return p.iterationStatement()
	case p.is(lexer.TokenReturn):
		return p.jumpStatement()
	case p.is(lexer.TokenInt):
		return p.declarationStatement()
	default:
		return p.expressionStatement()
	}
}

func (p *parser) declarationStatement() error {
	p.advance() // 'int'
	name, err := p.expect(lexer.TokenIdentifier)
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return err
	}
	p.emit(ast.TagExitDeclaration, name)
	return nil
}

func (p *parser) expressionStatement() error {
	if err := p.expression(); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return err
	}
	p.emit(ast.TagExitExpressionStatement, "")
	return nil
}

func (p *parser) selectionStatement() error {
	p.advance() // 'if'
	if _, err := p.expect(lexer.TokenParenOpen); err != nil {
		return err
	}
	if err := p.expression(); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenParenClose); err != nil {
		return err
	}
	if err := p.compoundStatement(); err != nil {
		return err
	}
	hasElse := p.is(lexer.TokenElse)
	if hasElse {
		p.advance()
		if err := p.compoundStatement(); err != nil {
			return err
		}
	}
	text := ""
	if hasElse {
		text = "else"
	}
	p.emit(ast.TagExitSelectionStatement, text)
	return nil
}

func (p *parser) iterationStatement() error {
	p.advance() // 'while'
	if _, err := p.expect(lexer.TokenParenOpen); err != nil {
		return err
	}
	if err := p.expression(); err != nil {
		return err
	}
	if _, err := p.expect(lexer.TokenParenClose); err != nil {
		return err
	}
	if err := p.compoundStatement(); err != nil {
		return err
	}
	p.emit(ast.TagExitIterationStatement, "")
	return nil
}

func (p *parser) jumpStatement() error {
	p.advance() // 'return'
	hasValue := !p.is(lexer.TokenSemicolon)
	if hasValue {
		if err := p.expression(); err != nil {
			return err
		}
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return err
	}
	text := ""
	if hasValue {
		text = "value"
	}
	p.emit(ast.TagExitJumpStatement, text)
	return nil
}

// ---------------------------------------------------------------------
// expressions, precedence-climbing, one tag emitted per reduction
// ---------------------------------------------------------------------

func (p *parser) expression() error {
	return p.assignmentExpression()
}

func (p *parser) assignmentExpression() error {
	if err := p.logicalOrExpression(); err != nil {
		return err
	}
	if p.is(lexer.TokenEquals) {
		p.advance()
		if err := p.assignmentExpression(); err != nil {
			return err
		}
		p.emit(ast.TagExitAssignmentExpression, "=")
	}
	return nil
}

func (p *parser) binaryLevel(tag ast.Tag, next func() error, ops map[lexer.TokenId]string) error {
	if err := next(); err != nil {
		return err
	}
	for {
		if p.current == nil {
			return nil
		}
		op, ok := ops[p.current.Id()]
		if !ok {
			return nil
		}
		p.advance()
		if err := next(); err != nil {
			return err
		}
		p.emit(tag, op)
	}
}

func (p *parser) logicalOrExpression() error {
	return p.binaryLevel(ast.TagExitLogicalOrExpression, p.logicalAndExpression,
		map[lexer.TokenId]string{lexer.TokenOrOr: "||"})
}

func (p *parser) logicalAndExpression() error {
	return p.binaryLevel(ast.TagExitLogicalAndExpression, p.equalityExpression,
		map[lexer.TokenId]string{lexer.TokenAndAnd: "&&"})
}

func (p *parser) equalityExpression() error {
	return p.binaryLevel(ast.TagExitEqualityExpression, p.relationalExpression,
		map[lexer.TokenId]string{lexer.TokenEqualEqual: "==", lexer.TokenNotEqual: "!="})
}

func (p *parser) relationalExpression() error {
	return p.binaryLevel(ast.TagExitRelationalExpression, p.additiveExpression, map[lexer.TokenId]string{
		lexer.TokenLess: "<", lexer.TokenGreater: ">",
		lexer.TokenLessOrEqual: "<=", lexer.TokenGreaterOrEqual: ">=",
	})
}

func (p *parser) additiveExpression() error {
	return p.binaryLevel(ast.TagExitAdditiveExpression, p.multiplicativeExpression,
		map[lexer.TokenId]string{lexer.TokenPlus: "+", lexer.TokenMinus: "-"})
}

func (p *parser) multiplicativeExpression() error {
	return p.binaryLevel(ast.TagExitMultiplicativeExpression, p.unaryExpression,
		map[lexer.TokenId]string{lexer.TokenAsterisk: "*", lexer.TokenSlash: "/"})
}

var prefixOps = map[lexer.TokenId]string{
	lexer.TokenPlus:  "+",
	lexer.TokenMinus: "-",
	lexer.TokenBang:  "!",
}

func (p *parser) unaryExpression() error {
	if op, ok := prefixOps[p.current.Id()]; ok {
		p.advance()
		if err := p.unaryExpression(); err != nil {
			return err
		}
		p.emit(ast.TagExitUnaryExpression, op)
		return nil
	}
	return p.postfixExpression()
}

func (p *parser) postfixExpression() error {
	if err := p.primaryExpression(); err != nil {
		return err
	}
	if !p.is(lexer.TokenParenOpen) {
		return nil
	}
	p.advance()
	count := 0
	if !p.is(lexer.TokenParenClose) {
		for {
			if err := p.assignmentExpression(); err != nil {
				return err
			}
			count++
			if p.is(lexer.TokenComma) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(lexer.TokenParenClose); err != nil {
		return err
	}
	p.emit(ast.TagExitArgumentExpressionList, fmt.Sprintf("%d", count))
	p.emit(ast.TagExitPostfixExpression, "call")
	return nil
}

func (p *parser) primaryExpression() error {
	switch {
	case p.is(lexer.TokenIdentifier), p.is(lexer.TokenNumber):
		text := p.current.Text()
		p.advance()
		p.emit(ast.TagExitPrimaryExpression, text)
		return nil
	case p.is(lexer.TokenParenOpen):
		p.advance()
		if err := p.expression(); err != nil {
			return err
		}
		_, err := p.expect(lexer.TokenParenClose)
		return err
	default:
		got := "eof"
		if p.current != nil {
			got = p.current.Text()
		}
		return p.errorf("expected an expression, got %q", got)
	}
}
