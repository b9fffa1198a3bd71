// Package ccerr defines the compiler's fatal-error taxonomy (spec §7).
//
// Every fatal error raised inside a compiler stage — a source file that
// fails to tokenize or parse, an unknown parser event tag, an undefined SSA variable, a
// Nop or Phi statement reaching a stage that must not see one — is reported
// as a *CompilerError carrying the stage it happened in and, where one
// exists, a source Location.
package ccerr

import (
	"fmt"

	"cc64/compiler/lexer"
)

// Stage identifies which pipeline stage raised an error.
type Stage string

const (
	StageFrontEnd  Stage = "front-end"
	StageAST       Stage = "ast"
	StageCFG       Stage = "cfg"
	StageSSA       Stage = "ssa"
	StageCodegen   Stage = "codegen"
	StageRegAlloc  Stage = "regalloc"
	StageAssembler Stage = "assembler"
)

// CompilerError is a fatal, unrecoverable pipeline error.
type CompilerError struct {
	Stage    Stage
	Message  string
	Location *lexer.Location // nil when no source position applies
}

func (e *CompilerError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s error (line %d, col %d): %s", e.Stage, e.Location.Line, e.Location.Column, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Stage, e.Message)
}

// New creates a CompilerError with no source location.
func New(stage Stage, format string, args ...any) *CompilerError {
	return &CompilerError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// NewAt creates a CompilerError tied to a source location.
func NewAt(stage Stage, loc lexer.Location, format string, args ...any) *CompilerError {
	return &CompilerError{Stage: stage, Message: fmt.Sprintf(format, args...), Location: &loc}
}

// UndefinedVariable reports a use of a name with no reaching definition
// during SSA renaming (spec §4.2, §7).
func UndefinedVariable(name string) *CompilerError {
	return New(StageSSA, "undefined variable %q", name)
}

// Invariant reports a structural invariant violation — a Nop or Phi
// reaching a stage that should never see one, a malformed call shape, etc.
func Invariant(stage Stage, format string, args ...any) *CompilerError {
	return New(stage, format, args...)
}
