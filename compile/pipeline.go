// Package compile wires every compiler stage together into one pipeline,
// in the same options/result shape the teacher's compile.Pipeline uses,
// generalized from a Z80 multi-stage backend to this compiler's six stages
// ending in MASM text (spec §4).
package compile

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"cc64/compiler/ast"
	"cc64/compiler/cfg"
	"cc64/compiler/codegen"
	"cc64/compiler/frontend"
	"cc64/compiler/masm"
	"cc64/compiler/regalloc"
	"cc64/compiler/ssa"
)

// Options configures a single pipeline run. Exactly one dump flag may be
// set; when set, the pipeline halts right after producing that stage's
// output instead of continuing to assembly (spec §6 "CLI").
type Options struct {
	SourceFile string

	DumpAST  bool
	DumpSSA  bool
	DumpCFG  bool
	DumpVASM bool
	DumpASM  bool

	Verbose bool
}

// FunctionResult carries one function's output at every stage it reached.
type FunctionResult struct {
	Name string
	CFG  *cfg.CFG
	VASM []codegen.Instruction
	Asm  *regalloc.Function
}

// Result is everything the pipeline produced before it stopped.
type Result struct {
	Program   *ast.Program
	Functions []*FunctionResult
	Assembly  string
}

var log = logrus.WithField("component", "compile")

// Run executes the pipeline described by opts and returns whatever it
// built before halting, either because a dump flag requested an early
// stop or because every stage completed.
func Run(opts Options) (*Result, error) {
	file, err := os.Open(opts.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("opening source file: %w", err)
	}
	defer file.Close()

	result, err := run(file, opts)
	if err != nil {
		log.WithError(err).Error("compilation failed")
	}
	return result, err
}

func run(src io.Reader, opts Options) (*Result, error) {
	if opts.Verbose {
		log.Info("stage 1: parsing")
	}
	program, err := frontend.ParseProgram(src)
	if err != nil {
		return nil, err
	}
	if opts.DumpAST {
		ast.Dump(program)
		return &Result{Program: program}, nil
	}

	result := &Result{Program: program}
	var allocated []*regalloc.Function

	for _, fn := range program.Functions {
		fr := &FunctionResult{Name: fn.Name}
		result.Functions = append(result.Functions, fr)

		if opts.Verbose {
			log.WithField("function", fn.Name).Info("stage 2: building CFG")
		}
		g, err := cfg.Build(fn)
		if err != nil {
			return result, err
		}
		fr.CFG = g

		if opts.Verbose {
			log.WithField("function", fn.Name).Info("stage 3a: SSA construction")
		}
		ssaResult, err := ssa.Construct(g)
		if err != nil {
			return result, err
		}

		if opts.DumpSSA {
			cfg.Dump(g)
			continue
		}

		if opts.Verbose {
			log.WithField("function", fn.Name).Info("stage 3b: SSA destruction")
		}
		ssa.Destruct(g, ssaResult.Leaving)

		if opts.DumpCFG {
			cfg.Dump(g)
			continue
		}

		if opts.Verbose {
			log.WithField("function", fn.Name).Info("stage 4: instruction selection")
		}
		vasm, err := codegen.Select(g)
		if err != nil {
			return result, err
		}
		fr.VASM = vasm

		if opts.DumpVASM {
			codegen.Dump(fn.Name, vasm)
			continue
		}

		if opts.Verbose {
			log.WithField("function", fn.Name).Info("stage 5: register allocation")
		}
		asmFn := regalloc.Allocate(fn.Name, len(fn.Parameters), vasm)
		fr.Asm = asmFn
		allocated = append(allocated, asmFn)

		if opts.DumpASM {
			regalloc.Dump(asmFn)
		}
	}

	if opts.DumpSSA || opts.DumpCFG || opts.DumpVASM || opts.DumpASM {
		return result, nil
	}

	if opts.Verbose {
		log.Info("stage 6: assembly text emission")
	}
	result.Assembly = masm.Emit(allocated)
	return result, nil
}
