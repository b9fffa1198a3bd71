// Command cc64 is the compiler's entry point: one source file in, either a
// dumped intermediate stage or a linked main.exe out (spec §6).
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cc64/compile"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts compile.Options

	cmd := &cobra.Command{
		Use:   "cc64 <source-file>",
		Short: "Compile a C subset to MASM x64 assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SourceFile = args[0]
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.DumpAST, "ast", false, "dump the parsed AST and stop")
	flags.BoolVar(&opts.DumpSSA, "ssa", false, "dump the SSA-form CFG (after construction, before destruction) and stop")
	flags.BoolVar(&opts.DumpCFG, "cfg", false, "dump the control-flow graph and stop")
	flags.BoolVar(&opts.DumpVASM, "vasm", false, "dump the virtual-register instruction stream and stop")
	flags.BoolVar(&opts.DumpASM, "asm", false, "dump the allocated physical-register instruction stream and stop")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log each pipeline stage as it runs")
	cmd.MarkFlagsMutuallyExclusive("ast", "ssa", "cfg", "vasm", "asm")

	return cmd
}

func run(opts compile.Options) error {
	result, err := compile.Run(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	if opts.DumpAST || opts.DumpSSA || opts.DumpCFG || opts.DumpVASM || opts.DumpASM {
		return nil
	}

	return assemble(result.Assembly)
}

const outputAsm = "main.asm"

// assemble writes the generated assembly to disk and invokes the external
// MASM assembler (spec §6 "Output assembly"): stdout/stderr are inherited
// so an assembler failure surfaces directly to the user.
func assemble(asm string) error {
	if err := os.WriteFile(outputAsm, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputAsm, err)
	}

	cmd := exec.Command("ml64", "/c", "/Zi", "/Fo", "main.obj", outputAsm)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("assembling %s: %w", outputAsm, err)
	}

	link := exec.Command("link", "/subsystem:console", "/out:main.exe", "main.obj", "driver.obj")
	link.Stdout = os.Stdout
	link.Stderr = os.Stderr
	if err := link.Run(); err != nil {
		return fmt.Errorf("linking main.exe: %w", err)
	}

	logrus.WithField("output", "main.exe").Info("build complete")
	return nil
}
