package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"slip/interp"
)

// runCmd implements the run command: execute a Slip source file, with the
// diagnostic dumps toggled per flag.
type runCmd struct {
	printTokens      bool
	printAST         bool
	printBytecode    bool
	printStackOnExit bool
	printErrors      bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute Slip code from a source file" }
func (*runCmd) Usage() string {
	return `run [-t] [-a] [-b] [-s] [-e] <file>:
  Execute Slip code.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.printTokens, "t", false, "dump the scanned tokens")
	f.BoolVar(&r.printAST, "a", false, "dump the parsed AST")
	f.BoolVar(&r.printBytecode, "b", false, "dump the compiled bytecode")
	f.BoolVar(&r.printStackOnExit, "s", false, "dump the residual operand stack on exit")
	f.BoolVar(&r.printErrors, "e", false, "print error diagnostics")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	runCtx := interp.Make(filename)
	runCtx.PrintTokens = r.printTokens
	runCtx.PrintAST = r.printAST
	runCtx.PrintBytecode = r.printBytecode
	runCtx.PrintStackOnExit = r.printStackOnExit
	runCtx.PrintErrors = r.printErrors

	if err := runCtx.RunFile(filename); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
