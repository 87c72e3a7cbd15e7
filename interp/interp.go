// Package interp drives the translation pipeline end to end: scan the
// source bytes, parse them into the program scope, lower the tree to
// bytecode, and execute it on the stack machine. Each stage halts on its
// first error and the driver surfaces it upward; no stage retries or
// recovers.
package interp

import (
	"fmt"
	"io"
	"os"

	"slip/ast"
	"slip/compiler"
	"slip/lexer"
	"slip/parser"
	"slip/vm"
)

// Ctx carries the run configuration: the filename used in diagnostics,
// the diagnostic toggles (all default off), and the writers the
// diagnostics go to.
type Ctx struct {
	Filename string

	PrintTokens      bool
	PrintAST         bool
	PrintBytecode    bool
	PrintStackOnExit bool
	PrintErrors      bool

	// Out receives the token/AST/bytecode/stack dumps, ErrOut the error
	// lines. Both default to the process streams.
	Out    io.Writer
	ErrOut io.Writer

	machine *vm.VM
}

// Make creates a run context for the given diagnostic filename with every
// toggle off.
func Make(filename string) *Ctx {
	return &Ctx{
		Filename: filename,
		Out:      os.Stdout,
		ErrOut:   os.Stderr,
	}
}

// report writes the error line when the context asks for it. The error
// still propagates either way; silencing diagnostics never turns a
// failure into a success.
func (ctx *Ctx) report(err error) error {
	if ctx.PrintErrors {
		fmt.Fprintln(ctx.ErrOut, err)
	}
	return err
}

// Run executes the source buffer through the whole pipeline. Any stage
// error is returned; callers map nil to exit 0 and non-nil to exit 1.
func (ctx *Ctx) Run(src []byte) error {
	tokens := lexer.New(src).Scan()
	if ctx.PrintTokens {
		for _, tok := range tokens {
			fmt.Fprintln(ctx.Out, tok)
		}
	}

	root, err := parser.Make(ctx.Filename, tokens).Parse()
	if err != nil {
		return ctx.report(err)
	}
	if ctx.PrintAST {
		ast.Print(ctx.Out, root)
	}

	instructions, err := compiler.New(ctx.Filename).Compile(root)
	if err != nil {
		return ctx.report(err)
	}
	if ctx.PrintBytecode {
		fmt.Fprint(ctx.Out, compiler.Disassemble(instructions))
	}

	ctx.machine = vm.New()
	if err := ctx.machine.Run(instructions); err != nil {
		return ctx.report(err)
	}

	if ctx.PrintStackOnExit {
		ctx.dumpStack()
	}
	return nil
}

// RunString executes a source string.
func (ctx *Ctx) RunString(src string) error {
	return ctx.Run([]byte(src))
}

// RunFile reads and executes a source file. When the context has no
// diagnostic filename yet, the path becomes it.
func (ctx *Ctx) RunFile(path string) error {
	if ctx.Filename == "" {
		ctx.Filename = path
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return ctx.report(err)
	}
	return ctx.Run(src)
}

// Stack returns the residual operand stack of the last run, bottom first.
// A clean run may leave zero or more values behind; the top of the stack
// is the last element.
func (ctx *Ctx) Stack() []int64 {
	if ctx.machine == nil {
		return nil
	}
	return ctx.machine.OperandStack()
}

// Globals returns the globals table of the last run.
func (ctx *Ctx) Globals() []int64 {
	if ctx.machine == nil {
		return nil
	}
	return ctx.machine.Globals()
}

func (ctx *Ctx) dumpStack() {
	values := ctx.machine.OperandStack()
	width := len(fmt.Sprintf("%d", len(values)))
	for i, value := range values {
		fmt.Fprintf(ctx.Out, "%*d: %d\n", width, i, value)
	}
}
