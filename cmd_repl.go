package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/subcommands"

	"slip/interp"
)

// Color definitions for REPL output: yellow for residual stack values,
// red for errors, cyan for the banner.
var (
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	cyanColor   = color.New(color.FgCyan)
)

// replCmd implements the REPL command. Each line is a complete Slip
// program run through the whole pipeline; whatever the program leaves on
// the operand stack is printed back.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive REPL session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive REPL session.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cyanColor.Println("Welcome to Slip! Each line runs as a full program; type \"exit\" to leave.")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			// io.EOF ends the session cleanly.
			return subcommands.ExitSuccess
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.TrimSpace(line) == "exit" {
			return subcommands.ExitSuccess
		}

		runCtx := interp.Make("repl")
		if err := runCtx.RunString(line); err != nil {
			redColor.Fprintln(os.Stderr, err)
			continue
		}
		for _, value := range runCtx.Stack() {
			yellowColor.Printf("%d\n", value)
		}
	}
}
