package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"slip/lexer"
)

// tokensCmd implements the tokens command: scan a source file and dump
// the token stream without parsing or executing it.
type tokensCmd struct{}

func (*tokensCmd) Name() string     { return "tokens" }
func (*tokensCmd) Synopsis() string { return "Dump the token stream of a source file" }
func (*tokensCmd) Usage() string {
	return `tokens <file>:
  Scan Slip code and print one token per line.
`
}

func (t *tokensCmd) SetFlags(f *flag.FlagSet) {}

func (t *tokensCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, tok := range lexer.New(data).Scan() {
		fmt.Println(tok)
	}
	return subcommands.ExitSuccess
}
