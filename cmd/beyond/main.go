package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/beyond-api/beyond-cli/internal/cmd"
)

// Swapped out by tests.
var (
	executeCmd  = cmd.Execute
	mapExitCode = cmd.ExitCode
)

// run executes the CLI and returns the process exit code. Interrupts cancel
// the context so in-flight requests stop.
func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := executeCmd(ctx, args)
	if err == nil {
		return 0
	}
	return mapExitCode(err)
}

func main() {
	os.Exit(run(os.Args[1:]))
}
