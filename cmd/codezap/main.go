// Command codezap is a terminal editor that sends JavaScript to the codezap
// backend for optimization.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/asynkron/codezap/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	os.Exit(cli.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
