package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/tick/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
