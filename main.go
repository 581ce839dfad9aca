package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/debemdeboas/zenblog/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, cli.Options{}, os.Args[1:]); err != nil {
		cli.PrintError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
