package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/tyler180/bball-reference-scrapers/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(cli.ExitError)
	}
}
