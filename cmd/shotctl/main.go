package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shotforge/internal/startup"
)

func main() {
	startup.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
