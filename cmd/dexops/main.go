package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MANTRA-Chain/mantra-dex/cmd/dexops/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cmd.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	os.Exit(cmd.ReportError(os.Stderr, err))
}
