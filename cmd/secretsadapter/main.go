package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/systmms/secretsadapter/cmd/secretsadapter/commands"
	"github.com/systmms/secretsadapter/internal/config"
	dserrors "github.com/systmms/secretsadapter/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := commands.NewRuntime(&config.Config{})
	rootCmd := commands.NewRootCommand(rt, fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))

	err := rootCmd.ExecuteContext(ctx)
	if flushErr := rt.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	return err
}
