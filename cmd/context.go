package cmd

import (
	"context"
	"os/signal"
	"syscall"
)

// rootContext returns a context canceled on SIGINT/SIGTERM, giving every
// engine task a chance to finish its in-flight work and flush before the
// process exits.
func rootContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}
