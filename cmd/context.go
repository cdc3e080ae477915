package cmd

import (
	"context"
	"os/signal"
	"syscall"
)

// newCommandContext returns a context cancelled on SIGINT or SIGTERM, so a
// command waiting on a document lock or a backend gives up promptly.
func newCommandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
