package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-register/internal/register"
	"github.com/aanand-mishra/student-register/internal/tui"
)

// runTUI opens the terminal form. The screen belongs to bubbletea, so
// logs go to the configured log file.
func runTUI(cmd *cobra.Command, args []string) error {
	a, err := open(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots, unsubscribe := a.feed.Subscribe()
	defer unsubscribe()
	a.startFeed(ctx)

	ctrl := register.New(a.feed, a.log)
	return tui.Run(ctx, ctrl, snapshots)
}
