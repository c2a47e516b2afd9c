package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-register/internal/http/handlers/student"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := open(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	a.startFeed(ctx)

	// Handlers get the feed, not the raw store, so mutations made over
	// HTTP reach stream subscribers too.
	router := http.NewServeMux()
	student.Register(router, a.feed, a.feed)

	server := &http.Server{
		Addr:    a.cfg.HTTPServer.Addr,
		Handler: router,

		// No WriteTimeout: /api/students/stream keeps responses open.
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// ListenAndServe blocks, so it runs in its own goroutine and main
	// waits for a signal below.
	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("server started", slog.String("address", a.cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case <-done:
		a.log.Info("shutdown signal received, stopping server...")
	case err := <-serveErr:
		if err != nil {
			a.log.Error("server encountered an error", slog.String("error", err.Error()))
			return err
		}
	}

	// Ends open snapshot streams so Shutdown does not wait for them.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return err
	}

	a.log.Info("server stopped gracefully")
	return nil
}
