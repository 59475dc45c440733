// File: cmd/serve.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/engine"
	"github.com/Tamas54/bravectl/internal/observability"
	"github.com/Tamas54/bravectl/internal/server"
	"github.com/Tamas54/bravectl/internal/session"
	"github.com/Tamas54/bravectl/internal/tools"
)

// newServeCmd creates the 'serve' command. It runs the stdio transport
// on the process's stdin/stdout and the HTTP+websocket transport on
// the configured listen address, all backed by one browser engine.
func newServeCmd() *cobra.Command {
	var httpOnly bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the tool server on stdio and HTTP.",
		Long: `The serve command exposes the browser tool catalog over three transports:
line-delimited JSON-RPC on stdin/stdout, an HTTP API, and a websocket.
The browser itself launches lazily on the first tool call.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), httpOnly)
		},
	}

	cmd.Flags().BoolVar(&httpOnly, "http-only", false, "Serve HTTP/websocket only; leave stdin untouched.")
	return cmd
}

func runServe(parentCtx context.Context, httpOnly bool) error {
	defer observability.Sync()
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(cfg.Sessions.Dir, logger)
	eng := engine.New(cfg, store, logger)

	registry := tools.NewRegistry(logger)
	if err := eng.RegisterTools(registry); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	dispatcher := server.NewDispatcher(registry, logger)
	httpServer := server.NewHTTPServer(cfg.Server, dispatcher, logger)

	errCh := make(chan error, 2)

	go func() {
		errCh <- httpServer.Start()
	}()

	if !httpOnly {
		stdio := server.NewStdioServer(dispatcher, os.Stdin, os.Stdout, logger)
		go func() {
			// Run returns when stdin closes, which for a spawned MCP
			// server means the client is gone.
			errCh <- stdio.Run(ctx)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal, shutting down gracefully...")
	case err := <-errCh:
		if err != nil {
			logger.Error("Transport stopped with error", zap.Error(err))
			runErr = err
		} else {
			logger.Info("Transport finished, shutting down...")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := eng.Shutdown(shutdownCtx); err != nil {
		logger.Error("Browser shutdown error", zap.Error(err))
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
