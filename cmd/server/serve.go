package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phil-jonesQ/app-ruuner/internal/app"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
}

func runServe(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, closer, err := newLogger(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Logger: logger, Version: version})
	if err != nil {
		logger.Error("failed to initialise store", "error", err)
		return err
	}

	if err := a.Prepare(ctx); err != nil {
		logger.Error("startup failed", "error", err)
		_ = a.Close(context.Background())
		return err
	}
	if err := a.StartWatcher(ctx); err != nil {
		logger.Warn("project watcher unavailable", "error", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: a.Handler,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr, "root", cfg.Projects.Root, "mcp", cfg.MCP.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", "error", err)
			_ = a.Close(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}
