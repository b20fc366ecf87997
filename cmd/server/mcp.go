package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phil-jonesQ/app-ruuner/internal/app"
	"github.com/phil-jonesQ/app-ruuner/internal/mcp"
)

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Long: `Serve the dashboard's MCP tools on stdin/stdout.

The stdio server shares the database with a running HTTP server, so it skips
the startup session sweep and legacy import. Logs go to stderr.`,
		Example: `  # claude_desktop_config.json
  # {"mcpServers": {"apprunner": {"command": "apprunner", "args": ["mcp"]}}}`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd, flags)
		},
	}
}

func runMCP(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// stdout carries JSON-RPC.
	logger, closer, err := newLogger(cfg.Log, os.Stderr)
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
	defer a.Close(context.Background())

	logger.Info("starting stdio transport")
	if err := mcp.RunStdio(ctx, a.MCP); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
		return err
	}
	return nil
}
