package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/pdmvault/internal/app"
	"github.com/rpggio/pdmvault/internal/config"
	"github.com/rpggio/pdmvault/internal/logging"
	"github.com/rpggio/pdmvault/internal/mcp"
)

var version = "0.1.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries JSON-RPC; logs go to stderr or the log file.
	logger, closer, err := logging.New(cfg.Log.Path, cfg.Log.Level, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	identity := a.Sessions.Start(ctx, "")
	defer func() {
		// The signal context may be done already; release with a fresh one.
		if _, err := a.Sessions.Close(context.Background(), identity); err != nil {
			logger.Warn("session close failed", "session_id", identity.SessionID, "error", err)
		}
	}()

	server := mcp.NewServer(mcp.Config{
		Services:    a.MCPServices(),
		Identity:    identity,
		WorkspaceID: cfg.Workspace.ID,
		Version:     version,
		Logger:      logger,
	})

	logger.Info("starting stdio transport",
		"workspace", cfg.Workspace.ID,
		"db", cfg.DB.Path,
		"archive_root", cfg.Archive.Root,
		"session_id", identity.SessionID,
		"user", identity.UserID,
	)
	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}
