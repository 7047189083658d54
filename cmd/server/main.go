// Package main runs the commitscope server: REST and MCP over HTTP, or MCP
// over stdio with a background HTTP health endpoint.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bull/commitscope/internal/api"
	"github.com/bull/commitscope/internal/app"
	"github.com/bull/commitscope/internal/config"
	mcpserver "github.com/bull/commitscope/internal/mcp"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Stdout belongs to the MCP protocol in stdio mode.
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	mcp := mcpserver.NewServer(&mcpserver.Config{
		Searcher:  a.Ranker,
		Processor: a.Pipeline,
		Version:   version,
		Logger:    logger,
	})

	httpServer := api.NewServer(cfg.Addr(), api.Deps{
		Searcher:  a.Ranker,
		Processor: a.Pipeline,
		Health:    a.Store,
		MCP:       mcp,
		Gatherer:  a.Registry,
	}, logger)

	if cfg.ServerMode {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("HTTP shutdown failed", "error", err)
			}
		}()

		if err := httpServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
		return
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Warn("Health server error", "error", err)
		}
	}()

	logger.Info("Starting commitscope MCP server (stdio mode)", "version", version)
	if err := mcp.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server error", "error", err)
		os.Exit(1)
	}
}
