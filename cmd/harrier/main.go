// Harrier - Merchant risk pattern detection engine.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-finance/harrier/internal/alert"
	"github.com/opensource-finance/harrier/internal/api"
	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/pattern"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/risk"
	"github.com/opensource-finance/harrier/internal/screen"
	"github.com/opensource-finance/harrier/internal/timeline"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("HARRIER_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting harrier",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for distributed mode via environment
	if os.Getenv("HARRIER_MODE") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in distributed mode")
	}

	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"alerts", cfg.Alerts.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize Alert Publisher
	alerts, err := alert.New(cfg.Alerts)
	if err != nil {
		slog.Error("failed to initialize alert publisher", "error", err)
		os.Exit(1)
	}
	defer alerts.Close()
	slog.Info("alert publisher initialized", "type", cfg.Alerts.Type)

	// Initialize Screener
	screener, err := screen.New(cfg.Screen)
	if err != nil {
		slog.Error("failed to initialize screener", "error", err)
		os.Exit(1)
	}
	slog.Info("screener initialized")

	// Initialize Timeline Generator
	tl := timeline.NewGenerator(cacheImpl, repo, cfg.Risk.TimelineTTL)

	// Initialize Risk Analyzer
	analyzer := risk.NewAnalyzer(repo, cacheImpl, alerts, tl, pattern.DefaultConfig(), cfg.Risk)
	slog.Info("risk analyzer initialized",
		"window_days", cfg.Risk.DefaultWindowDays,
		"max_detectors", cfg.Risk.MaxConcurrentDetectors,
	)

	// Initialize Server
	handler := api.NewHandler(repo, cacheImpl, alerts, analyzer, tl, screener, cfg.Screen, cfg.Risk, Version)
	srv := api.NewServer(cfg.Server, handler)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("harrier is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("harrier shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ==============================================")
	fmt.Println("                  HARRIER")
	fmt.Println("       Merchant Risk Detection Engine")
	fmt.Println("  ==============================================")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /merchants/{id}/transactions - Ingest a transaction")
	fmt.Println("    GET  /merchants/{id}/risk         - Analyze merchant risk")
	fmt.Println("    GET  /merchants/{id}/timeline     - Merchant event timeline")
	fmt.Println("    GET  /merchants/{id}/summary      - Activity summary")
	fmt.Println("    GET  /health                      - Health check")
	fmt.Println("    GET  /ready                       - Readiness check")
	fmt.Println()
}
