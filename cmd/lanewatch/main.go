// LaneWatch - Delivery analytics and route risk scoring.
// Copyright (c) 2026 NexGen Logistics
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nexgen-logistics/lanewatch/internal/api"
	"github.com/nexgen-logistics/lanewatch/internal/cache"
	"github.com/nexgen-logistics/lanewatch/internal/domain"
	"github.com/nexgen-logistics/lanewatch/internal/pipeline"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment variables")
	}

	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("LANEWATCH_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting lanewatch",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg := loadConfig()

	slog.Info("configuration loaded",
		"data_dir", cfg.DataDir,
		"cache", cfg.Cache.Type,
		"model_seed", cfg.Model.Seed,
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

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Load the dataset and prepare the merged record set. An empty orders
	// table is the only fatal input condition.
	runner, err := pipeline.NewRunner(
		cfg.DataDir,
		cfg.Model,
		cacheImpl,
		time.Duration(cfg.Cache.LocalTTL)*time.Second,
		logger,
	)
	if err != nil {
		slog.Error("failed to load dataset", "data_dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	slog.Info("pipeline initialized", "records", runner.RecordCount())

	// Initialize Server
	srv := api.NewServer(cfg.Server, runner, cacheImpl, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("lanewatch is ready",
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

	slog.Info("lanewatch shutdown complete")
}

// loadConfig applies environment overrides on top of the defaults.
func loadConfig() *domain.Config {
	cfg := domain.DefaultConfig()

	cfg.Server.Host = getEnv("LANEWATCH_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("LANEWATCH_PORT", cfg.Server.Port)
	cfg.DataDir = getEnv("LANEWATCH_DATA_DIR", cfg.DataDir)

	cfg.Cache.Type = getEnv("LANEWATCH_CACHE", cfg.Cache.Type)
	cfg.Cache.LocalMaxSize = getEnvInt("LANEWATCH_CACHE_SIZE", cfg.Cache.LocalMaxSize)
	cfg.Cache.LocalTTL = getEnvInt("LANEWATCH_CACHE_TTL", cfg.Cache.LocalTTL)
	cfg.Cache.RedisAddr = getEnv("LANEWATCH_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = getEnv("LANEWATCH_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = getEnvInt("LANEWATCH_REDIS_DB", cfg.Cache.RedisDB)

	if v := os.Getenv("LANEWATCH_MODEL_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Model.Seed = seed
		}
	}
	if v := os.Getenv("LANEWATCH_TEST_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f < 1 {
			cfg.Model.TestFraction = f
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  LaneWatch - eyes on every lane.")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Data:     %s\n", cfg.DataDir)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /summary              - KPI summary over a filtered view")
	fmt.Println("    GET  /orders               - Enriched order records")
	fmt.Println("    GET  /routes/risk          - Route risk scores")
	fmt.Println("    GET  /routes/efficiency    - Distance per liter by route leg")
	fmt.Println("    GET  /recommendations      - Vehicle substitutions for risky routes")
	fmt.Println("    GET  /models/cost          - Cost model fit summary")
	fmt.Println("    GET  /models/delay         - Delay model fit summary")
	fmt.Println("    POST /models/cost/predict  - Predict delivery cost")
	fmt.Println("    POST /models/delay/predict - Predict delivery delay")
	fmt.Println("    GET  /emissions            - CO2 estimates")
	fmt.Println("    GET  /anomalies            - Cost-per-km outliers")
	fmt.Println("    GET  /fleet                - Fleet status breakdown")
	fmt.Println("    GET  /warehouse            - Warehouse stock summary")
	fmt.Println("    POST /reload               - Re-ingest the data directory")
	fmt.Println("    GET  /health               - Health check")
	fmt.Println()
}
