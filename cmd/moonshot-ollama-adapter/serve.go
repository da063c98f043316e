package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"moonshot-ollama-adapter/internal/config"
	"moonshot-ollama-adapter/internal/gateway"
	"moonshot-ollama-adapter/internal/history"
	"moonshot-ollama-adapter/internal/httpserver"
	"moonshot-ollama-adapter/internal/invocation"
	"moonshot-ollama-adapter/internal/metrics"
	"moonshot-ollama-adapter/internal/promptlog"
	"moonshot-ollama-adapter/internal/router"
	"moonshot-ollama-adapter/internal/runtime"
)

func runServe(cfgPath string, logger *slog.Logger) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := promptlog.OpenRotatingFile(cfg.Log.Path, promptlog.RotateOptions{
		MaxBackups: cfg.Log.MaxBackups,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("open prompt log: %w", err)
	}
	defer logFile.Close()
	prompts := promptlog.New(logFile, cfg.Log.Format, cfg.Log.Level)

	var store history.Store = history.Nop{}
	if cfg.History.DBPath != "" {
		sqliteStore, err := history.OpenSQLite(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	client, err := runtime.NewOllamaClient(cfg.Runtime.BaseURL, cfg.Runtime.Timeout)
	if err != nil {
		return fmt.Errorf("build runtime client: %w", err)
	}

	routes, err := router.Routes(cfg.Variants)
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	m := metrics.New()
	runner := invocation.NewRunner(
		router.New(cfg.Models),
		client,
		prompts,
		logger,
		invocation.WithHistory(store),
		invocation.WithMetrics(m),
	)
	service := gateway.NewService(runner, store, m, logger)
	handler, err := httpserver.NewHandler(logger, service, routes, m)
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}
	server := httpserver.New(cfg.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("adapter starting",
			"listen", cfg.Listen,
			"runtime", client.Endpoint(),
			"prompt_log", cfg.Log.Path,
			"history", cfg.History.DBPath != "",
		)
		errCh <- server.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited unexpectedly: %w", err)
		}
		return nil
	}

	if err := server.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("adapter stopped")
	return nil
}
