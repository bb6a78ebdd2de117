package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sherlock-service/sherlock_service/internal/api/routes"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/config"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/di"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
	"github.com/sherlock-service/sherlock_service/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()

	// Initialize tracing
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "sherlock-service",
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	// Build dependency injection container
	container, err := di.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create DI container", "error", err)
	}

	// Warm the model backend so the first transaction does not pay the
	// artifact download. A failure here is fine, the scorer retries lazily.
	warmCtx, cancelWarm := context.WithTimeout(ctx, 30*time.Second)
	container.Scorer.EnsureReady(warmCtx)
	cancelWarm()

	// Initialize router with DI container
	router := routes.SetupRoutes(container)

	// Create server
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		log.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", "error", err)
	}

	if err := container.Close(shutdownCtx); err != nil {
		log.Warn("Error closing container", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("Error flushing traces", "error", err)
	}

	log.Info("Server exited")
}
