package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sherlock-service/sherlock_service/internal/domain/services/shadow"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/config"
	"github.com/sherlock-service/sherlock_service/internal/infrastructure/queue"
	"github.com/sherlock-service/sherlock_service/pkg/logger"
)

// The shadow evaluator re-scores the champion's traffic against a candidate
// challenger model off the hot path and tracks how often the two disagree.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)

	if cfg.Queue.Disabled || cfg.Queue.URL == "" {
		log.Fatal("Shadow evaluator requires a queue, set SHADOW_QUEUE_URL")
	}

	q, err := queue.NewRabbitMQ(cfg.Queue, log)
	if err != nil {
		log.Fatal("Failed to connect to queue", "error", err)
	}
	defer q.Close()

	challenger := shadow.NewRandomChallenger(time.Now().UnixNano())
	evaluator := shadow.NewEvaluator(
		challenger,
		cfg.Shadow.ChallengerThreshold,
		time.Duration(cfg.Shadow.ChallengerLatencyMs)*time.Millisecond,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := q.Consume(ctx, evaluator.HandleMessage); err != nil {
			log.Fatal("Queue consumer stopped", "error", err)
		}
	}()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/report", func(c *gin.Context) {
		c.JSON(http.StatusOK, evaluator.Summary())
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Shadow.ReportPort),
		Handler: router,
	}

	go func() {
		log.Info("Shadow evaluator started", "queue", cfg.Queue.ShadowQueue, "report_port", cfg.Shadow.ReportPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start report server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down shadow evaluator...")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Report server forced to shutdown", "error", err)
	}

	summary := evaluator.Summary()
	log.Info("Final shadow report",
		"processed", summary.Processed,
		"conflicts", summary.Conflicts,
		"agreement_rate", summary.AgreementRate,
	)
}
