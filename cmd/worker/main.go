package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gezy-backend/internal/bootstrap"
	"gezy-backend/internal/shared/config"
	"gezy-backend/internal/shared/storage/db"
	"gezy-backend/internal/shared/telemetry"
	"gezy-backend/internal/shared/tracing"
	"gezy-backend/internal/workerproc"
)

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel)
	defer telemetry.Sync()

	if strings.TrimSpace(cfg.ReviewQueueURL) == "" {
		log.Fatal("REVIEW_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.FromConfig(cfg, "gezy-worker"))
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			telemetry.Warn("tracing.flush_failed", map[string]any{"error": err})
		}
	}()

	app, err := bootstrap.Build(cfg, bootstrap.WithDBOptions(db.DefaultWorkerOptions()), bootstrap.WithoutMigrations())
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()
	if app.ReviewQueue == nil {
		log.Fatal("review queue not configured")
	}

	poller := &workerproc.Poller{
		SQS:             app.ReviewQueue.SQS(),
		QueueURL:        app.ReviewQueue.QueueURL(),
		Processor:       app.CaseworkService,
		Concurrency:     envInt("WORKER_CONCURRENCY", 4),
		Visibility:      envSeconds("WORKER_VISIBILITY_TIMEOUT_SECONDS", 300),
		ShutdownTimeout: envSeconds("WORKER_SHUTDOWN_TIMEOUT_SECONDS", 30),
	}
	if err := poller.Run(ctx); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		telemetry.Warn("worker.env_invalid", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}
