// Command migrate applies the embedded schema migrations.
//
//	migrate          apply pending migrations
//	migrate status   print the applied state
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gezy-backend/internal/shared/config"
	"gezy-backend/internal/shared/storage/db"
	"gezy-backend/internal/shared/telemetry"
)

const migrateTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel)
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	if err := run(ctx, cfg.DatabaseURL, os.Args[1:]); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		telemetry.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, args []string) error {
	action, err := parseAction(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(databaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	pool, err := db.Connect(ctx, databaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return err
	}
	defer pool.Close()

	if action == "status" {
		return db.MigrationStatus(ctx, pool)
	}
	return db.RunMigrations(ctx, pool)
}

func parseAction(args []string) (string, error) {
	switch {
	case len(args) == 0:
		return "up", nil
	case len(args) > 1:
		return "", fmt.Errorf("expected at most one argument, got %d", len(args))
	}
	switch action := strings.ToLower(strings.TrimSpace(args[0])); action {
	case "up", "status":
		return action, nil
	default:
		return "", fmt.Errorf("unknown action %q (want up or status)", args[0])
	}
}
