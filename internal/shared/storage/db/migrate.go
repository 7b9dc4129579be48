package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"gezy-backend/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// goose keeps its dialect, filesystem and logger in package globals.
var gooseMu sync.Mutex

// gooseLogger forwards goose output to the structured log.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if msg == "" {
		return
	}
	telemetry.Info("db.migrate", map[string]any{"detail": msg})
}

func (gooseLogger) Fatalf(format string, v ...any) {
	telemetry.Error("db.migrate.fatal", map[string]any{"detail": fmt.Sprintf(format, v...)})
}

func withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn()
}

// RunMigrations applies the embedded migrations. A nil pool means the
// process runs on memory repositories and there is nothing to migrate.
func RunMigrations(ctx context.Context, pool *sql.DB) error {
	if pool == nil {
		return nil
	}
	return withGoose(func() error {
		if err := goose.UpContext(ctx, pool, migrationsDir); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		version, err := goose.GetDBVersionContext(ctx, pool)
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		telemetry.Info("db.migrated", map[string]any{"version": version})
		return nil
	})
}

// MigrationStatus logs the applied state of every embedded migration.
func MigrationStatus(ctx context.Context, pool *sql.DB) error {
	if pool == nil {
		return fmt.Errorf("migration status needs a database")
	}
	return withGoose(func() error {
		return goose.StatusContext(ctx, pool, migrationsDir)
	})
}
