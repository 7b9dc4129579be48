package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var errRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

// useMock routes Connect to a sqlmock pool that tracks pings.
func useMock(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	pool, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Errorf("unexpected driver %q", driverName)
		}
		return pool, nil
	}
	t.Cleanup(func() {
		openDB = prev
		pool.Close()
	})
	return mock
}

func quickPing(attempts int) Options {
	opts := DefaultMigrateOptions()
	opts.PingAttempts = attempts
	opts.PingBackoff = time.Millisecond
	return opts
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")
	t.Setenv("DB_PING_BACKOFF", "-2s")
	t.Setenv("DB_PING_ATTEMPTS", "nope")

	def := DefaultServerOptions()
	got := OptionsFromEnv(def)
	want := Options{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		ConnMaxIdleTime: 45 * time.Second,
		PingTimeout:     time.Second,
		PingAttempts:    def.PingAttempts,
		PingBackoff:     def.PingBackoff,
	}
	if got != want {
		t.Fatalf("OptionsFromEnv = %+v, want %+v", got, want)
	}
}

func TestDefaultsPerProcess(t *testing.T) {
	server, worker, migrate := DefaultServerOptions(), DefaultWorkerOptions(), DefaultMigrateOptions()
	if worker.MaxOpenConns >= server.MaxOpenConns || worker.PingTimeout != server.PingTimeout {
		t.Fatalf("worker pool should be smaller with the same handshake: %+v", worker)
	}
	if migrate.MaxOpenConns != 1 || migrate.PingAttempts <= server.PingAttempts {
		t.Fatalf("migrations use one connection and wait longer: %+v", migrate)
	}
}

func TestConnectWaitsForDatabase(t *testing.T) {
	mock := useMock(t)
	mock.ExpectPing().WillReturnError(errRefused)
	mock.ExpectPing().WillReturnError(errRefused)
	mock.ExpectPing()

	pool, err := Connect(context.Background(), "postgres://gezy@localhost/gezy", quickPing(3))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := pool.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d, want 1", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConnectGivesUp(t *testing.T) {
	mock := useMock(t)
	mock.ExpectPing().WillReturnError(errRefused)
	mock.ExpectPing().WillReturnError(errRefused)
	mock.ExpectClose()

	_, err := Connect(context.Background(), "postgres://gezy@localhost/gezy", quickPing(2))
	if !errors.Is(err, errRefused) {
		t.Fatalf("expected the last ping error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestConnectClampsIdleToOpen(t *testing.T) {
	mock := useMock(t)
	mock.ExpectPing()

	pool, err := Connect(context.Background(), "postgres://x", Options{MaxOpenConns: 2, MaxIdleConns: 9, PingAttempts: 1})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := pool.Stats().MaxOpenConnections; got != 2 {
		t.Fatalf("MaxOpenConnections = %d, want 2", got)
	}
}

func TestConnectInputErrors(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatal("expected error for a blank url")
	}

	prev := openDB
	t.Cleanup(func() { openDB = prev })
	boom := errors.New("unknown driver")
	openDB = func(string, string) (*sql.DB, error) { return nil, boom }
	if _, err := Connect(context.Background(), "postgres://x", DefaultWorkerOptions()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped open error, got %v", err)
	}
}

func TestWithTx(t *testing.T) {
	pool, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer pool.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cases").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	if err := WithTx(ctx, pool, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE cases SET status = $1", "Abgeschlossen")
		return err
	}); err != nil {
		t.Fatalf("commit path: %v", err)
	}

	boom := errors.New("version conflict")
	mock.ExpectBegin()
	mock.ExpectRollback()
	if err := WithTx(ctx, pool, func(*sql.Tx) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	mock.ExpectBegin().WillReturnError(errRefused)
	if err := WithTx(ctx, pool, func(*sql.Tx) error { return nil }); !errors.Is(err, errRefused) {
		t.Fatalf("expected begin error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
