package main

import (
	"testing"
	"time"
)

func TestEnvIntFallsBack(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "8")
	if got := envInt("WORKER_CONCURRENCY", 4); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	t.Setenv("WORKER_CONCURRENCY", "-1")
	if got := envInt("WORKER_CONCURRENCY", 4); got != 4 {
		t.Fatalf("negative values fall back, got %d", got)
	}
	t.Setenv("WORKER_CONCURRENCY", "many")
	if got := envInt("WORKER_CONCURRENCY", 4); got != 4 {
		t.Fatalf("garbage falls back, got %d", got)
	}
}

func TestEnvSeconds(t *testing.T) {
	t.Setenv("WORKER_SHUTDOWN_TIMEOUT_SECONDS", "")
	if got := envSeconds("WORKER_SHUTDOWN_TIMEOUT_SECONDS", 30); got != 30*time.Second {
		t.Fatalf("expected default 30s, got %s", got)
	}
}
