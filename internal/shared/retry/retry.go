package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gezy-backend/internal/shared/telemetry"
)

const (
	defaultBaseDelay = 300 * time.Millisecond
	defaultMaxDelay  = 5 * time.Second
)

// Policy bounds a retried operation. Zero values pick conservative defaults.
type Policy struct {
	Name           string
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
	Retryable      func(error) bool
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying regardless of its shape.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn until it succeeds, returns a non-transient error, or the attempts
// are exhausted. Each attempt gets its own deadline when AttemptTimeout is set.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := runAttempt(ctx, p.AttemptTimeout, fn)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var perm permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		if attempt == attempts || !retryable(err) || ctx.Err() != nil {
			break
		}

		telemetry.Warn("retry.attempt_failed", map[string]any{
			"operation": p.Name,
			"attempt":   attempt,
			"delay_ms":  delay.Milliseconds(),
			"error":     err,
		})
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return zero, lastErr
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// IsTransient reports whether err looks like a timeout, throttling, or a
// server-side failure of a remote provider.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") ||
		strings.Contains(msg, "server_error") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "overloaded") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.HasSuffix(msg, "eof") {
		return true
	}
	return false
}
