package store

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Connect backoff: exponential with ±25% jitter, capped.
var (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

const jitterFraction = 0.25

// withRetry calls fn up to attempts times while it fails with a transient
// error. Cancellation of ctx stops retrying immediately.
func withRetry[T any](ctx context.Context, attempts int, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts = max(attempts, 1)

	var zero T
	var lastErr error
	for attempt := range attempts {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isTransient(err) || attempt == attempts-1 {
			break
		}

		delay := backoff(attempt)
		zap.L().Warn("store: retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func backoff(attempt int) time.Duration {
	delay := math.Min(float64(initialBackoff)*math.Pow(2, float64(attempt)), float64(maxBackoff))
	delay += (rand.Float64()*2 - 1) * delay * jitterFraction
	return time.Duration(math.Max(delay, 0))
}

// isTransient reports whether err looks like an unreachable or overloaded
// database rather than a bad configuration.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 57P03 cannot_connect_now, 53300 too_many_connections
		return pgErr.Code == "57P03" || pgErr.Code == "53300"
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
