package database

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const maxReadAttempts = 3

// IsTransient reports whether err looks like a connectivity failure worth
// retrying for an idempotent read. Writes are never auto-retried; their unique
// constraints make a replay safe to reject instead.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions.
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08"
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// RetryRead runs fn up to three times with exponential backoff, retrying only
// transient failures.
func RetryRead[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	backoff := 100 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxReadAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !IsTransient(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}
