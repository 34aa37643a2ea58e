package postgres

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// IsRetryable reports whether err is a transient transaction conflict that
// is safe to retry from the top of the transaction.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
}

// Retry runs fn, retrying with exponential backoff on serialization and
// deadlock aborts. Any other error stops immediately.
func Retry(ctx context.Context, fn func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
