package fileprovider

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/drivesync/internal/logging"
)

// PerformWithRetry runs fn up to maxAttempts times with a constant interval
// between attempts. Only transient error classes are retried; anything else
// is terminal immediately. The terminal error is wrapped with the operation
// name. A success after at least one retry is logged with the attempt count.
func PerformWithRetry[T any](ctx context.Context, op string, maxAttempts int, interval time.Duration,
	logger logging.Logger, fn func(ctx context.Context) (T, error)) (T, error) {

	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	var result T
	attempts := 0
	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewConstant(interval))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		v, err := fn(ctx)
		if err != nil {
			if IsTransient(err) {
				logger.Debug(ctx, "transient failure, will retry",
					"operation", op, "attempt", attempts, "maxAttempts", maxAttempts, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, &DomainOperationError{Op: op, Err: err}
	}

	if attempts > 1 {
		logger.Info(ctx, "operation succeeded after retry", "operation", op, "attempts", attempts)
	}
	return result, nil
}
