package fileprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/drivesync/internal/logging"
)

func TestPerformWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	v, err := PerformWithRetry(context.Background(), "op", 6, time.Millisecond, logging.NewNopLogger(),
		func(ctx context.Context) (int, error) {
			calls++
			return 42, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestPerformWithRetry_ExhaustsBudgetOnTransientFailure(t *testing.T) {
	calls := 0
	_, err := PerformWithRetry(context.Background(), "op", 6, time.Millisecond, logging.NewNopLogger(),
		func(ctx context.Context) (int, error) {
			calls++
			return 0, ErrProviderTemporarilyUnavailable
		})
	require.Error(t, err)
	assert.Equal(t, 6, calls)

	var opErr *DomainOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "op", opErr.Op)
	assert.ErrorIs(t, err, ErrProviderTemporarilyUnavailable)
}

func TestPerformWithRetry_NonTransientFailsImmediately(t *testing.T) {
	terminal := errors.New("permission denied")
	calls := 0
	_, err := PerformWithRetry(context.Background(), "op", 6, time.Millisecond, logging.NewNopLogger(),
		func(ctx context.Context) (int, error) {
			calls++
			return 0, terminal
		})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, terminal)
}

func TestPerformWithRetry_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	v, err := PerformWithRetry(context.Background(), "op", 6, time.Millisecond, logging.NewNopLogger(),
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", ErrHostUnreachable
			}
			return "ok", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestPerformWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := PerformWithRetry(ctx, "op", 100, time.Minute, logging.NewNopLogger(),
			func(ctx context.Context) (int, error) {
				calls++
				return 0, ErrCannotConnect
			})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, 1, calls, "cancelled during the first backoff sleep")
	case <-time.After(5 * time.Second):
		t.Fatal("retry loop did not honor cancellation")
	}
}

func TestPerformWithRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := PerformWithRetry(context.Background(), "op", 0, time.Millisecond, logging.NewNopLogger(),
		func(ctx context.Context) (int, error) {
			calls++
			return 0, ErrCannotConnect
		})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
