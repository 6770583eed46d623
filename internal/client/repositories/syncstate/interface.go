package syncstate

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyRefreshInterrupted = "refresh_interrupted"
	KeyLastRefreshTime    = "last_refresh_time"
)

// Repository is a small key/value store for sync bookkeeping that must
// survive restarts (interrupted-refresh flag, last refresh timestamp).
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// RefreshInterrupted reports whether a refresh pass started and did not
	// finish cleanly.
	RefreshInterrupted(ctx context.Context) (bool, error)
	SetRefreshInterrupted(ctx context.Context, interrupted bool) error

	// LastRefreshTime returns the completion time of the last successful
	// refresh pass, or the zero time if none completed yet.
	LastRefreshTime(ctx context.Context) (time.Time, error)
	SetLastRefreshTime(ctx context.Context, t time.Time) error
}
