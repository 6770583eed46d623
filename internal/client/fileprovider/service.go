package fileprovider

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/drivesync/internal/logging"
)

// Per-operation retry budgets. Registration and lookups get generous budgets
// because they race provider startup; removal is short since the caller
// usually retries the whole teardown anyway.
const (
	attemptsAddDomain        = 6
	attemptsRemoveDomain     = 3
	attemptsReconnectDomain  = 6
	attemptsDisconnectDomain = 6
	attemptsSignalEnumerator = 6
	attemptsListDomains      = 12
	attemptsUserVisibleURL   = 5

	defaultRetryInterval        = 5 * time.Second
	userVisibleURLRetryInterval = 2 * time.Second
)

// DomainOperations wraps a Provider with the per-operation retry policy.
type DomainOperations struct {
	provider Provider
	interval time.Duration
	logger   logging.Logger
}

func NewDomainOperations(provider Provider, logger logging.Logger) *DomainOperations {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DomainOperations{provider: provider, interval: defaultRetryInterval, logger: logger}
}

// WithInterval overrides the constant retry interval. Used in tests.
func (s *DomainOperations) WithInterval(d time.Duration) *DomainOperations {
	s.interval = d
	return s
}

// AddDomain registers the domain. An already-registered domain is success.
func (s *DomainOperations) AddDomain(ctx context.Context, d Domain) error {
	_, err := PerformWithRetry(ctx, "addDomain", attemptsAddDomain, s.interval, s.logger,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.provider.AddDomain(ctx, d)
		})
	if err != nil && errors.Is(err, ErrDomainExists) {
		s.logger.Debug(ctx, "domain already registered", "domain", d.ID)
		return nil
	}
	return err
}

func (s *DomainOperations) RemoveDomain(ctx context.Context, d Domain) error {
	_, err := PerformWithRetry(ctx, "removeDomain", attemptsRemoveDomain, s.interval, s.logger,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.provider.RemoveDomain(ctx, d)
		})
	return err
}

func (s *DomainOperations) ReconnectDomain(ctx context.Context, d Domain) error {
	_, err := PerformWithRetry(ctx, "reconnectDomain", attemptsReconnectDomain, s.interval, s.logger,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.provider.ReconnectDomain(ctx, d)
		})
	return err
}

func (s *DomainOperations) DisconnectDomain(ctx context.Context, d Domain, reason string) error {
	_, err := PerformWithRetry(ctx, "disconnectDomain", attemptsDisconnectDomain, s.interval, s.logger,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.provider.DisconnectDomain(ctx, d, reason)
		})
	return err
}

func (s *DomainOperations) SignalEnumerator(ctx context.Context, d Domain) error {
	_, err := PerformWithRetry(ctx, "signalEnumerator", attemptsSignalEnumerator, s.interval, s.logger,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.provider.SignalEnumerator(ctx, d)
		})
	return err
}

func (s *DomainOperations) GetUserVisibleURL(ctx context.Context, d Domain, itemID string) (string, error) {
	return PerformWithRetry(ctx, "userVisibleURL", attemptsUserVisibleURL, userVisibleURLRetryInterval, s.logger,
		func(ctx context.Context) (string, error) {
			return s.provider.GetUserVisibleURL(ctx, d, itemID)
		})
}

func (s *DomainOperations) ListDomains(ctx context.Context) ([]Domain, error) {
	return PerformWithRetry(ctx, "listDomains", attemptsListDomains, s.interval, s.logger,
		func(ctx context.Context) ([]Domain, error) {
			return s.provider.ListDomains(ctx)
		})
}

// DisconnectAll disconnects every registered domain with the given reason.
// Individual failures do not stop the sweep; the first error is returned.
func (s *DomainOperations) DisconnectAll(ctx context.Context, reason string) error {
	domains, err := s.ListDomains(ctx)
	if err != nil {
		return err
	}
	var firstErr error
	for _, d := range domains {
		if err := s.DisconnectDomain(ctx, d, reason); err != nil {
			s.logger.Warn(ctx, "failed to disconnect domain", "domain", d.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
