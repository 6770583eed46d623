// Package fileprovider drives the platform file-provider integration: domain
// registration and lifecycle, enumerator signaling, and the bounded-retry
// policy those calls share with other flaky system surfaces.
package fileprovider

import "context"

// Domain identifies one registered file-provider domain.
type Domain struct {
	ID          string
	DisplayName string
}

// Provider is the platform surface the retry-driven service wraps. Calls can
// fail transiently while the provider subsystem starts up or restarts.
type Provider interface {
	AddDomain(ctx context.Context, d Domain) error
	RemoveDomain(ctx context.Context, d Domain) error
	ReconnectDomain(ctx context.Context, d Domain) error
	DisconnectDomain(ctx context.Context, d Domain, reason string) error
	SignalEnumerator(ctx context.Context, d Domain) error
	GetUserVisibleURL(ctx context.Context, d Domain, itemID string) (string, error)
	ListDomains(ctx context.Context) ([]Domain, error)
}
