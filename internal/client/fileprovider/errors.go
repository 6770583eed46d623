package fileprovider

import (
	"errors"
	"fmt"
)

// Transient error classes. Operations failing with one of these are retried.
var (
	// ErrProviderTemporarilyUnavailable: the provider subsystem is starting
	// up or restarting.
	ErrProviderTemporarilyUnavailable = errors.New("provider temporarily unavailable")

	// ErrProviderNotFound: the provider is not registered yet.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrDomainDisabled: the domain exists but is currently disabled.
	ErrDomainDisabled = errors.New("domain disabled")

	// ErrHostUnreachable: the provider host process is not reachable.
	ErrHostUnreachable = errors.New("host unreachable")

	// ErrCannotConnect: a connection-level failure talking to the provider
	// or the remote endpoint.
	ErrCannotConnect = errors.New("cannot connect")
)

// ErrDomainExists: the domain is already registered. AddDomain treats this as
// success.
var ErrDomainExists = errors.New("domain already exists")

// DomainOperationError wraps the terminal error of a domain operation with
// the operation name.
type DomainOperationError struct {
	Op  string
	Err error
}

func (e *DomainOperationError) Error() string {
	return fmt.Sprintf("domain operation %s: %v", e.Op, e.Err)
}

func (e *DomainOperationError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err belongs to one of the retryable classes.
func IsTransient(err error) bool {
	return errors.Is(err, ErrProviderTemporarilyUnavailable) ||
		errors.Is(err, ErrProviderNotFound) ||
		errors.Is(err, ErrDomainDisabled) ||
		errors.Is(err, ErrHostUnreachable) ||
		errors.Is(err, ErrCannotConnect)
}
