// Package common defines shared constants and sentinel errors used across
// the drivesync client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Parse/shape errors. The correlated data needed to complete a metadata
	// commit is missing or malformed. These are never retried by the core:
	// the caller either re-issues the whole operation under a fresh
	// operation id or reports failure upward.
	ErrNoCachedResponse = errors.New("no cached response")
	ErrFieldMissing     = errors.New("field missing")
	ErrNoRevisionID     = errors.New("no revision id")
	ErrCannotCreateData = errors.New("cannot create data")

	// Store-transaction errors. The local-store write phase failed and was
	// rolled back; no partial state is left behind.
	ErrMetadataUpdateFailed = errors.New("metadata update failed")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
)
