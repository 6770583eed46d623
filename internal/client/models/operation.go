// Package models defines client-side data models for the drivesync
// reconciliation core: operation identifiers, the canonical node record
// ("link") and the request/response payload shapes captured off the wire.
package models

import (
	"fmt"

	"github.com/google/uuid"
)

// OperationType distinguishes the remote flows whose raw request/response
// bodies are captured for later correlation.
type OperationType int

const (
	OperationTypeDownload OperationType = iota + 1
	OperationTypeFileUpload
	OperationTypeRevisionUpload

	// OperationTypeMetadataFetch tags plain metadata lookups (refresh passes).
	// Their responses are consumed directly, never via the capture cache.
	OperationTypeMetadataFetch
)

func (t OperationType) String() string {
	switch t {
	case OperationTypeDownload:
		return "download"
	case OperationTypeFileUpload:
		return "fileUpload"
	case OperationTypeRevisionUpload:
		return "revisionUpload"
	case OperationTypeMetadataFetch:
		return "metadataFetch"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// OperationID uniquely identifies one logical remote operation (file upload,
// revision upload, download). It is generated before the remote call, attached
// to every request belonging to the operation, and comes back attached to
// side-channel captures. Immutable; comparable by value, usable as a map key.
type OperationID struct {
	Type OperationType
	ID   string
}

// NewOperationID returns a fresh identifier for the given operation type.
func NewOperationID(t OperationType) OperationID {
	return OperationID{Type: t, ID: uuid.NewString()}
}

func (id OperationID) String() string {
	return fmt.Sprintf("%s/%s", id.Type, id.ID)
}
