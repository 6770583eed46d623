// Package remote implements the wire client for the drive API. Every request
// is tagged with its operation id, and raw request/response bodies are handed
// to a capture hook before any decoding, so the correlation layer always sees
// exactly what went over the wire.
package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/drivesync/internal/client/models"
)

// ConflictError is returned when the server rejects a create call because the
// object already exists. The ids identify the existing object and, when
// present, its finalized or draft revision.
type ConflictError struct {
	LinkID          string
	RevisionID      *string
	DraftRevisionID *string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("remote conflict on link %s", e.LinkID)
}

// Client is the remote drive API surface used by the upload, download and
// refresh flows.
type Client interface {
	// CreateFile creates a file node with a draft revision.
	CreateFile(ctx context.Context, op models.OperationID, params models.NewFileParameters) (models.NewFile, error)

	// CreateRevision opens a new draft revision on an existing file.
	CreateRevision(ctx context.Context, op models.OperationID, linkID string) (models.NewRevision, error)

	// CommitRevision finalizes a draft revision, making it active.
	CommitRevision(ctx context.Context, op models.OperationID, linkID, revisionID string, params models.RevisionCommitParameters) error

	// GetLink fetches the authoritative metadata of one node.
	GetLink(ctx context.Context, op models.OperationID, linkID string) (models.Link, error)

	// GetRevision fetches full revision metadata.
	GetRevision(ctx context.Context, op models.OperationID, linkID, revisionID string) (models.Revision, error)

	Close() error
}
