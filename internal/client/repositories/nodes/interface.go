package nodes

import (
	"context"

	"github.com/dmitrijs2005/drivesync/internal/client/models"
)

// Repository describes the node/revision store operations of the metadata
// cache. Implementations are backed by the local SQLite database and run on
// whatever dbx.DBTX they are bound to, so a caller can scope a group of
// mutations to one transaction.
type Repository interface {
	// CreateOrUpdate upserts the node described by the canonical record,
	// appends its active revision to the revision collection, repoints the
	// active-revision pointer and clears the node's dirty marker. The
	// offline-availability inheritance flag is a point-in-time copy of the
	// parent's state supplied by the caller.
	CreateOrUpdate(ctx context.Context, link *models.Link, inheritsOfflineAvailable bool) error

	// GetByID reconstructs the canonical record for a node, or
	// common.ErrNotFound.
	GetByID(ctx context.Context, linkID string) (*models.Link, error)

	// OfflineAvailable reports whether the node is offline-available, either
	// marked directly or by inheritance. Unknown nodes report false.
	OfflineAvailable(ctx context.Context, linkID string) (bool, error)

	// InheritsOfflineAvailable reports the stored inheritance flag for a
	// node. Unknown nodes report false.
	InheritsOfflineAvailable(ctx context.Context, linkID string) (bool, error)

	// GetDirtyIDs lists the ids of nodes whose remote state is not trusted.
	GetDirtyIDs(ctx context.Context) ([]string, error)

	// CountDirty counts nodes whose remote state is not trusted.
	CountDirty(ctx context.Context) (int, error)

	// MarkDirty flags the given nodes as not trusted.
	MarkDirty(ctx context.Context, linkIDs []string) error

	// MarkAllDirty flags every cached node as not trusted (forced resync).
	MarkAllDirty(ctx context.Context) error
}
