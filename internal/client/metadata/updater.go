// Package metadata reconstructs canonical node records from the raw payloads
// captured during remote flows and commits them to the local store. One commit
// covers the node row, its active revision and the offline-availability
// inheritance flag, all inside a single transaction.
package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/drivesync/internal/client/correlator"
	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/client/repositories/nodes"
	"github.com/dmitrijs2005/drivesync/internal/common"
	"github.com/dmitrijs2005/drivesync/internal/dbx"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

// Freshly created files get fixed attribute/permission defaults; the
// authoritative values arrive with the next metadata fetch.
const (
	defaultFileAttributes  = 1
	defaultFilePermissions = 7
)

// Updater assembles and commits node records after uploads and downloads.
type Updater struct {
	db     *sql.DB
	cache  *correlator.Cache
	logger logging.Logger
	now    func() time.Time
}

func NewUpdater(db *sql.DB, cache *correlator.Cache, logger logging.Logger) *Updater {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Updater{db: db, cache: cache, logger: logger, now: time.Now}
}

// AfterFileUpload reconstructs the node record for a finished file upload and
// commits it. The create-file capture and the finalize-revision parameters are
// both required; which other captures are consulted depends on the classified
// conflict outcome. On success the operation's captures are forgotten.
func (u *Updater) AfterFileUpload(ctx context.Context, op models.OperationID, tmpl models.ItemTemplate) (*models.Link, error) {
	nf, ok := u.cache.NewFile(op)
	if !ok {
		return nil, fmt.Errorf("operation %s has no create-file capture: %w", op, common.ErrNoCachedResponse)
	}
	commit, ok := u.cache.Commit(op)
	if !ok {
		return nil, fmt.Errorf("operation %s has no finalize-revision capture: %w", op, common.ErrNoCachedResponse)
	}

	// The active revision is the one we just finalized: a freshly created
	// revision when the conflict flow made one, otherwise the revision id the
	// create-file exchange produced (the draft, or the conflicting draft).
	activeRevisionID := nf.File.RevisionID
	if nr, ok := u.cache.NewRevision(op); ok {
		activeRevisionID = nr.ID
	}

	now := u.now()
	var link *models.Link
	switch nf.Conflict {
	case correlator.ConflictNone:
		link = u.buildCreatedLink(nf, commit, tmpl, activeRevisionID, now)
	default:
		// Conflict paths cannot trust the request parameters: the remote
		// object already existed, so the fetched link metadata is the base
		// and only the revision-level fields are overlaid.
		linkMeta, ok := u.cache.Link(op)
		if !ok {
			return nil, fmt.Errorf("operation %s has no link capture for conflict %s: %w",
				op, nf.Conflict, common.ErrNoCachedResponse)
		}
		if linkMeta.FileProperties == nil {
			return nil, fmt.Errorf("link %s metadata has no file properties: %w",
				linkMeta.LinkID, common.ErrFieldMissing)
		}
		link = u.buildRebasedLink(linkMeta, commit, tmpl, activeRevisionID, now)
	}

	if err := u.store(ctx, link); err != nil {
		return nil, err
	}
	u.cache.Forget(op)
	u.logger.Debug(ctx, "committed node after file upload",
		"operationId", op.String(), "linkId", link.LinkID, "conflict", nf.Conflict.String())
	return link, nil
}

// AfterRevisionUpload commits the new active revision of an existing node.
func (u *Updater) AfterRevisionUpload(ctx context.Context, op models.OperationID, linkID string, tmpl models.ItemTemplate) (*models.Link, error) {
	commit, ok := u.cache.Commit(op)
	if !ok {
		return nil, fmt.Errorf("operation %s has no finalize-revision capture: %w", op, common.ErrNoCachedResponse)
	}
	nr, ok := u.cache.NewRevision(op)
	if !ok {
		return nil, fmt.Errorf("operation %s has no create-revision capture: %w", op, common.ErrNoCachedResponse)
	}

	repo := nodes.NewSQLiteRepository(u.db)
	link, err := repo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.FileProperties == nil {
		return nil, fmt.Errorf("node %s has no file properties: %w", linkID, common.ErrFieldMissing)
	}

	now := u.now()
	link.Size = tmpl.Size
	link.ModifyTime = tmpl.ModificationUnix(now)
	link.XAttr = commit.XAttr
	link.FileProperties.ActiveRevision = models.RevisionSummary{
		ID:                nr.ID,
		CreateTime:        now.Unix(),
		Size:              tmpl.Size,
		ManifestSignature: commit.ManifestSignature,
		SignatureAddress:  commit.SignatureAddress,
		State:             models.RevisionStateActive,
	}

	if err := u.store(ctx, link); err != nil {
		return nil, err
	}
	u.cache.Forget(op)
	u.logger.Debug(ctx, "committed node after revision upload",
		"operationId", op.String(), "linkId", linkID, "revisionId", nr.ID)
	return link, nil
}

// AfterDownload overlays the fetched revision metadata onto the stored node.
func (u *Updater) AfterDownload(ctx context.Context, op models.OperationID, linkID string) (*models.Link, error) {
	rev, ok := u.cache.Revision(op)
	if !ok {
		return nil, fmt.Errorf("operation %s has no revision capture: %w", op, common.ErrNoCachedResponse)
	}

	repo := nodes.NewSQLiteRepository(u.db)
	link, err := repo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.FileProperties == nil {
		return nil, fmt.Errorf("node %s has no file properties: %w", linkID, common.ErrFieldMissing)
	}

	link.Size = rev.Size
	if rev.XAttr != nil {
		link.XAttr = rev.XAttr
	}
	link.FileProperties.ActiveRevision = rev.Summary()

	if err := u.store(ctx, link); err != nil {
		return nil, err
	}
	u.cache.Forget(op)
	u.logger.Debug(ctx, "committed node after download",
		"operationId", op.String(), "linkId", linkID, "revisionId", rev.ID)
	return link, nil
}

// CommitLink stores authoritative remote metadata as-is. Used by the refresh
// pass after re-fetching a suspect node.
func (u *Updater) CommitLink(ctx context.Context, link *models.Link) error {
	return u.store(ctx, link)
}

// buildCreatedLink assembles the record for a cleanly created file: everything
// the caller sent in the create-file request, plus the revision fields from
// the finalize parameters and the caller-supplied size and timestamps.
func (u *Updater) buildCreatedLink(nf correlator.NewFileCapture, commit models.RevisionCommitParameters,
	tmpl models.ItemTemplate, activeRevisionID string, now time.Time) *models.Link {
	params := nf.Parameters
	return &models.Link{
		LinkID:                  nf.File.ID,
		ParentLinkID:            params.ParentLinkID,
		Type:                    models.LinkTypeFile,
		Name:                    params.Name,
		NameSignatureEmail:      params.SignatureAddress,
		Hash:                    params.Hash,
		State:                   models.LinkStateActive,
		Size:                    tmpl.Size,
		MIMEType:                params.MIMEType,
		Attributes:              defaultFileAttributes,
		Permissions:             defaultFilePermissions,
		NodeKey:                 params.NodeKey,
		NodePassphrase:          params.NodePassphrase,
		NodePassphraseSignature: params.NodePassphraseSignature,
		SignatureEmail:          params.SignatureAddress,
		CreateTime:              tmpl.CreationUnix(now),
		ModifyTime:              tmpl.ModificationUnix(now),
		XAttr:                   commit.XAttr,
		FileProperties: &models.FileProperties{
			ContentKeyPacket:          params.ContentKeyPacket,
			ContentKeyPacketSignature: params.ContentKeyPacketSignature,
			ActiveRevision: models.RevisionSummary{
				ID:                activeRevisionID,
				CreateTime:        now.Unix(),
				Size:              tmpl.Size,
				ManifestSignature: commit.ManifestSignature,
				SignatureAddress:  commit.SignatureAddress,
				State:             models.RevisionStateActive,
			},
		},
	}
}

// buildRebasedLink assembles the record for a conflicted upload: the fetched
// link metadata is authoritative for identity, key material and sharing state;
// only the size, timestamps, extended attributes and the active revision come
// from this upload.
func (u *Updater) buildRebasedLink(linkMeta models.Link, commit models.RevisionCommitParameters,
	tmpl models.ItemTemplate, activeRevisionID string, now time.Time) *models.Link {
	link := linkMeta
	link.State = models.LinkStateActive
	link.Size = tmpl.Size
	link.ModifyTime = tmpl.ModificationUnix(now)
	link.XAttr = commit.XAttr
	link.FileProperties = &models.FileProperties{
		ContentKeyPacket:          linkMeta.FileProperties.ContentKeyPacket,
		ContentKeyPacketSignature: linkMeta.FileProperties.ContentKeyPacketSignature,
		ActiveRevision: models.RevisionSummary{
			ID:                activeRevisionID,
			CreateTime:        now.Unix(),
			Size:              tmpl.Size,
			ManifestSignature: commit.ManifestSignature,
			SignatureAddress:  commit.SignatureAddress,
			State:             models.RevisionStateActive,
		},
	}
	return &link
}

// store commits the record in one transaction. The inheritance flag is a
// point-in-time copy of the parent's offline availability, read inside the
// same transaction.
func (u *Updater) store(ctx context.Context, link *models.Link) error {
	err := dbx.WithTx(ctx, u.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := nodes.NewSQLiteRepository(tx)
		parentOffline, err := repo.OfflineAvailable(ctx, link.ParentLinkID)
		if err != nil {
			return err
		}
		return repo.CreateOrUpdate(ctx, link, parentOffline)
	})
	if err != nil {
		return fmt.Errorf("node %s: %w: %v", link.LinkID, common.ErrMetadataUpdateFailed, err)
	}
	return nil
}
