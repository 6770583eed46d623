// Package services holds the flow-level orchestration: driving the remote
// calls of an upload or download end to end and handing the finished
// operation to the metadata commit engine.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/drivesync/internal/client/metadata"
	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/client/remote"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

type UploadService interface {
	// UploadFile runs the create/conflict/commit flow for a new file and
	// returns the committed node record.
	UploadFile(ctx context.Context, params models.NewFileParameters,
		commit models.RevisionCommitParameters, tmpl models.ItemTemplate) (*models.Link, error)

	// UploadRevision uploads a new revision of an existing file.
	UploadRevision(ctx context.Context, linkID string,
		commit models.RevisionCommitParameters, tmpl models.ItemTemplate) (*models.Link, error)
}

type uploadService struct {
	box     *remote.Box
	updater *metadata.Updater
	logger  logging.Logger
}

func NewUploadService(box *remote.Box, updater *metadata.Updater, logger logging.Logger) UploadService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &uploadService{box: box, updater: updater, logger: logger}
}

func (s *uploadService) UploadFile(ctx context.Context, params models.NewFileParameters,
	commit models.RevisionCommitParameters, tmpl models.ItemTemplate) (*models.Link, error) {

	client, err := s.box.Get()
	if err != nil {
		return nil, err
	}
	op := models.NewOperationID(models.OperationTypeFileUpload)

	linkID := ""
	revisionID := ""
	nf, err := client.CreateFile(ctx, op, params)
	var conflict *remote.ConflictError
	switch {
	case err == nil:
		linkID = nf.ID
		revisionID = nf.RevisionID
	case errors.As(err, &conflict):
		// The object exists remotely. Fetch its authoritative metadata for
		// the later rebase, then either reuse the unfinished draft or open a
		// fresh revision.
		linkID = conflict.LinkID
		if _, err := client.GetLink(ctx, op, linkID); err != nil {
			return nil, fmt.Errorf("failed to fetch conflicting link %s: %w", linkID, err)
		}
		revisionID, err = s.resolveConflictRevision(ctx, client, op, conflict)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := client.CommitRevision(ctx, op, linkID, revisionID, commit); err != nil {
		return nil, err
	}
	return s.updater.AfterFileUpload(ctx, op, tmpl)
}

// resolveConflictRevision picks the revision the upload finalizes on a
// conflicted create: an existing draft is reused in place, while an already
// finalized file gets a fresh revision.
func (s *uploadService) resolveConflictRevision(ctx context.Context, client remote.Client,
	op models.OperationID, conflict *remote.ConflictError) (string, error) {

	if conflict.DraftRevisionID != nil && *conflict.DraftRevisionID != "" {
		s.logger.Debug(ctx, "reusing existing draft revision",
			"operationId", op.String(), "linkId", conflict.LinkID, "revisionId", *conflict.DraftRevisionID)
		return *conflict.DraftRevisionID, nil
	}

	nr, err := client.CreateRevision(ctx, op, conflict.LinkID)
	if err == nil {
		return nr.ID, nil
	}
	// creating the revision can itself race a draft left by another client
	var revConflict *remote.ConflictError
	if errors.As(err, &revConflict) && revConflict.DraftRevisionID != nil && *revConflict.DraftRevisionID != "" {
		return *revConflict.DraftRevisionID, nil
	}
	return "", fmt.Errorf("failed to create revision on link %s: %w", conflict.LinkID, err)
}

func (s *uploadService) UploadRevision(ctx context.Context, linkID string,
	commit models.RevisionCommitParameters, tmpl models.ItemTemplate) (*models.Link, error) {

	client, err := s.box.Get()
	if err != nil {
		return nil, err
	}
	op := models.NewOperationID(models.OperationTypeRevisionUpload)

	revisionID := ""
	nr, err := client.CreateRevision(ctx, op, linkID)
	var conflict *remote.ConflictError
	switch {
	case err == nil:
		revisionID = nr.ID
	case errors.As(err, &conflict) && conflict.DraftRevisionID != nil && *conflict.DraftRevisionID != "":
		revisionID = *conflict.DraftRevisionID
	default:
		return nil, err
	}

	if err := client.CommitRevision(ctx, op, linkID, revisionID, commit); err != nil {
		return nil, err
	}
	return s.updater.AfterRevisionUpload(ctx, op, linkID, tmpl)
}
