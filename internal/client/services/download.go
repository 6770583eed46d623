package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/drivesync/internal/client/metadata"
	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/client/remote"
	"github.com/dmitrijs2005/drivesync/internal/cryptox"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

type DownloadService interface {
	// FinishDownload fetches the authoritative revision metadata of a
	// downloaded file and commits it to the local store.
	FinishDownload(ctx context.Context, linkID, revisionID string) (*models.Link, error)

	// DecryptXAttr opens a node's packed extended-attribute blob.
	DecryptXAttr(packed string, nodeKey []byte) (*models.ExtendedAttributes, error)
}

type downloadService struct {
	box     *remote.Box
	updater *metadata.Updater
	logger  logging.Logger
}

func NewDownloadService(box *remote.Box, updater *metadata.Updater, logger logging.Logger) DownloadService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &downloadService{box: box, updater: updater, logger: logger}
}

func (s *downloadService) FinishDownload(ctx context.Context, linkID, revisionID string) (*models.Link, error) {
	client, err := s.box.Get()
	if err != nil {
		return nil, err
	}
	op := models.NewOperationID(models.OperationTypeDownload)

	if _, err := client.GetRevision(ctx, op, linkID, revisionID); err != nil {
		return nil, fmt.Errorf("failed to fetch revision %s of link %s: %w", revisionID, linkID, err)
	}
	return s.updater.AfterDownload(ctx, op, linkID)
}

func (s *downloadService) DecryptXAttr(packed string, nodeKey []byte) (*models.ExtendedAttributes, error) {
	plaintext, err := cryptox.DecryptPacked(packed, nodeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt extended attributes: %w", err)
	}
	var xattr models.ExtendedAttributes
	if err := json.Unmarshal(plaintext, &xattr); err != nil {
		return nil, fmt.Errorf("failed to parse extended attributes: %w", err)
	}
	return &xattr, nil
}
