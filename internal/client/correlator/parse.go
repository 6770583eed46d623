package correlator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/common"
)

// RequestResponseBody is one raw request/response pair delivered by the wire
// layer's capture side channel.
type RequestResponseBody struct {
	OperationID  models.OperationID
	Method       string
	URL          string
	RequestBody  []byte
	ResponseBody []byte
}

// AnomalyReporter receives parse anomalies that indicate a server contract
// change (a conflict body carrying no usable revision id). The application
// layer wires this to telemetry.
type AnomalyReporter interface {
	ReportParseAnomaly(ctx context.Context, op models.OperationID, err error)
}

// WithAnomalyReporter attaches a telemetry reporter to the cache.
func (c *Cache) WithAnomalyReporter(r AnomalyReporter) *Cache {
	c.reporter = r
	return c
}

// Response envelopes. The server reuses one endpoint family for several
// distinct outcomes distinguishable only by response shape, so parsing is a
// sequential try/parse with the fixed precedence below.
type newFileResponse struct {
	File models.NewFile `json:"File"`
}

type linkResponse struct {
	Link models.Link `json:"Link"`
}

type revisionResponse struct {
	Revision models.Revision `json:"Revision"`
}

type newRevisionResponse struct {
	Revision models.NewRevision `json:"Revision"`
}

type conflictResponse struct {
	Details conflictDetails `json:"Details"`
}

type conflictDetails struct {
	ConflictLinkID          string  `json:"ConflictLinkID"`
	ConflictRevisionID      *string `json:"ConflictRevisionID"`
	ConflictDraftRevisionID *string `json:"ConflictDraftRevisionID"`
}

// errShapeMismatch signals "this capture is not that endpoint; try the next
// parser". It never escapes CaptureResponseBody.
var errShapeMismatch = errors.New("response shape mismatch")

// ClassifyNewFileResponse interprets a create-file response body. It returns
// the (possibly conflict-derived) file identity and the conflict outcome:
//
//   - a success payload (object id + revision id) classifies as ConflictNone;
//   - a conflict body with a draft revision id classifies as
//     ConflictDraftAlreadyExists (the draft is reused in place);
//   - a conflict body with only a revision id classifies as
//     ConflictFileAlreadyCreated (a fresh revision must be appended);
//   - a conflict body with neither id is common.ErrNoRevisionID, fatal for
//     the operation (a server contract change, never retried);
//   - anything else fails with a shape mismatch.
func ClassifyNewFileResponse(responseBody []byte) (models.NewFile, Conflict, error) {
	if len(responseBody) == 0 {
		return models.NewFile{}, ConflictNone, fmt.Errorf("empty create-file response: %w", common.ErrCannotCreateData)
	}

	var success newFileResponse
	if err := json.Unmarshal(responseBody, &success); err == nil &&
		success.File.ID != "" && success.File.RevisionID != "" {
		return success.File, ConflictNone, nil
	}

	var conflict conflictResponse
	if err := json.Unmarshal(responseBody, &conflict); err != nil || conflict.Details.ConflictLinkID == "" {
		return models.NewFile{}, ConflictNone, fmt.Errorf("create-file: %w", errShapeMismatch)
	}

	details := conflict.Details
	switch {
	case details.ConflictDraftRevisionID != nil && *details.ConflictDraftRevisionID != "":
		return models.NewFile{ID: details.ConflictLinkID, RevisionID: *details.ConflictDraftRevisionID},
			ConflictDraftAlreadyExists, nil
	case details.ConflictRevisionID != nil && *details.ConflictRevisionID != "":
		return models.NewFile{ID: details.ConflictLinkID, RevisionID: *details.ConflictRevisionID},
			ConflictFileAlreadyCreated, nil
	default:
		return models.NewFile{}, ConflictNone,
			fmt.Errorf("conflict body for link %s carries no revision id: %w", details.ConflictLinkID, common.ErrNoRevisionID)
	}
}

// CaptureResponseBody classifies one raw capture by operation type and stores
// the parsed payload in the matching map. Unrecognized shapes are logged and
// discarded, not fatal: the capture may belong to an endpoint irrelevant to
// this flow. A malformed conflict body (common.ErrNoRevisionID) is the one
// exception: it is reported as a contract anomaly and returned to the caller.
func (c *Cache) CaptureResponseBody(ctx context.Context, rr RequestResponseBody) error {
	var err error
	switch rr.OperationID.Type {
	case models.OperationTypeDownload:
		err = c.parseDownload(rr)
	case models.OperationTypeFileUpload:
		err = c.parseFileUpload(rr)
	case models.OperationTypeRevisionUpload:
		err = c.parseRevisionUpload(rr)
	default:
		return nil
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrNoRevisionID) {
		c.logger.Error(ctx, "capture carries malformed conflict body",
			"operationId", rr.OperationID.String(), "method", rr.Method, "url", rr.URL, "error", err)
		if c.reporter != nil {
			c.reporter.ReportParseAnomaly(ctx, rr.OperationID, err)
		}
		return err
	}
	c.logger.Warn(ctx, "discarding unrecognized response body",
		"operationId", rr.OperationID.String(), "method", rr.Method, "url", rr.URL, "error", err)
	return nil
}

// parseDownload handles the fetch-revision exchange: no meaningful request
// body, full revision metadata in the response.
func (c *Cache) parseDownload(rr RequestResponseBody) error {
	var resp revisionResponse
	if err := json.Unmarshal(rr.ResponseBody, &resp); err != nil {
		return fmt.Errorf("download: %w", common.ErrCannotCreateData)
	}
	if resp.Revision.ID == "" {
		return fmt.Errorf("download: %w", errShapeMismatch)
	}
	c.putRevision(rr.OperationID, resp.Revision)
	return nil
}

// parseFileUpload tries, in order: create-file exchange, finalize-revision
// parameter echo, fetched link metadata, created revision. First match wins.
func (c *Cache) parseFileUpload(rr RequestResponseBody) error {
	err := c.parseNewFile(rr)
	if err == nil || errors.Is(err, common.ErrNoRevisionID) {
		return err
	}
	if c.parseCommitParameters(rr) == nil {
		return nil
	}
	if c.parseLink(rr) == nil {
		return nil
	}
	return c.parseNewRevision(rr)
}

// parseRevisionUpload tries: created revision, then finalize parameter echo.
func (c *Cache) parseRevisionUpload(rr RequestResponseBody) error {
	err := c.parseNewRevision(rr)
	if err == nil || errors.Is(err, common.ErrNoRevisionID) {
		return err
	}
	return c.parseCommitParameters(rr)
}

func (c *Cache) parseNewFile(rr RequestResponseBody) error {
	var params models.NewFileParameters
	if err := json.Unmarshal(rr.RequestBody, &params); err != nil {
		return fmt.Errorf("create-file request: %w", common.ErrCannotCreateData)
	}
	// The create-file request is the only one carrying a name and node key.
	if params.Name == "" || params.NodeKey == "" {
		return fmt.Errorf("create-file request: %w", errShapeMismatch)
	}

	file, conflict, err := ClassifyNewFileResponse(rr.ResponseBody)
	if err != nil {
		return err
	}
	c.putNewFile(rr.OperationID, NewFileCapture{Parameters: params, File: file, Conflict: conflict})
	return nil
}

func (c *Cache) parseCommitParameters(rr RequestResponseBody) error {
	var params models.RevisionCommitParameters
	if err := json.Unmarshal(rr.RequestBody, &params); err != nil {
		return fmt.Errorf("finalize-revision request: %w", common.ErrCannotCreateData)
	}
	if params.ManifestSignature == "" {
		return fmt.Errorf("finalize-revision request: %w", errShapeMismatch)
	}
	c.putCommit(rr.OperationID, params)
	return nil
}

func (c *Cache) parseLink(rr RequestResponseBody) error {
	var resp linkResponse
	if err := json.Unmarshal(rr.ResponseBody, &resp); err != nil {
		return fmt.Errorf("fetch-link response: %w", common.ErrCannotCreateData)
	}
	if resp.Link.LinkID == "" {
		return fmt.Errorf("fetch-link response: %w", errShapeMismatch)
	}
	c.putLink(rr.OperationID, resp.Link)
	return nil
}

// parseNewRevision handles the create-revision response, including the
// conflict variant where an existing draft revision is reused.
func (c *Cache) parseNewRevision(rr RequestResponseBody) error {
	var resp newRevisionResponse
	if err := json.Unmarshal(rr.ResponseBody, &resp); err == nil && resp.Revision.ID != "" {
		c.putNewRevision(rr.OperationID, resp.Revision)
		return nil
	}

	var conflict conflictResponse
	if err := json.Unmarshal(rr.ResponseBody, &conflict); err != nil || conflict.Details.ConflictLinkID == "" {
		return fmt.Errorf("create-revision: %w", errShapeMismatch)
	}
	draft := conflict.Details.ConflictDraftRevisionID
	if draft == nil || *draft == "" {
		return fmt.Errorf("create-revision conflict for link %s carries no draft revision id: %w",
			conflict.Details.ConflictLinkID, common.ErrNoRevisionID)
	}
	c.putNewRevision(rr.OperationID, models.NewRevision{ID: *draft})
	return nil
}
