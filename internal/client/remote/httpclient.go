package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/drivesync/internal/client/correlator"
	"github.com/dmitrijs2005/drivesync/internal/client/fileprovider"
	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/common"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

// CaptureFunc receives the raw request/response pair of every exchange before
// the client decodes anything. Wired to correlator.Cache.CaptureResponseBody.
type CaptureFunc func(ctx context.Context, rr correlator.RequestResponseBody) error

// HTTPClient implements Client over the drive REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	capture CaptureFunc
	logger  logging.Logger
}

func NewHTTPClient(baseURL string, capture CaptureFunc, logger logging.Logger) *HTTPClient {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		capture: capture,
		logger:  logger,
	}
}

func (c *HTTPClient) CreateFile(ctx context.Context, op models.OperationID, params models.NewFileParameters) (models.NewFile, error) {
	var resp struct {
		File models.NewFile `json:"File"`
	}
	err := c.do(ctx, op, http.MethodPost, "/drive/files", params, &resp)
	if err != nil {
		return models.NewFile{}, err
	}
	return resp.File, nil
}

func (c *HTTPClient) CreateRevision(ctx context.Context, op models.OperationID, linkID string) (models.NewRevision, error) {
	var resp struct {
		Revision models.NewRevision `json:"Revision"`
	}
	path := fmt.Sprintf("/drive/files/%s/revisions", url.PathEscape(linkID))
	err := c.do(ctx, op, http.MethodPost, path, nil, &resp)
	if err != nil {
		return models.NewRevision{}, err
	}
	return resp.Revision, nil
}

func (c *HTTPClient) CommitRevision(ctx context.Context, op models.OperationID, linkID, revisionID string, params models.RevisionCommitParameters) error {
	path := fmt.Sprintf("/drive/files/%s/revisions/%s", url.PathEscape(linkID), url.PathEscape(revisionID))
	return c.do(ctx, op, http.MethodPut, path, params, nil)
}

func (c *HTTPClient) GetLink(ctx context.Context, op models.OperationID, linkID string) (models.Link, error) {
	var resp struct {
		Link models.Link `json:"Link"`
	}
	path := fmt.Sprintf("/drive/links/%s", url.PathEscape(linkID))
	err := c.do(ctx, op, http.MethodGet, path, nil, &resp)
	if err != nil {
		return models.Link{}, err
	}
	return resp.Link, nil
}

func (c *HTTPClient) GetRevision(ctx context.Context, op models.OperationID, linkID, revisionID string) (models.Revision, error) {
	var resp struct {
		Revision models.Revision `json:"Revision"`
	}
	path := fmt.Sprintf("/drive/files/%s/revisions/%s", url.PathEscape(linkID), url.PathEscape(revisionID))
	err := c.do(ctx, op, http.MethodGet, path, nil, &resp)
	if err != nil {
		return models.Revision{}, err
	}
	return resp.Revision, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do performs one exchange: marshal, tag with the operation id, send, hand the
// raw bodies to the capture hook and only then interpret the status code.
func (c *HTTPClient) do(ctx context.Context, op models.OperationID, method, path string, in, out any) error {
	var reqBody []byte
	if in != nil {
		var err error
		reqBody, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s: %w", method, path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.OperationIDHeaderName, op.ID)

	resp, err := c.http.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return fmt.Errorf("%s %s: %w: %v", method, path, fileprovider.ErrCannotConnect, err)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if c.capture != nil {
		if err := c.capture(ctx, correlator.RequestResponseBody{
			OperationID:  op,
			Method:       method,
			URL:          path,
			RequestBody:  reqBody,
			ResponseBody: respBody,
		}); err != nil {
			return err
		}
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return parseConflict(respBody)
	case resp.StatusCode >= 400:
		c.logger.Warn(ctx, "remote call failed",
			"operationId", op.String(), "method", method, "url", path, "status", resp.StatusCode)
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}
	return nil
}

func parseConflict(body []byte) error {
	var resp struct {
		Details struct {
			ConflictLinkID          string  `json:"ConflictLinkID"`
			ConflictRevisionID      *string `json:"ConflictRevisionID"`
			ConflictDraftRevisionID *string `json:"ConflictDraftRevisionID"`
		} `json:"Details"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Details.ConflictLinkID == "" {
		return errors.New("conflict response with unreadable details")
	}
	return &ConflictError{
		LinkID:          resp.Details.ConflictLinkID,
		RevisionID:      resp.Details.ConflictRevisionID,
		DraftRevisionID: resp.Details.ConflictDraftRevisionID,
	}
}

func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

var _ Client = (*HTTPClient)(nil)
