// Package correlator keeps the raw remote responses captured for in-flight
// operations and classifies them by shape. A single logical operation (file
// upload, revision upload, download) can produce several captures of
// different kinds over its lifetime; the metadata commit engine later
// consumes them by operation id to reconstruct the canonical node record.
package correlator

import (
	"sync"

	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

// Conflict is the outcome of classifying a create-file response.
type Conflict int

const (
	// ConflictNone: the file and its draft revision were created cleanly.
	ConflictNone Conflict = iota
	// ConflictDraftAlreadyExists: an unfinished draft revision for this file
	// already exists remotely and is reused in place.
	ConflictDraftAlreadyExists
	// ConflictFileAlreadyCreated: the file is already finalized remotely; a
	// fresh revision must be appended instead.
	ConflictFileAlreadyCreated
)

func (c Conflict) String() string {
	switch c {
	case ConflictNone:
		return "none"
	case ConflictDraftAlreadyExists:
		return "draftAlreadyExists"
	case ConflictFileAlreadyCreated:
		return "fileAlreadyCreated"
	default:
		return "unknown"
	}
}

// NewFileCapture bundles everything learned from one create-file exchange:
// the request parameters, the (possibly conflict-derived) file identity and
// the classified outcome.
type NewFileCapture struct {
	Parameters models.NewFileParameters
	File       models.NewFile
	Conflict   Conflict
}

// Cache stores captured payloads in five independent maps, one per payload
// kind, all keyed by operation id and guarded by a single mutex. Writes are
// last-wins (retried sub-requests within one operation simply overwrite).
// Growth is bounded: successful commits call Forget, and beyond the limit the
// oldest operation's captures are evicted wholesale.
type Cache struct {
	mu    sync.Mutex
	limit int
	order []models.OperationID

	links        map[models.OperationID]models.Link
	revisions    map[models.OperationID]models.Revision
	newFiles     map[models.OperationID]NewFileCapture
	newRevisions map[models.OperationID]models.NewRevision
	commits      map[models.OperationID]models.RevisionCommitParameters

	logger   logging.Logger
	reporter AnomalyReporter
}

// DefaultLimit is the default ceiling on tracked operations.
const DefaultLimit = 1024

// NewCache returns a Cache bounded to limit operations. A non-positive limit
// falls back to DefaultLimit.
func NewCache(limit int, logger logging.Logger) *Cache {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Cache{
		limit:        limit,
		links:        make(map[models.OperationID]models.Link),
		revisions:    make(map[models.OperationID]models.Revision),
		newFiles:     make(map[models.OperationID]NewFileCapture),
		newRevisions: make(map[models.OperationID]models.NewRevision),
		commits:      make(map[models.OperationID]models.RevisionCommitParameters),
		logger:       logger,
	}
}

// track must be called with mu held. It registers the operation for eviction
// ordering and evicts the oldest operation when over the limit.
func (c *Cache) track(op models.OperationID) {
	if c.known(op) {
		return
	}
	c.order = append(c.order, op)
	for len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.drop(oldest)
	}
}

func (c *Cache) known(op models.OperationID) bool {
	_, a := c.links[op]
	_, b := c.revisions[op]
	_, d := c.newFiles[op]
	_, e := c.newRevisions[op]
	_, f := c.commits[op]
	return a || b || d || e || f
}

func (c *Cache) drop(op models.OperationID) {
	delete(c.links, op)
	delete(c.revisions, op)
	delete(c.newFiles, op)
	delete(c.newRevisions, op)
	delete(c.commits, op)
}

func (c *Cache) putLink(op models.OperationID, l models.Link) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track(op)
	c.links[op] = l
}

func (c *Cache) putRevision(op models.OperationID, r models.Revision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track(op)
	c.revisions[op] = r
}

func (c *Cache) putNewFile(op models.OperationID, nf NewFileCapture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track(op)
	c.newFiles[op] = nf
}

func (c *Cache) putNewRevision(op models.OperationID, nr models.NewRevision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track(op)
	c.newRevisions[op] = nr
}

func (c *Cache) putCommit(op models.OperationID, p models.RevisionCommitParameters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track(op)
	c.commits[op] = p
}

// Link returns the captured link metadata for op, if any. Reading does not
// remove the entry; consumers call Forget once a commit succeeds.
func (c *Cache) Link(op models.OperationID) (models.Link, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.links[op]
	return l, ok
}

// Revision returns the captured full revision metadata for op, if any.
func (c *Cache) Revision(op models.OperationID) (models.Revision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.revisions[op]
	return r, ok
}

// NewFile returns the captured create-file exchange for op, if any.
func (c *Cache) NewFile(op models.OperationID) (NewFileCapture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nf, ok := c.newFiles[op]
	return nf, ok
}

// NewRevision returns the captured create-revision payload for op, if any.
func (c *Cache) NewRevision(op models.OperationID) (models.NewRevision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nr, ok := c.newRevisions[op]
	return nr, ok
}

// Commit returns the captured finalize-revision parameters for op, if any.
func (c *Cache) Commit(op models.OperationID) (models.RevisionCommitParameters, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.commits[op]
	return p, ok
}

// Forget removes every capture for op. Called after a successful commit.
func (c *Cache) Forget(op models.OperationID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop(op)
	for i, o := range c.order {
		if o == op {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len reports how many operations currently have captures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
