// Package refresher re-fetches the metadata of nodes whose local records are
// no longer trusted. Dirty markers and the interrupted flag live in the
// database, so a pass that is killed mid-way resumes where it left off.
package refresher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/drivesync/internal/client/fileprovider"
	"github.com/dmitrijs2005/drivesync/internal/client/metadata"
	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/client/remote"
	"github.com/dmitrijs2005/drivesync/internal/client/repositories/nodes"
	"github.com/dmitrijs2005/drivesync/internal/client/repositories/syncstate"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

// State is the refresher's view of local metadata health.
type State int

const (
	// StateClean: local records are trusted.
	StateClean State = iota
	// StateSuspectedStale: dirty markers or an interrupted pass exist.
	StateSuspectedStale
	// StateRefreshing: a refresh pass is running.
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateSuspectedStale:
		return "suspectedStale"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Refresher re-fetches dirty nodes with bounded concurrency and per-node
// retry. A failed node keeps its dirty marker and is picked up next pass.
type Refresher struct {
	db      *sql.DB
	box     *remote.Box
	updater *metadata.Updater
	state   syncstate.Repository
	logger  logging.Logger

	concurrency   int
	retryAttempts int
	retryInterval time.Duration

	mu      sync.Mutex
	current State
}

func New(db *sql.DB, box *remote.Box, updater *metadata.Updater, state syncstate.Repository,
	logger logging.Logger, concurrency, retryAttempts int, retryInterval time.Duration) *Refresher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Refresher{
		db:            db,
		box:           box,
		updater:       updater,
		state:         state,
		logger:        logger,
		concurrency:   concurrency,
		retryAttempts: retryAttempts,
		retryInterval: retryInterval,
		current:       StateClean,
	}
}

// State returns the current health state.
func (r *Refresher) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Refresher) setState(s State) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
}

// DetectStale checks the persisted markers and moves to SuspectedStale when
// dirty nodes exist or the previous pass was interrupted.
func (r *Refresher) DetectStale(ctx context.Context) (bool, error) {
	repo := nodes.NewSQLiteRepository(r.db)
	dirty, err := repo.CountDirty(ctx)
	if err != nil {
		return false, err
	}
	interrupted, err := r.state.RefreshInterrupted(ctx)
	if err != nil {
		return false, err
	}
	if dirty > 0 || interrupted {
		r.setState(StateSuspectedStale)
		r.logger.Info(ctx, "stale metadata detected", "dirtyNodes", dirty, "interrupted", interrupted)
		return true, nil
	}
	r.setState(StateClean)
	return false, nil
}

// ForceResync marks every cached node dirty so the next pass re-fetches all
// of them.
func (r *Refresher) ForceResync(ctx context.Context) error {
	if err := nodes.NewSQLiteRepository(r.db).MarkAllDirty(ctx); err != nil {
		return err
	}
	r.setState(StateSuspectedStale)
	r.logger.Info(ctx, "full resync requested")
	return nil
}

// Refresh runs one pass over the dirty set. The interrupted flag is set up
// front and cleared only after a fully successful pass, so a crash or
// cancellation mid-pass is visible on the next start. Individual node
// failures do not abort the pass.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.setState(StateRefreshing)

	if err := r.state.SetRefreshInterrupted(ctx, true); err != nil {
		r.setState(StateSuspectedStale)
		return err
	}

	repo := nodes.NewSQLiteRepository(r.db)
	ids, err := repo.GetDirtyIDs(ctx)
	if err != nil {
		r.setState(StateSuspectedStale)
		return err
	}
	if len(ids) == 0 {
		return r.finishClean(ctx)
	}

	r.logger.Info(ctx, "refreshing dirty nodes", "count", len(ids), "concurrency", r.concurrency)

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := r.refreshNode(gctx, id); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failed.Add(1)
				r.logger.Warn(gctx, "failed to refresh node, keeping it dirty", "linkId", id, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// cancellation: markers stay, next start resumes
		r.setState(StateSuspectedStale)
		return err
	}

	if n := failed.Load(); n > 0 {
		r.setState(StateSuspectedStale)
		return fmt.Errorf("refresh pass left %d of %d nodes dirty", n, len(ids))
	}
	return r.finishClean(ctx)
}

func (r *Refresher) refreshNode(ctx context.Context, linkID string) error {
	link, err := fileprovider.PerformWithRetry(ctx, "refreshNode", r.retryAttempts, r.retryInterval, r.logger,
		func(ctx context.Context) (models.Link, error) {
			client, err := r.box.Get()
			if err != nil {
				return models.Link{}, err
			}
			op := models.NewOperationID(models.OperationTypeMetadataFetch)
			return client.GetLink(ctx, op, linkID)
		})
	if err != nil {
		return err
	}
	return r.updater.CommitLink(ctx, &link)
}

func (r *Refresher) finishClean(ctx context.Context) error {
	if err := r.state.SetRefreshInterrupted(ctx, false); err != nil {
		r.setState(StateSuspectedStale)
		return err
	}
	if err := r.state.SetLastRefreshTime(ctx, time.Now()); err != nil {
		r.setState(StateSuspectedStale)
		return err
	}
	r.setState(StateClean)
	r.logger.Info(ctx, "refresh pass finished")
	return nil
}
