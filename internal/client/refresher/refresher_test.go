package refresher

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/drivesync/internal/client/correlator"
	"github.com/dmitrijs2005/drivesync/internal/client/fileprovider"
	"github.com/dmitrijs2005/drivesync/internal/client/metadata"
	"github.com/dmitrijs2005/drivesync/internal/client/migrations"
	"github.com/dmitrijs2005/drivesync/internal/client/models"
	"github.com/dmitrijs2005/drivesync/internal/client/remote"
	"github.com/dmitrijs2005/drivesync/internal/client/repositories/nodes"
	"github.com/dmitrijs2005/drivesync/internal/client/repositories/syncstate"
	"github.com/dmitrijs2005/drivesync/internal/logging"

	_ "modernc.org/sqlite"
)

type fakeClient struct {
	mu       sync.Mutex
	links    map[string]models.Link
	failures map[string][]error // consumed per call
	calls    int
}

func (f *fakeClient) GetLink(ctx context.Context, op models.OperationID, linkID string) (models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if errs := f.failures[linkID]; len(errs) > 0 {
		err := errs[0]
		f.failures[linkID] = errs[1:]
		return models.Link{}, err
	}
	link, ok := f.links[linkID]
	if !ok {
		return models.Link{}, errors.New("unknown link")
	}
	return link, nil
}

func (f *fakeClient) CreateFile(ctx context.Context, op models.OperationID, params models.NewFileParameters) (models.NewFile, error) {
	return models.NewFile{}, errors.New("not implemented")
}

func (f *fakeClient) CreateRevision(ctx context.Context, op models.OperationID, linkID string) (models.NewRevision, error) {
	return models.NewRevision{}, errors.New("not implemented")
}

func (f *fakeClient) CommitRevision(ctx context.Context, op models.OperationID, linkID, revisionID string, params models.RevisionCommitParameters) error {
	return errors.New("not implemented")
}

func (f *fakeClient) GetRevision(ctx context.Context, op models.OperationID, linkID, revisionID string) (models.Revision, error) {
	return models.Revision{}, errors.New("not implemented")
}

func (f *fakeClient) Close() error { return nil }

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))

	return db
}

func remoteLink(linkID, revisionID string) models.Link {
	return models.Link{
		LinkID:       linkID,
		ParentLinkID: "root",
		Type:         models.LinkTypeFile,
		Name:         "remote-" + linkID,
		State:        models.LinkStateActive,
		Size:         100,
		FileProperties: &models.FileProperties{
			ContentKeyPacket: "ckp",
			ActiveRevision:   models.RevisionSummary{ID: revisionID, State: models.RevisionStateActive},
		},
	}
}

func setupRefresher(t *testing.T, fc *fakeClient) (*Refresher, *sql.DB, syncstate.Repository) {
	t.Helper()
	db := setupDB(t)
	box := remote.NewBox()
	box.Set(fc)
	cache := correlator.NewCache(0, logging.NewNopLogger())
	updater := metadata.NewUpdater(db, cache, logging.NewNopLogger())
	state := syncstate.NewSQLiteRepository(db)
	r := New(db, box, updater, state, logging.NewNopLogger(), 2, 3, time.Millisecond)
	return r, db, state
}

func seedDirty(t *testing.T, db *sql.DB, ids ...string) {
	t.Helper()
	ctx := context.Background()
	repo := nodes.NewSQLiteRepository(db)
	for _, id := range ids {
		require.NoError(t, repo.CreateOrUpdate(ctx, &models.Link{
			LinkID: id, ParentLinkID: "root", Type: models.LinkTypeFile,
			Name: "stale-" + id, State: models.LinkStateActive,
			FileProperties: &models.FileProperties{
				ContentKeyPacket: "ckp",
				ActiveRevision:   models.RevisionSummary{ID: id + "-rev0", State: models.RevisionStateActive},
			},
		}, false))
	}
	require.NoError(t, repo.MarkDirty(ctx, ids))
}

func TestDetectStale(t *testing.T) {
	fc := &fakeClient{links: map[string]models.Link{}}
	r, db, state := setupRefresher(t, fc)
	ctx := context.Background()

	stale, err := r.DetectStale(ctx)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, StateClean, r.State())

	seedDirty(t, db, "l1")
	stale, err = r.DetectStale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, StateSuspectedStale, r.State())

	// interrupted flag alone also flags staleness
	require.NoError(t, nodes.NewSQLiteRepository(db).CreateOrUpdate(ctx, remoteLinkPtr("l1", "r1"), false))
	require.NoError(t, state.SetRefreshInterrupted(ctx, true))
	stale, err = r.DetectStale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
}

func remoteLinkPtr(linkID, revisionID string) *models.Link {
	l := remoteLink(linkID, revisionID)
	return &l
}

func TestRefresh_Converges(t *testing.T) {
	fc := &fakeClient{links: map[string]models.Link{
		"l1": remoteLink("l1", "r1"),
		"l2": remoteLink("l2", "r2"),
		"l3": remoteLink("l3", "r3"),
	}}
	r, db, state := setupRefresher(t, fc)
	ctx := context.Background()

	seedDirty(t, db, "l1", "l2", "l3")
	require.NoError(t, r.Refresh(ctx))

	assert.Equal(t, StateClean, r.State())

	repo := nodes.NewSQLiteRepository(db)
	n, err := repo.CountDirty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// records were replaced with remote metadata
	got, err := repo.GetByID(ctx, "l2")
	require.NoError(t, err)
	assert.Equal(t, "remote-l2", got.Name)
	assert.Equal(t, "r2", got.FileProperties.ActiveRevision.ID)

	interrupted, err := state.RefreshInterrupted(ctx)
	require.NoError(t, err)
	assert.False(t, interrupted)

	ts, err := state.LastRefreshTime(ctx)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}

func TestRefresh_TransientFailureRetried(t *testing.T) {
	fc := &fakeClient{
		links:    map[string]models.Link{"l1": remoteLink("l1", "r1")},
		failures: map[string][]error{"l1": {fileprovider.ErrCannotConnect}},
	}
	r, db, _ := setupRefresher(t, fc)
	ctx := context.Background()

	seedDirty(t, db, "l1")
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, StateClean, r.State())

	n, err := nodes.NewSQLiteRepository(db).CountDirty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRefresh_PartialFailureKeepsMarkers(t *testing.T) {
	fc := &fakeClient{links: map[string]models.Link{
		"l1": remoteLink("l1", "r1"),
		// l2 missing: every fetch fails terminally
	}}
	r, db, state := setupRefresher(t, fc)
	ctx := context.Background()

	seedDirty(t, db, "l1", "l2")
	err := r.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, StateSuspectedStale, r.State())

	repo := nodes.NewSQLiteRepository(db)
	ids, err := repo.GetDirtyIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"l2"}, ids, "only the failed node stays dirty")

	interrupted, err := state.RefreshInterrupted(ctx)
	require.NoError(t, err)
	assert.True(t, interrupted, "a failed pass stays marked interrupted")
}

func TestRefresh_EmptyDirtySet(t *testing.T) {
	fc := &fakeClient{links: map[string]models.Link{}}
	r, _, _ := setupRefresher(t, fc)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, StateClean, r.State())
	assert.Equal(t, 0, fc.calls)
}

func TestForceResync(t *testing.T) {
	fc := &fakeClient{links: map[string]models.Link{
		"l1": remoteLink("l1", "r1"),
		"l2": remoteLink("l2", "r2"),
	}}
	r, db, _ := setupRefresher(t, fc)
	ctx := context.Background()

	repo := nodes.NewSQLiteRepository(db)
	require.NoError(t, repo.CreateOrUpdate(ctx, remoteLinkPtr("l1", "r0"), false))
	require.NoError(t, repo.CreateOrUpdate(ctx, remoteLinkPtr("l2", "r0"), false))

	require.NoError(t, r.ForceResync(ctx))
	assert.Equal(t, StateSuspectedStale, r.State())

	n, err := repo.CountDirty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.Refresh(ctx))
	n, err = repo.CountDirty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
