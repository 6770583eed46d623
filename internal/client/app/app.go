// Package app wires the drivesync client together: config, local store, wire
// client with its capture side channel, commit engine and refresher.
package app

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/drivesync/internal/client/config"
	"github.com/dmitrijs2005/drivesync/internal/client/correlator"
	"github.com/dmitrijs2005/drivesync/internal/client/metadata"
	"github.com/dmitrijs2005/drivesync/internal/client/refresher"
	"github.com/dmitrijs2005/drivesync/internal/client/remote"
	"github.com/dmitrijs2005/drivesync/internal/client/repositories/syncstate"
	"github.com/dmitrijs2005/drivesync/internal/client/services"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

type App struct {
	config    *config.Config
	db        *sql.DB
	cache     *correlator.Cache
	box       *remote.Box
	updater   *metadata.Updater
	refresher *refresher.Refresher
	uploads   services.UploadService
	downloads services.DownloadService
	logger    logging.Logger
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	db, err := InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "failed to initialize database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	cache := correlator.NewCache(c.ResponseCacheLimit, logger)
	box := remote.NewBox()
	box.Set(remote.NewHTTPClient(c.ServerEndpointURL, cache.CaptureResponseBody, logger))

	updater := metadata.NewUpdater(db, cache, logger)
	state := syncstate.NewSQLiteRepository(db)
	ref := refresher.New(db, box, updater, state, logger,
		c.RefreshConcurrency, c.RefreshRetryAttempts, c.RetryInterval)

	return &App{
		config:    c,
		db:        db,
		cache:     cache,
		box:       box,
		updater:   updater,
		refresher: ref,
		uploads:   services.NewUploadService(box, updater, logger),
		downloads: services.NewDownloadService(box, updater, logger),
		logger:    logger,
	}, nil
}

// Run performs the startup health check and, when local metadata is suspect,
// a refresh pass.
func (a *App) Run(ctx context.Context) error {
	stale, err := a.refresher.DetectStale(ctx)
	if err != nil {
		return err
	}
	if stale {
		if err := a.refresher.Refresh(ctx); err != nil {
			a.logger.Warn(ctx, "refresh pass did not complete", "error", err)
			return err
		}
	}
	return nil
}

func (a *App) Uploads() services.UploadService     { return a.uploads }
func (a *App) Downloads() services.DownloadService { return a.downloads }
func (a *App) Refresher() *refresher.Refresher     { return a.refresher }

func (a *App) Close() error {
	if client, err := a.box.Get(); err == nil {
		_ = client.Close()
	}
	return a.db.Close()
}
