package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/drivesync/internal/client/config"
	"github.com/dmitrijs2005/drivesync/internal/client/refresher"
	"github.com/dmitrijs2005/drivesync/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "meta.db")
	return cfg
}

func TestNewApp_WiresEverything(t *testing.T) {
	ctx := context.Background()
	a, err := NewApp(ctx, testConfig(t), logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.Uploads())
	assert.NotNil(t, a.Downloads())
	assert.NotNil(t, a.Refresher())
}

func TestRun_CleanStoreSkipsRefresh(t *testing.T) {
	ctx := context.Background()
	a, err := NewApp(ctx, testConfig(t), logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Run(ctx))
	assert.Equal(t, refresher.StateClean, a.Refresher().State())
}

func TestInitDatabase_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meta.db")

	db, err := InitDatabase(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// migrations are idempotent across restarts
	db, err = InitDatabase(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
