package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/smartwaste/bin-registry/internal/config"
	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_SQLiteStoreAndSeed(t *testing.T) {
	cfg := &config.Config{
		AppName:     "bins-service",
		StoreDriver: config.StoreSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "nested", "bins.db"),
	}
	a, err := NewApp(cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Ping(ctx))
	assert.Nil(t, a.Redis)

	require.NoError(t, SeedAllTestData(ctx, a.Bins))
	require.NoError(t, SeedAllTestData(ctx, a.Bins))

	bins, err := a.Bins.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, bins)
	for _, b := range bins {
		decoded, err := internal_utils.DecodeQRPayload(b.QRPayload)
		require.NoError(t, err)
		assert.Equal(t, b.BinID, decoded.BinID)
	}
}

func TestNewApp_MemoryStore(t *testing.T) {
	a, err := NewApp(&config.Config{AppName: "bins-service", StoreDriver: config.StoreMemory})
	require.NoError(t, err)
	defer a.Close()
	assert.NoError(t, a.Ping(context.Background()))
}
