package seeding

import (
	"context"
	"testing"

	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemoBins_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryBinRepository()
	payload := func(b *models.Bin) string { return "P:" + b.BinID }

	n, err := SeedDemoBins(ctx, repo, payload)
	require.NoError(t, err)
	assert.Equal(t, len(demoBins), n)

	n, err = SeedDemoBins(ctx, repo, payload)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(demoBins))
	for _, b := range all {
		assert.Equal(t, "P:"+b.BinID, b.QRPayload)
		assert.NotNil(t, b.Coordinates)
		assert.Equal(t, models.MonitorStatusFor(b.FillLevel), b.MonitorStatus)
	}
}
