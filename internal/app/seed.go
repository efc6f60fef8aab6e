package app

import (
	"context"

	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	seeding "github.com/smartwaste/bin-registry/shared/go-seeding"
)

// SeedAllTestData loads the demo bins used by local and staging runs.
func SeedAllTestData(ctx context.Context, bins repositories.BinRepository) error {
	_, err := seeding.SeedDemoBins(ctx, bins, internal_utils.EncodeBinQRPayload)
	return err
}
