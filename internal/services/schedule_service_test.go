package services

import (
	"context"
	"testing"
	"time"

	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextCollection_Frequencies(t *testing.T) {
	s := NewScheduleService(nil, nil, false)
	from := time.Date(2025, 1, 31, 15, 30, 0, 0, time.UTC)

	cases := map[models.CollectionFrequency]time.Time{
		models.CollectDaily:    time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		models.CollectWeekly:   time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC),
		models.CollectBiweekly: time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC),
		// Go normalises Feb 31 to Mar 3
		models.CollectMonthly: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		"":                    time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC),
	}
	for freq, want := range cases {
		assert.True(t, want.Equal(s.NextCollection(from, freq, "")), "freq=%q got %v", freq, s.NextCollection(from, freq, ""))
	}
}

func TestNextCollection_SkipsHolidays(t *testing.T) {
	cal := internal_utils.NewHolidayCalendar("lk")
	from := time.Date(2025, 12, 24, 9, 0, 0, 0, time.UTC)

	skipping := NewScheduleService(nil, cal, true)
	assert.Equal(t, 26, skipping.NextCollection(from, models.CollectDaily, "").Day())

	plain := NewScheduleService(nil, cal, false)
	assert.Equal(t, 25, plain.NextCollection(from, models.CollectDaily, "").Day())
}

func TestRollOver(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryBinRepository()
	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(72 * time.Hour)

	seed := []*models.Bin{
		{BinID: "OVERDUE", Status: models.BinStatusActive, CollectionFrequency: models.CollectDaily, NextCollection: &past},
		{BinID: "UNSCHEDULED", Status: models.BinStatusActive, CollectionFrequency: models.CollectWeekly},
		{BinID: "UPCOMING", Status: models.BinStatusActive, CollectionFrequency: models.CollectWeekly, NextCollection: &future},
		{BinID: "PAUSED", Status: models.BinStatusInactive, CollectionFrequency: models.CollectDaily, NextCollection: &past},
	}
	for _, b := range seed {
		require.NoError(t, repo.Create(ctx, b))
	}

	s := NewScheduleService(repo, nil, false)
	moved, err := s.RollOver(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	for id, wantMoved := range map[string]bool{"OVERDUE": true, "UNSCHEDULED": true, "UPCOMING": false, "PAUSED": false} {
		b, err := repo.GetByBinID(ctx, id)
		require.NoError(t, err)
		if wantMoved {
			require.NotNil(t, b.NextCollection, id)
			assert.True(t, b.NextCollection.After(time.Now()), id)
			assert.Equal(t, int64(2), b.RowVersion, id)
		} else {
			assert.Equal(t, int64(1), b.RowVersion, id)
		}
	}
}
