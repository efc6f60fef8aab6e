package services

import (
	"testing"
	"time"

	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visibleIDs(p BinProjection) []string {
	ids := make([]string, len(p.Visible))
	for i, b := range p.Visible {
		ids[i] = b.BinID
	}
	return ids
}

func TestProjectBins_SortByFillLevelScenario(t *testing.T) {
	bins := []*models.Bin{
		{BinID: "B1", FillLevel: 95},
		{BinID: "B2", FillLevel: 50},
		{BinID: "B3", FillLevel: 15},
	}
	p := ProjectBins(bins, BinFilter{}, SortFillLevel)
	assert.Equal(t, []string{"B1", "B2", "B3"}, visibleIDs(p))
	assert.Equal(t, 1, p.Stats.HighFill)
	assert.Equal(t, 1, p.Stats.LowFill)
	assert.Equal(t, PriorityUrgent, p.Visible[0].Priority)
}

func TestProjectBins_SearchScenario(t *testing.T) {
	bins := []*models.Bin{{BinID: "BIN-1", ResidentName: "Nimal", Location: "Near Colombo Fort"}}

	assert.Equal(t, []string{"BIN-1"}, visibleIDs(ProjectBins(bins, BinFilter{Search: "colombo"}, SortNone)))
	assert.Empty(t, visibleIDs(ProjectBins(bins, BinFilter{Search: "xyz"}, SortNone)))
}

func TestProjectBins_SearchCoversEveryField(t *testing.T) {
	b := &models.Bin{
		BinID: "BIN-ABC", ResidentName: "Kamala", OwnerName: "Urban Council",
		ResidentType: models.ResidentSchool, Location: "Main St", Address: "42 Galle Road",
	}
	for _, q := range []string{"bin-abc", "KAMALA", "urban", "school", "main st", "galle"} {
		assert.Len(t, ProjectBins([]*models.Bin{b}, BinFilter{Search: q}, SortNone).Visible, 1, q)
	}
}

func TestProjectBins_TypeAndOwnerFilters(t *testing.T) {
	bins := []*models.Bin{
		{BinID: "A", BinType: models.BinTypeOrganic, OwnerName: "CMC"},
		{BinID: "B", BinType: models.BinTypePlastic, OwnerName: "CMC"},
		{BinID: "C", BinType: models.BinTypeOrganic, OwnerName: "Dehiwala"},
	}
	assert.Equal(t, []string{"A", "C"}, visibleIDs(ProjectBins(bins, BinFilter{Type: "organic"}, SortNone)))
	assert.Equal(t, []string{"A", "B", "C"}, visibleIDs(ProjectBins(bins, BinFilter{Type: FilterAll, Owner: FilterAll}, SortNone)))
	assert.Equal(t, []string{"A"}, visibleIDs(ProjectBins(bins, BinFilter{Type: "organic", Owner: "CMC"}, SortNone)))
	// stats ignore the filter
	assert.Equal(t, 3, ProjectBins(bins, BinFilter{Owner: "nobody"}, SortNone).Stats.Total)
}

func TestProjectBins_SortsAreStable(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	bins := []*models.Bin{
		{BinID: "1", ResidentName: "bravo", FillLevel: 40, RegistrationDate: day(2)},
		{BinID: "2", ResidentName: "Alpha", FillLevel: 40, RegistrationDate: day(1)},
		{BinID: "3", ResidentName: "alpha", FillLevel: 80, RegistrationDate: day(2)},
		{BinID: "4", ResidentName: "Charlie", FillLevel: 10, RegistrationDate: day(3)},
	}
	cases := map[SortKey][]string{
		SortNewest:    {"4", "1", "3", "2"},
		SortOldest:    {"2", "1", "3", "4"},
		SortNameAsc:   {"2", "3", "1", "4"},
		SortNameDesc:  {"4", "1", "2", "3"},
		SortFillLevel: {"3", "1", "2", "4"},
		SortNone:      {"1", "2", "3", "4"},
	}
	for key, want := range cases {
		assert.Equal(t, want, visibleIDs(ProjectBins(bins, BinFilter{}, key)), string(key))
	}
	// input untouched
	assert.Equal(t, "1", bins[0].BinID)
}

func TestClassifyPriority_Boundaries(t *testing.T) {
	assert.Equal(t, PriorityActive, ClassifyPriority(0))
	assert.Equal(t, PriorityActive, ClassifyPriority(69))
	assert.Equal(t, PriorityActive, ClassifyPriority(69.999))
	assert.Equal(t, PriorityNearlyFull, ClassifyPriority(70))
	assert.Equal(t, PriorityNearlyFull, ClassifyPriority(89))
	assert.Equal(t, PriorityUrgent, ClassifyPriority(90))
	assert.Equal(t, PriorityUrgent, ClassifyPriority(100))
}

func TestClassifyPriority_Monotonic(t *testing.T) {
	rank := map[Priority]int{PriorityActive: 0, PriorityNearlyFull: 1, PriorityUrgent: 2}
	prev := 0
	for f := 0.0; f <= 100; f += 0.5 {
		r := rank[ClassifyPriority(f)]
		require.GreaterOrEqual(t, r, prev, "fill=%v", f)
		prev = r
	}
}

func TestComputeStats(t *testing.T) {
	bins := []*models.Bin{
		{BinType: models.BinTypeOrganic, FillLevel: 10, Status: models.BinStatusActive, OwnerName: "Dehiwala"},
		{BinType: models.BinTypeOrganic, FillLevel: 15, Status: models.BinStatusActive, OwnerName: "CMC"},
		{BinType: models.BinTypePlastic, FillLevel: 90, Status: models.BinStatusMaintenance, OwnerName: "CMC"},
		{BinType: models.BinTypePlastic, FillLevel: 80, Status: models.BinStatusInactive, OwnerName: "Dehiwala"},
		{BinType: models.BinTypeGeneral, FillLevel: 20, Status: models.BinStatusActive},
	}
	st := ComputeStats(bins)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 3, st.Active)
	assert.Equal(t, 2, st.HighFill)
	assert.Equal(t, 3, st.LowFill)
	assert.Equal(t, 1, st.Urgent)
	assert.Equal(t, 2, st.ByType[models.BinTypeOrganic])
	assert.Equal(t, 0, st.ByType[models.BinTypeHazardous])
	// 215 / 5 = 43
	assert.Equal(t, 43, st.AverageFill)
	// 12.5 rounds half up
	assert.Equal(t, 13, st.AverageFillByType[models.BinTypeOrganic])
	assert.Equal(t, 85, st.AverageFillByType[models.BinTypePlastic])
	_, hasHazardous := st.AverageFillByType[models.BinTypeHazardous]
	assert.False(t, hasHazardous)
	// Dehiwala and CMC tie at 2; Dehiwala was seen first
	assert.Equal(t, "Dehiwala", st.TopOwner)
	assert.Equal(t, 2, st.TopOwnerCount)
}

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil)
	assert.Zero(t, st.Total)
	assert.Zero(t, st.AverageFill)
	assert.Empty(t, st.TopOwner)
}
