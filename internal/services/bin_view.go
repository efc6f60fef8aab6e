package services

import (
	"math"
	"sort"
	"strings"

	"github.com/smartwaste/bin-registry/shared/go-models"
)

/*──────────────────────────────────────────────────────────────────────────────
  Priority
──────────────────────────────────────────────────────────────────────────────*/

type Priority string

const (
	PriorityActive     Priority = "Active"
	PriorityNearlyFull Priority = "NearlyFull"
	PriorityUrgent     Priority = "Urgent"
)

// Fill-level thresholds. Changing any of these changes badges and stats.
const (
	NearlyFullThreshold = 70.0
	UrgentThreshold     = 90.0
	HighFillThreshold   = 80.0
	LowFillThreshold    = 20.0
)

func ClassifyPriority(fillLevel float64) Priority {
	switch {
	case fillLevel >= UrgentThreshold:
		return PriorityUrgent
	case fillLevel >= NearlyFullThreshold:
		return PriorityNearlyFull
	default:
		return PriorityActive
	}
}

/*──────────────────────────────────────────────────────────────────────────────
  Filter / sort
──────────────────────────────────────────────────────────────────────────────*/

type SortKey string

const (
	SortNone      SortKey = ""
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
	SortFillLevel SortKey = "fill-level"
)

// FilterAll matches every value for the type and owner filters.
const FilterAll = "all"

type BinFilter struct {
	Search string
	Type   string
	Owner  string
}

func (f BinFilter) matches(b *models.Bin) bool {
	if f.Type != "" && f.Type != FilterAll && string(b.BinType) != f.Type {
		return false
	}
	if f.Owner != "" && f.Owner != FilterAll && b.OwnerName != f.Owner {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	for _, field := range []string{
		b.BinID, b.ResidentName, b.OwnerName, string(b.ResidentType), b.Location, b.Address,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func sortBins(bins []*models.Bin, key SortKey) {
	var less func(a, b *models.Bin) bool
	switch key {
	case SortNewest:
		less = func(a, b *models.Bin) bool { return a.RegistrationDate.After(b.RegistrationDate) }
	case SortOldest:
		less = func(a, b *models.Bin) bool { return a.RegistrationDate.Before(b.RegistrationDate) }
	case SortNameAsc:
		less = func(a, b *models.Bin) bool { return foldedLess(a.ResidentName, b.ResidentName) }
	case SortNameDesc:
		less = func(a, b *models.Bin) bool { return foldedLess(b.ResidentName, a.ResidentName) }
	case SortFillLevel:
		less = func(a, b *models.Bin) bool { return a.FillLevel > b.FillLevel }
	default:
		return
	}
	sort.SliceStable(bins, func(i, j int) bool { return less(bins[i], bins[j]) })
}

func foldedLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

/*──────────────────────────────────────────────────────────────────────────────
  Stats
──────────────────────────────────────────────────────────────────────────────*/

type BinStats struct {
	Total             int                    `json:"total"`
	Active            int                    `json:"active"`
	HighFill          int                    `json:"highFill"`
	LowFill           int                    `json:"lowFill"`
	Urgent            int                    `json:"urgent"`
	ByType            map[models.BinType]int `json:"byType"`
	AverageFill       int                    `json:"averageFill"`
	AverageFillByType map[models.BinType]int `json:"averageFillByType"`
	TopOwner          string                 `json:"topOwner,omitempty"`
	TopOwnerCount     int                    `json:"topOwnerCount"`
}

// ComputeStats aggregates over every bin given, ignoring any filter.
func ComputeStats(bins []*models.Bin) BinStats {
	st := BinStats{
		Total:             len(bins),
		ByType:            make(map[models.BinType]int, len(models.AllBinTypes)),
		AverageFillByType: map[models.BinType]int{},
	}
	for _, t := range models.AllBinTypes {
		st.ByType[t] = 0
	}

	var (
		fillSum     float64
		fillByType  = map[models.BinType]float64{}
		ownerCounts = map[string]int{}
		ownerOrder  []string
	)
	for _, b := range bins {
		if b.Status == models.BinStatusActive {
			st.Active++
		}
		if b.FillLevel >= HighFillThreshold {
			st.HighFill++
		}
		if b.FillLevel <= LowFillThreshold {
			st.LowFill++
		}
		if ClassifyPriority(b.FillLevel) == PriorityUrgent {
			st.Urgent++
		}
		st.ByType[b.BinType]++
		fillSum += b.FillLevel
		fillByType[b.BinType] += b.FillLevel

		if b.OwnerName != "" {
			if _, seen := ownerCounts[b.OwnerName]; !seen {
				ownerOrder = append(ownerOrder, b.OwnerName)
			}
			ownerCounts[b.OwnerName]++
		}
	}

	if st.Total > 0 {
		st.AverageFill = roundHalfUp(fillSum / float64(st.Total))
	}
	for t, sum := range fillByType {
		st.AverageFillByType[t] = roundHalfUp(sum / float64(st.ByType[t]))
	}
	// strict > keeps the first-seen owner on ties
	for _, owner := range ownerOrder {
		if ownerCounts[owner] > st.TopOwnerCount {
			st.TopOwner, st.TopOwnerCount = owner, ownerCounts[owner]
		}
	}
	return st
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

/*──────────────────────────────────────────────────────────────────────────────
  Projection
──────────────────────────────────────────────────────────────────────────────*/

type ProjectedBin struct {
	*models.Bin
	Priority Priority `json:"priority"`
}

type BinProjection struct {
	Visible []ProjectedBin `json:"bins"`
	Stats   BinStats       `json:"stats"`
}

// ProjectBins filters and sorts a snapshot. The input slice and the bins in
// it are never modified.
func ProjectBins(bins []*models.Bin, filter BinFilter, sortKey SortKey) BinProjection {
	visible := make([]*models.Bin, 0, len(bins))
	for _, b := range bins {
		if filter.matches(b) {
			visible = append(visible, b)
		}
	}
	sortBins(visible, sortKey)

	out := BinProjection{
		Visible: make([]ProjectedBin, len(visible)),
		Stats:   ComputeStats(bins),
	}
	for i, b := range visible {
		out.Visible[i] = ProjectedBin{Bin: b, Priority: ClassifyPriority(b.FillLevel)}
	}
	return out
}

// ValidSortKey reports whether s names a supported ordering.
func ValidSortKey(s string) bool {
	switch SortKey(s) {
	case SortNone, SortNewest, SortOldest, SortNameAsc, SortNameDesc, SortFillLevel:
		return true
	}
	return false
}
