package utils

import (
	"strings"
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// Fixed-date public holidays on which no collection route runs.
var (
	lkNewYear      = &cal.Holiday{Name: "New Year's Day", Type: cal.ObservancePublic, Month: time.January, Day: 1, Func: cal.CalcDayOfMonth}
	lkIndependence = &cal.Holiday{Name: "Independence Day", Type: cal.ObservancePublic, Month: time.February, Day: 4, Func: cal.CalcDayOfMonth}
	lkSinhalaTamil = &cal.Holiday{Name: "Sinhala and Tamil New Year", Type: cal.ObservancePublic, Month: time.April, Day: 14, Func: cal.CalcDayOfMonth}
	lkMayDay       = &cal.Holiday{Name: "May Day", Type: cal.ObservancePublic, Month: time.May, Day: 1, Func: cal.CalcDayOfMonth}
	lkChristmas    = &cal.Holiday{Name: "Christmas Day", Type: cal.ObservancePublic, Month: time.December, Day: 25, Func: cal.CalcDayOfMonth}
)

// HolidayCalendar answers whether collections are suspended on a given day.
type HolidayCalendar struct {
	bc *cal.BusinessCalendar
}

// NewHolidayCalendar builds the calendar for region ("lk" or "us").
// Unknown regions fall back to "lk".
func NewHolidayCalendar(region string) *HolidayCalendar {
	bc := cal.NewBusinessCalendar()
	switch strings.ToLower(region) {
	case "us":
		bc.AddHoliday(
			us.NewYear,
			us.MlkDay,
			us.PresidentsDay,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		)
	default:
		bc.AddHoliday(lkNewYear, lkIndependence, lkSinhalaTamil, lkMayDay, lkChristmas)
	}
	return &HolidayCalendar{bc: bc}
}

func (h *HolidayCalendar) IsHoliday(t time.Time) bool {
	if h == nil || h.bc == nil {
		return false
	}
	actual, observed, _ := h.bc.IsHoliday(t)
	return actual || observed
}
