package services

import (
	"context"
	"errors"
	"time"

	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

// maxHolidaySkip bounds the walk past consecutive holidays.
const maxHolidaySkip = 14

type ScheduleService struct {
	repo         repositories.BinRepository
	holidays     *internal_utils.HolidayCalendar
	skipHolidays bool
	now          func() time.Time
}

func NewScheduleService(
	repo repositories.BinRepository,
	holidays *internal_utils.HolidayCalendar,
	skipHolidays bool,
) *ScheduleService {
	return &ScheduleService{
		repo:         repo,
		holidays:     holidays,
		skipHolidays: skipHolidays,
		now:          time.Now,
	}
}

// NextCollection returns local midnight of the first collection day after
// from for the given frequency. Unknown frequencies are treated as weekly.
func (s *ScheduleService) NextCollection(from time.Time, freq models.CollectionFrequency, tz string) time.Time {
	loc := internal_utils.LoadLocation(tz)
	local := from.In(loc)

	var next time.Time
	switch freq {
	case models.CollectDaily:
		next = local.AddDate(0, 0, 1)
	case models.CollectBiweekly:
		next = local.AddDate(0, 0, 14)
	case models.CollectMonthly:
		next = local.AddDate(0, 1, 0)
	default:
		next = local.AddDate(0, 0, 7)
	}
	next = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc)

	if s.skipHolidays {
		for i := 0; i < maxHolidaySkip && s.holidays.IsHoliday(next); i++ {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}

// Reschedule sets NextCollection on bin counting from `from`.
func (s *ScheduleService) Reschedule(bin *models.Bin, from time.Time) {
	next := s.NextCollection(from, bin.CollectionFrequency, bin.TimeZone)
	bin.NextCollection = &next
}

// RollOver advances every active bin whose next collection date has passed.
// Returns the number of bins moved forward.
func (s *ScheduleService) RollOver(ctx context.Context) (int, error) {
	bins, err := s.repo.List(ctx)
	if err != nil {
		return 0, &utils.PersistenceError{Op: "list", Err: err}
	}
	now := s.now()

	var errs []error
	moved := 0
	for _, b := range bins {
		if !s.isOverdue(b, now) {
			continue
		}
		err := s.repo.UpdateWithRetry(ctx, b.BinID, func(cur *models.Bin) error {
			if !s.isOverdue(cur, now) {
				return errSkipRollOver
			}
			s.Reschedule(cur, now)
			return nil
		})
		switch {
		case err == nil:
			moved++
		case errors.Is(err, errSkipRollOver):
		default:
			utils.Logger.WithError(err).WithField("bin_id", b.BinID).Error("[Schedule] failed to roll over collection date")
			errs = append(errs, err)
		}
	}
	utils.Logger.WithField("moved", moved).Info("[Schedule] collection roll-over complete")
	return moved, errors.Join(errs...)
}

var errSkipRollOver = errors.New("skip_roll_over")

func (s *ScheduleService) isOverdue(b *models.Bin, now time.Time) bool {
	return b.Status == models.BinStatusActive && (b.NextCollection == nil || b.NextCollection.Before(now))
}
