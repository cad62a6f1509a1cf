package pricechange

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/jinzhu/now"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

// AnchorDate returns the historical date a horizon compares the reference date against
func AnchorDate(ref time.Time, h models.Horizon) (time.Time, error) {
	ref = models.Day(ref)
	switch h {
	case models.HorizonDay:
		return ref.AddDate(0, 0, -1), nil
	case models.HorizonWeek:
		return ref.AddDate(0, 0, -7), nil
	case models.HorizonMonth:
		return MonthsBack(ref, 1), nil
	case models.HorizonQuarter:
		return MonthsBack(ref, 3), nil
	case models.HorizonYTD:
		return time.Date(ref.Year()-1, time.December, 31, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, models.ErrInvalidHorizon
}

// MonthsBack moves t back n calendar months keeping the day of month,
// clamped to the length of the target month (Mar 31 - 1 month = Feb 28/29).
func MonthsBack(t time.Time, n int) time.Time {
	t = models.Day(t)
	firstOfTarget := now.With(t).BeginningOfMonth().AddDate(0, -n, 0)
	lastDay := now.With(firstOfTarget).EndOfMonth().Day()

	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

// PercentChange returns current/anchor - 1 as a fraction.
// A zero anchor has no defined change and yields an absent value.
func PercentChange(current, anchor float64) null.Float {
	if anchor == 0 {
		return null.Float{}
	}
	return null.FloatFrom(current/anchor - 1)
}
