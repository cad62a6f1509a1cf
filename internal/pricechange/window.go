package pricechange

import (
	"time"

	"github.com/guregu/null/v6"
)

const (
	// AverageWindowDays is the span of the moving average, current day included
	AverageWindowDays = 30
	// RangeWindowDays is the span of the 52-week high/low, current day included
	RangeWindowDays = 365
)

// WindowStats holds the range statistics ending at the current price date
type WindowStats struct {
	Avg30D  null.Float
	High52W null.Float
	Low52W  null.Float
}

// ComputeWindow computes the 30-day average over [current-29d, current]
// and the 52-week high/low over [current-364d, current].
func ComputeWindow(s *Series, current time.Time) WindowStats {
	var stats WindowStats

	avgPoints := s.Range(current.AddDate(0, 0, -(AverageWindowDays-1)), current)
	if len(avgPoints) > 0 {
		sum := 0.0
		for _, p := range avgPoints {
			sum += p.Price
		}
		stats.Avg30D = null.FloatFrom(sum / float64(len(avgPoints)))
	}

	rangePoints := s.Range(current.AddDate(0, 0, -(RangeWindowDays-1)), current)
	if len(rangePoints) > 0 {
		high, low := rangePoints[0].Price, rangePoints[0].Price
		for _, p := range rangePoints[1:] {
			if p.Price > high {
				high = p.Price
			}
			if p.Price < low {
				low = p.Price
			}
		}
		stats.High52W = null.FloatFrom(high)
		stats.Low52W = null.FloatFrom(low)
	}

	return stats
}
