package indicator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/sdcoffey/techan"
)

// Kind is the moving average flavour
type Kind string

const (
	KindSMA Kind = "sma"
	KindEMA Kind = "ema"
)

// DefaultPeriods are the moving average windows offered by the chart view
var DefaultPeriods = []int{10, 20, 50, 100, 200}

// MovingAverage describes one moving average line
type MovingAverage struct {
	Kind   Kind
	Period int
}

// Name returns the series name (e.g., "sma_20")
func (m MovingAverage) Name() string {
	return fmt.Sprintf("%s_%d", m.Kind, m.Period)
}

// ParseMovingAverage parses "20", "sma_20" or "ema_50"
func ParseMovingAverage(s string) (MovingAverage, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	kind := KindSMA
	if prefix, rest, ok := strings.Cut(s, "_"); ok {
		kind = Kind(prefix)
		s = rest
	}
	if kind != KindSMA && kind != KindEMA {
		return MovingAverage{}, fmt.Errorf("unknown moving average kind %q", kind)
	}

	period, err := strconv.Atoi(s)
	if err != nil || period < 1 {
		return MovingAverage{}, fmt.Errorf("invalid moving average period %q", s)
	}
	return MovingAverage{Kind: kind, Period: period}, nil
}

// Compute returns one value per point. Values before the first full window are absent.
func (m MovingAverage) Compute(points []models.PricePoint) ([]null.Float, error) {
	if m.Period < 1 {
		return nil, fmt.Errorf("period must be >= 1, got %d", m.Period)
	}

	series, err := NewDailySeries(points)
	if err != nil {
		return nil, err
	}

	closePrice := techan.NewClosePriceIndicator(series)
	var ind techan.Indicator
	switch m.Kind {
	case KindEMA:
		ind = techan.NewEMAIndicator(closePrice, m.Period)
	default:
		ind = techan.NewSimpleMovingAverage(closePrice, m.Period)
	}

	values := make([]null.Float, len(points))
	for i := m.Period - 1; i < len(points); i++ {
		v := ind.Calculate(i).Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values[i] = null.FloatFrom(v)
	}
	return values, nil
}
