package dashboard

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jinzhu/now"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/indicator"
)

var (
	// ErrInvalidRange is returned when the chart start date is after the end date
	ErrInvalidRange = errors.New("start date must not be after end date")
	// ErrNoCommodities is returned when a chart query selects no commodity
	ErrNoCommodities = errors.New("at least one commodity must be selected")
	// ErrTooManyCommodities is returned when a chart query selects more commodities than allowed
	ErrTooManyCommodities = errors.New("too many commodities selected")
)

// DefaultChartDays is the length of the default chart range ending at the latest date
const DefaultChartDays = 20

// MonthLayout formats the month keys of the monthly returns table
const MonthLayout = "2006-01"

// ChartQuery selects the commodities and date range of the chart views
type ChartQuery struct {
	Commodities    []string
	Start          time.Time
	End            time.Time
	MovingAverages []indicator.MovingAverage
}

// SeriesPoint is one day of a commodity price chart
type SeriesPoint struct {
	Date     time.Time             `json:"date"`
	Price    float64               `json:"price"`
	Averages map[string]null.Float `json:"averages,omitempty"`
}

// CommoditySeries is the price chart of one commodity
type CommoditySeries struct {
	Commodity string        `json:"commodity"`
	Points    []SeriesPoint `json:"points"`
}

// BuildSeries returns the price chart of a commodity with the requested moving
// averages. An average longer than the series is left out.
func BuildSeries(commodity string, points []models.PricePoint, averages []indicator.MovingAverage) (CommoditySeries, error) {
	series := CommoditySeries{
		Commodity: commodity,
		Points:    make([]SeriesPoint, len(points)),
	}
	for i, p := range points {
		series.Points[i] = SeriesPoint{Date: p.Date, Price: p.Price}
	}

	for _, ma := range averages {
		if len(points) < ma.Period {
			continue
		}
		values, err := ma.Compute(points)
		if err != nil {
			return CommoditySeries{}, err
		}
		for i, v := range values {
			if series.Points[i].Averages == nil {
				series.Points[i].Averages = make(map[string]null.Float, len(averages))
			}
			series.Points[i].Averages[ma.Name()] = v
		}
	}
	return series, nil
}

// NormalizedPoint is the change of a price relative to the first price of the range
type NormalizedPoint struct {
	Date   time.Time  `json:"date"`
	Change null.Float `json:"change"`
}

// NormalizedSeries is the comparison line of one commodity
type NormalizedSeries struct {
	Commodity string            `json:"commodity"`
	Points    []NormalizedPoint `json:"points"`
}

// Normalize expresses every price as a fraction change from the first price.
// A zero first price leaves every change absent.
func Normalize(commodity string, points []models.PricePoint) NormalizedSeries {
	series := NormalizedSeries{
		Commodity: commodity,
		Points:    make([]NormalizedPoint, len(points)),
	}
	for i, p := range points {
		series.Points[i] = NormalizedPoint{Date: p.Date}
		if first := points[0].Price; first != 0 {
			series.Points[i].Change = null.FloatFrom(p.Price/first - 1)
		}
	}
	return series
}

// PerformanceMetrics summarizes a commodity over the chart range
type PerformanceMetrics struct {
	Commodity  string     `json:"commodity"`
	StartPrice float64    `json:"start_price"`
	EndPrice   float64    `json:"end_price"`
	Change     null.Float `json:"change"`
	MinPrice   float64    `json:"min_price"`
	MaxPrice   float64    `json:"max_price"`
	Volatility float64    `json:"volatility"`
}

// ComputeMetrics returns the range metrics of a commodity. ok is false with fewer than two prices.
// Volatility is the sample standard deviation of the prices.
func ComputeMetrics(commodity string, points []models.PricePoint) (PerformanceMetrics, bool) {
	if len(points) < 2 {
		return PerformanceMetrics{}, false
	}

	m := PerformanceMetrics{
		Commodity:  commodity,
		StartPrice: points[0].Price,
		EndPrice:   points[len(points)-1].Price,
		MinPrice:   points[0].Price,
		MaxPrice:   points[0].Price,
	}
	if m.StartPrice != 0 {
		m.Change = null.FloatFrom(m.EndPrice/m.StartPrice - 1)
	}

	var sum float64
	for _, p := range points {
		sum += p.Price
		m.MinPrice = math.Min(m.MinPrice, p.Price)
		m.MaxPrice = math.Max(m.MaxPrice, p.Price)
	}
	mean := sum / float64(len(points))

	var squares float64
	for _, p := range points {
		squares += (p.Price - mean) * (p.Price - mean)
	}
	m.Volatility = math.Sqrt(squares / float64(len(points)-1))
	return m, true
}

// Comparison is the data behind the comparison view
type Comparison struct {
	Series  []NormalizedSeries   `json:"series"`
	Metrics []PerformanceMetrics `json:"metrics"`
}

// BuildComparison normalizes every non-empty commodity and computes its metrics
func BuildComparison(commodities []string, points map[string][]models.PricePoint) Comparison {
	comparison := Comparison{
		Series:  []NormalizedSeries{},
		Metrics: []PerformanceMetrics{},
	}
	for _, commodity := range commodities {
		pts := points[commodity]
		if len(pts) == 0 {
			continue
		}
		comparison.Series = append(comparison.Series, Normalize(commodity, pts))
		if m, ok := ComputeMetrics(commodity, pts); ok {
			comparison.Metrics = append(comparison.Metrics, m)
		}
	}
	return comparison
}

// MonthlyReturnRow holds the month-over-month returns of one commodity, aligned with MonthlyReturns.Months
type MonthlyReturnRow struct {
	Commodity string       `json:"commodity"`
	Returns   []null.Float `json:"returns"`
}

// MonthlyReturns is the monthly returns heatmap
type MonthlyReturns struct {
	Months []string           `json:"months"`
	Rows   []MonthlyReturnRow `json:"rows"`
}

// BuildMonthlyReturns computes month-over-month returns from the last price of
// each month. A month follows the most recent earlier month that has a price;
// the first month of a commodity and months without prices are absent.
func BuildMonthlyReturns(commodities []string, points map[string][]models.PricePoint) MonthlyReturns {
	monthEnds := make(map[string]map[string]float64, len(commodities))
	monthSet := make(map[string]bool)

	for _, commodity := range commodities {
		ends := make(map[string]float64)
		for _, p := range points[commodity] {
			key := now.With(p.Date).BeginningOfMonth().Format(MonthLayout)
			ends[key] = p.Price
			monthSet[key] = true
		}
		monthEnds[commodity] = ends
	}

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Strings(months)

	result := MonthlyReturns{
		Months: months,
		Rows:   make([]MonthlyReturnRow, 0, len(commodities)),
	}
	for _, commodity := range commodities {
		ends := monthEnds[commodity]
		row := MonthlyReturnRow{
			Commodity: commodity,
			Returns:   make([]null.Float, len(months)),
		}

		var (
			prev    float64
			hasPrev bool
		)
		for i, m := range months {
			price, ok := ends[m]
			if !ok {
				continue
			}
			if hasPrev && prev != 0 {
				row.Returns[i] = null.FloatFrom(price/prev - 1)
			}
			prev, hasPrev = price, true
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

// CorrelationMatrix holds the Pearson correlation of every commodity pair
type CorrelationMatrix struct {
	Commodities []string       `json:"commodities"`
	Values      [][]null.Float `json:"values"`
}

// BuildCorrelation correlates prices on the dates both commodities share.
// Points must be sorted by date with at most one per day.
// A pair with fewer than two common dates or a constant price is absent.
func BuildCorrelation(commodities []string, points map[string][]models.PricePoint) CorrelationMatrix {
	byDate := make([]map[time.Time]float64, len(commodities))
	for i, commodity := range commodities {
		byDate[i] = make(map[time.Time]float64, len(points[commodity]))
		for _, p := range points[commodity] {
			byDate[i][models.Day(p.Date)] = p.Price
		}
	}

	matrix := CorrelationMatrix{
		Commodities: commodities,
		Values:      make([][]null.Float, len(commodities)),
	}
	for i := range commodities {
		matrix.Values[i] = make([]null.Float, len(commodities))
	}

	for i := range commodities {
		for j := i; j < len(commodities); j++ {
			var xs, ys []float64
			for _, p := range points[commodities[i]] {
				if y, ok := byDate[j][models.Day(p.Date)]; ok {
					xs = append(xs, p.Price)
					ys = append(ys, y)
				}
			}
			r := Pearson(xs, ys)
			matrix.Values[i][j] = r
			matrix.Values[j][i] = r
		}
	}
	return matrix
}

// Pearson returns the correlation coefficient of two equally long samples
func Pearson(xs, ys []float64) null.Float {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return null.Float{}
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return null.Float{}
	}

	r := cov / math.Sqrt(varX*varY)
	return null.FloatFrom(math.Max(-1, math.Min(1, r)))
}
