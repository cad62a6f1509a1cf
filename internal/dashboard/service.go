package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/internal/pricechange"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
)

// TableLoader provides the input tables
type TableLoader interface {
	Load(ctx context.Context) (*models.Tables, error)
	Reload(ctx context.Context) (*models.Tables, error)
}

// Options holds service configuration
type Options struct {
	DuplicatePolicy     pricechange.DuplicatePolicy
	MaxChartCommodities int
}

// AnalysisQuery selects the reference date and the filters of the analysis table
type AnalysisQuery struct {
	Date        time.Time // zero selects the latest price date
	Sectors     []string
	Commodities []string
}

// AnalysisResult is the analysis table at a reference date
type AnalysisResult struct {
	Date        time.Time            `json:"date"`
	Fingerprint string               `json:"fingerprint"`
	Rows        []models.AnalysisRow `json:"rows"`
}

// Service serves the dashboard views from the current input tables
type Service struct {
	loader     TableLoader
	calculator *pricechange.Calculator
	opts       Options

	mu     sync.RWMutex
	tables *models.Tables
	series map[string]*pricechange.Series
}

// NewService creates a new dashboard service
func NewService(loader TableLoader, calculator *pricechange.Calculator, opts Options) *Service {
	if opts.MaxChartCommodities < 1 {
		opts.MaxChartCommodities = 10
	}
	return &Service{
		loader:     loader,
		calculator: calculator,
		opts:       opts,
	}
}

// Tables returns the current tables, loading them on first use
func (s *Service) Tables(ctx context.Context) (*models.Tables, error) {
	s.mu.RLock()
	tables := s.tables
	s.mu.RUnlock()
	if tables != nil {
		return tables, nil
	}

	tables, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.Update(tables)
	return tables, nil
}

// Reload forces a reload of the input tables
func (s *Service) Reload(ctx context.Context) (*models.Tables, error) {
	tables, err := s.loader.Reload(ctx)
	if err != nil {
		reloadsTotal.WithLabelValues("manual", "error").Inc()
		return nil, err
	}
	reloadsTotal.WithLabelValues("manual", "success").Inc()
	s.Update(tables)
	return tables, nil
}

// OnSourceChanged is the watcher listener: it swaps in the reloaded tables
func (s *Service) OnSourceChanged(tables *models.Tables) {
	reloadsTotal.WithLabelValues("watcher", "success").Inc()
	s.Update(tables)
}

// Update swaps in freshly loaded tables
func (s *Service) Update(tables *models.Tables) {
	if tables == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tables != nil && s.tables.Fingerprint == tables.Fingerprint {
		return
	}
	s.tables = tables
	s.series = nil

	logger.Info("Dashboard tables updated",
		logger.String("fingerprint", tables.Fingerprint),
		logger.Int("prices", len(tables.Prices)),
		logger.Int("commodities", len(tables.Metadata)),
	)
}

// Analyze computes the analysis table for the query
func (s *Service) Analyze(ctx context.Context, q AnalysisQuery) (*AnalysisResult, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}

	ref := q.Date
	if ref.IsZero() {
		ref = DefaultDate(tables)
	}
	ref = models.Day(ref)

	metadata := FilterMetadata(tables.Metadata, q.Sectors, q.Commodities)

	start := time.Now()
	rows, err := s.calculator.Calculate(tables.Prices, metadata, ref)
	if err != nil {
		return nil, err
	}
	calculationDuration.Observe(time.Since(start).Seconds())
	recordRows(rows)

	logger.Debug("Analysis computed",
		logger.Date("date", ref),
		logger.Int("rows", len(rows)),
		logger.Duration("duration", time.Since(start)),
	)

	return &AnalysisResult{
		Date:        ref,
		Fingerprint: tables.Fingerprint,
		Rows:        rows,
	}, nil
}

// Summary computes the key market metrics for the query
func (s *Service) Summary(ctx context.Context, q AnalysisQuery) (*MarketSummary, error) {
	result, err := s.Analyze(ctx, q)
	if err != nil {
		return nil, err
	}
	summary := Summarize(result.Rows)
	return &summary, nil
}

// Performance returns the performance chart of a horizon for the query
func (s *Service) Performance(ctx context.Context, q AnalysisQuery, h models.Horizon) (*PerformanceChart, error) {
	if !h.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidHorizon, h)
	}
	result, err := s.Analyze(ctx, q)
	if err != nil {
		return nil, err
	}
	chart := BuildPerformance(result.Rows, h)
	return &chart, nil
}

// Filters returns the filter options, narrowing commodities to the selected sectors
func (s *Service) Filters(ctx context.Context, sectors []string) (*FilterOptions, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	opts := BuildFilterOptions(tables, sectors)
	return &opts, nil
}

// Series returns the price charts of the selected commodities
func (s *Service) Series(ctx context.Context, q ChartQuery) ([]CommoditySeries, error) {
	q, points, err := s.chartPoints(ctx, q)
	if err != nil {
		return nil, err
	}

	result := make([]CommoditySeries, 0, len(q.Commodities))
	for _, commodity := range q.Commodities {
		series, err := BuildSeries(commodity, points[commodity], q.MovingAverages)
		if err != nil {
			return nil, fmt.Errorf("failed to build series for %s: %w", commodity, err)
		}
		result = append(result, series)
	}
	return result, nil
}

// Comparison returns the normalized comparison and the range metrics
func (s *Service) Comparison(ctx context.Context, q ChartQuery) (*Comparison, error) {
	q, points, err := s.chartPoints(ctx, q)
	if err != nil {
		return nil, err
	}
	comparison := BuildComparison(q.Commodities, points)
	return &comparison, nil
}

// MonthlyReturns returns the monthly returns heatmap
func (s *Service) MonthlyReturns(ctx context.Context, q ChartQuery) (*MonthlyReturns, error) {
	q, points, err := s.chartPoints(ctx, q)
	if err != nil {
		return nil, err
	}
	returns := BuildMonthlyReturns(q.Commodities, points)
	return &returns, nil
}

// Correlation returns the price correlation matrix
func (s *Service) Correlation(ctx context.Context, q ChartQuery) (*CorrelationMatrix, error) {
	q, points, err := s.chartPoints(ctx, q)
	if err != nil {
		return nil, err
	}
	matrix := BuildCorrelation(q.Commodities, points)
	return &matrix, nil
}

// chartPoints validates the query, fills in the default range and returns the
// in-range points of every selected commodity
func (s *Service) chartPoints(ctx context.Context, q ChartQuery) (ChartQuery, map[string][]models.PricePoint, error) {
	q.Commodities = dedupe(q.Commodities)
	if len(q.Commodities) == 0 {
		return q, nil, ErrNoCommodities
	}
	if len(q.Commodities) > s.opts.MaxChartCommodities {
		return q, nil, fmt.Errorf("%w: %d selected, at most %d allowed",
			ErrTooManyCommodities, len(q.Commodities), s.opts.MaxChartCommodities)
	}

	tables, err := s.Tables(ctx)
	if err != nil {
		return q, nil, err
	}

	latest := DefaultDate(tables)
	if q.End.IsZero() {
		q.End = latest
	}
	if q.Start.IsZero() {
		q.Start = q.End.AddDate(0, 0, -DefaultChartDays)
	}
	q.Start, q.End = models.Day(q.Start), models.Day(q.End)
	if q.Start.After(q.End) {
		return q, nil, ErrInvalidRange
	}

	series := s.seriesIndex(tables)
	points := make(map[string][]models.PricePoint, len(q.Commodities))
	for _, commodity := range q.Commodities {
		if cs, ok := series[commodity]; ok {
			points[commodity] = cs.Range(q.Start, q.End)
		}
	}
	return q, points, nil
}

// seriesIndex returns the per-commodity series of tables, built once per table version
func (s *Service) seriesIndex(tables *models.Tables) map[string]*pricechange.Series {
	s.mu.RLock()
	if s.series != nil && s.tables == tables {
		index := s.series
		s.mu.RUnlock()
		return index
	}
	s.mu.RUnlock()

	grouped := pricechange.GroupByCommodity(tables.Prices)
	index := make(map[string]*pricechange.Series, len(grouped))
	for commodity, points := range grouped {
		index[commodity] = pricechange.NewSeries(points, s.opts.DuplicatePolicy)
	}

	s.mu.Lock()
	if s.tables == tables {
		s.series = index
	}
	s.mu.Unlock()
	return index
}

func recordRows(rows []models.AnalysisRow) {
	calculationRows.Set(float64(len(rows)))
	if len(rows) == 0 {
		return
	}
	for _, h := range models.Horizons {
		absent := 0
		for i := range rows {
			if !rows[i].Pct(h).Valid {
				absent++
			}
		}
		absentRatio.WithLabelValues(string(h)).Set(float64(absent) / float64(len(rows)))
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
