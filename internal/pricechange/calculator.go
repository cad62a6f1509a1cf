package pricechange

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"golang.org/x/sync/errgroup"
)

// Config holds calculator configuration
type Config struct {
	// Workers bounds the number of commodities computed concurrently (<= 1 is sequential)
	Workers int
	// DuplicatePolicy resolves several prices for the same commodity and date
	DuplicatePolicy DuplicatePolicy
}

// Calculator derives AnalysisRows from a price history and commodity metadata.
// It holds no mutable state, so one instance can serve concurrent calls.
type Calculator struct {
	config Config
}

// NewCalculator creates a new calculator
func NewCalculator(config Config) *Calculator {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Calculator{config: config}
}

// CalculateTables is Calculate over a loaded pair of tables
func (c *Calculator) CalculateTables(tables *models.Tables, ref time.Time) ([]models.AnalysisRow, error) {
	if tables == nil {
		return nil, models.ErrSourceUnavailable
	}
	return c.Calculate(tables.Prices, tables.Metadata, ref)
}

// Calculate produces exactly one row per metadata entry, in metadata order.
// Missing history never fails the call; only a missing metadata table does.
func (c *Calculator) Calculate(prices []models.PricePoint, metadata []models.CommodityMeta, ref time.Time) ([]models.AnalysisRow, error) {
	if metadata == nil {
		return nil, models.ErrSourceUnavailable
	}

	byCommodity := GroupByCommodity(prices)
	rows := make([]models.AnalysisRow, len(metadata))

	if c.config.Workers == 1 {
		for i, meta := range metadata {
			rows[i] = c.analyze(meta, byCommodity[meta.CommodityID], ref)
		}
		return rows, nil
	}

	var g errgroup.Group
	g.SetLimit(c.config.Workers)
	for i := range metadata {
		g.Go(func() error {
			meta := metadata[i]
			rows[i] = c.analyze(meta, byCommodity[meta.CommodityID], ref)
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	return rows, nil
}

func (c *Calculator) analyze(meta models.CommodityMeta, points []models.PricePoint, ref time.Time) models.AnalysisRow {
	return AnalyzeSeries(meta, NewSeries(points, c.config.DuplicatePolicy), ref)
}

// AnalyzeSeries builds the row of one commodity from its series at reference date ref
func AnalyzeSeries(meta models.CommodityMeta, series *Series, ref time.Time) models.AnalysisRow {
	row := models.NewAnalysisRow(meta)
	ref = models.Day(ref)

	current, ok := series.AsOf(ref)
	if !ok {
		return row
	}

	row.PriceDate = null.TimeFrom(current.Date)
	row.CurrentPrice = null.FloatFrom(current.Price)

	stats := ComputeWindow(series, current.Date)
	row.Avg30D = stats.Avg30D
	row.High52W = stats.High52W
	row.Low52W = stats.Low52W

	for _, h := range models.Horizons {
		anchorDate, err := AnchorDate(ref, h)
		if err != nil {
			continue
		}
		anchor, ok := series.AsOf(anchorDate)
		if !ok {
			continue
		}
		row.SetPct(h, PercentChange(current.Price, anchor.Price))
	}

	return row
}

// GroupByCommodity splits prices per commodity, preserving input order within each commodity
func GroupByCommodity(prices []models.PricePoint) map[string][]models.PricePoint {
	grouped := make(map[string][]models.PricePoint)
	for _, p := range prices {
		grouped[p.CommodityID] = append(grouped[p.CommodityID], p)
	}
	return grouped
}
