package dashboard

import (
	"context"
	"fmt"
	"testing"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/internal/pricechange"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(loader *fakeLoader) *Service {
	calculator := pricechange.NewCalculator(pricechange.Config{Workers: 2})
	return NewService(loader, calculator, Options{MaxChartCommodities: 10})
}

func TestService_Analyze(t *testing.T) {
	loader := &fakeLoader{tables: testTables()}
	svc := newTestService(loader)
	ctx := context.Background()

	result, err := svc.Analyze(ctx, AnalysisQuery{})
	require.NoError(t, err)

	assert.True(t, day("2024-03-08").Equal(result.Date), "defaults to the latest price date")
	assert.Equal(t, "v1", result.Fingerprint)
	require.Len(t, result.Rows, 4)
	assert.Equal(t, "Gold", result.Rows[0].CommodityID)
	assert.InDelta(t, 1950.0/1900.0-1, result.Rows[0].PctWeek.Float64, 1e-12)
	assert.False(t, result.Rows[2].CurrentPrice.Valid, "Tin has no history")

	_, err = svc.Analyze(ctx, AnalysisQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, loader.loads, "tables are loaded once")
}

func TestService_AnalyzeFiltered(t *testing.T) {
	svc := newTestService(&fakeLoader{tables: testTables()})

	result, err := svc.Analyze(context.Background(), AnalysisQuery{
		Date:    day("2024-03-01"),
		Sectors: []string{"Energy"},
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Brent", result.Rows[0].CommodityID)
	assert.Equal(t, 80.0, result.Rows[0].CurrentPrice.Float64)
	assert.False(t, result.Rows[0].PctWeek.Valid)
}

func TestService_LoadError(t *testing.T) {
	loader := &fakeLoader{err: fmt.Errorf("%w: disk gone", models.ErrSourceUnavailable)}
	svc := newTestService(loader)

	_, err := svc.Analyze(context.Background(), AnalysisQuery{})
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func TestService_SummaryAndPerformance(t *testing.T) {
	svc := newTestService(&fakeLoader{tables: testTables()})
	ctx := context.Background()

	summary, err := svc.Summary(ctx, AnalysisQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Gold", summary.MostBullish.Commodity)
	assert.Equal(t, "Silver", summary.MostBearish.Commodity)
	assert.Nil(t, summary.MonthlyLeader, "no history a month back")

	chart, err := svc.Performance(ctx, AnalysisQuery{}, models.HorizonWeek)
	require.NoError(t, err)
	require.Len(t, chart.Bars, 2, "zero and absent changes are dropped")
	assert.Equal(t, "Gold", chart.Bars[0].Commodity)
	assert.Equal(t, "Silver", chart.Bars[1].Commodity)

	_, err = svc.Performance(ctx, AnalysisQuery{}, models.Horizon("decade"))
	assert.ErrorIs(t, err, models.ErrInvalidHorizon)
}

func TestService_Filters(t *testing.T) {
	svc := newTestService(&fakeLoader{tables: testTables()})

	opts, err := svc.Filters(context.Background(), []string{"Metals"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gold", "Silver", "Tin"}, opts.Commodities)
}

func TestService_ReloadAndUpdate(t *testing.T) {
	next := testTables()
	next.Fingerprint = "v2"
	loader := &fakeLoader{tables: testTables(), reloaded: next}
	svc := newTestService(loader)
	ctx := context.Background()

	tables, err := svc.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", tables.Fingerprint)

	tables, err = svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", tables.Fingerprint)
	assert.Equal(t, 1, loader.reloads)

	third := testTables()
	third.Fingerprint = "v3"
	svc.OnSourceChanged(third)

	tables, err = svc.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v3", tables.Fingerprint)
}

func TestService_ChartValidation(t *testing.T) {
	svc := newTestService(&fakeLoader{tables: testTables()})
	ctx := context.Background()

	_, err := svc.Series(ctx, ChartQuery{})
	assert.ErrorIs(t, err, ErrNoCommodities)

	_, err = svc.Series(ctx, ChartQuery{
		Commodities: []string{"Gold"},
		Start:       day("2024-03-08"),
		End:         day("2024-03-01"),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)

	many := make([]string, 11)
	for i := range many {
		many[i] = fmt.Sprintf("C%d", i)
	}
	_, err = svc.Comparison(ctx, ChartQuery{Commodities: many})
	assert.ErrorIs(t, err, ErrTooManyCommodities)
}

func TestService_Charts(t *testing.T) {
	svc := newTestService(&fakeLoader{tables: testTables()})
	ctx := context.Background()
	q := ChartQuery{
		Commodities:    []string{"Gold", "Silver", "Gold"},
		MovingAverages: []indicator.MovingAverage{{Kind: indicator.KindSMA, Period: 2}},
	}

	series, err := svc.Series(ctx, q)
	require.NoError(t, err)
	require.Len(t, series, 2, "duplicate selections are ignored")
	require.Len(t, series[0].Points, 2, "default range covers the last weeks")
	assert.InDelta(t, 1925.0, series[0].Points[1].Averages["sma_2"].Float64, 1e-9)

	comparison, err := svc.Comparison(ctx, q)
	require.NoError(t, err)
	require.Len(t, comparison.Metrics, 2)
	assert.InDelta(t, -0.05, comparison.Metrics[1].Change.Float64, 1e-12)

	returns, err := svc.MonthlyReturns(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03"}, returns.Months)

	matrix, err := svc.Correlation(ctx, q)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, matrix.Values[0][1].Float64, 1e-12)
}
