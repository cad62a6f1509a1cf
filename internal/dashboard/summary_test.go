package dashboard

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(commodity string, week, month null.Float) models.AnalysisRow {
	return models.AnalysisRow{CommodityID: commodity, PctWeek: week, PctMonth: month}
}

func TestSummarize(t *testing.T) {
	rows := []models.AnalysisRow{
		row("Gold", null.FloatFrom(0.03), null.FloatFrom(0.10)),
		row("Silver", null.FloatFrom(-0.05), null.FloatFrom(0.12)),
		row("Tin", null.Float{}, null.Float{}),
		row("Copper", null.FloatFrom(0.02), null.FloatFrom(-0.01)),
	}

	summary := Summarize(rows)

	require.NotNil(t, summary.MostBullish)
	assert.Equal(t, "Gold", summary.MostBullish.Commodity)
	assert.InDelta(t, 0.03, summary.MostBullish.Change, 1e-12)

	require.NotNil(t, summary.MostBearish)
	assert.Equal(t, "Silver", summary.MostBearish.Commodity)

	require.True(t, summary.AvgWeeklyChange.Valid)
	assert.InDelta(t, 0.0, summary.AvgWeeklyChange.Float64, 1e-12, "absent changes are not averaged as zero")

	require.NotNil(t, summary.MonthlyLeader)
	assert.Equal(t, "Silver", summary.MonthlyLeader.Commodity)
	assert.Equal(t, 4, summary.Commodities)
}

func TestSummarize_TiesGoToFirstRow(t *testing.T) {
	rows := []models.AnalysisRow{
		row("Gold", null.FloatFrom(0.01), null.FloatFrom(0.01)),
		row("Silver", null.FloatFrom(0.01), null.FloatFrom(0.01)),
	}

	summary := Summarize(rows)
	assert.Equal(t, "Gold", summary.MostBullish.Commodity)
	assert.Equal(t, "Gold", summary.MostBearish.Commodity)
	assert.Equal(t, "Gold", summary.MonthlyLeader.Commodity)
}

func TestSummarize_AllAbsent(t *testing.T) {
	summary := Summarize([]models.AnalysisRow{row("Tin", null.Float{}, null.Float{})})

	assert.Nil(t, summary.MostBullish)
	assert.Nil(t, summary.MostBearish)
	assert.Nil(t, summary.MonthlyLeader)
	assert.False(t, summary.AvgWeeklyChange.Valid)
}
