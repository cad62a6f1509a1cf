package dashboard

import (
	"testing"

	"github.com/guregu/null/v6"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildPerformance(t *testing.T) {
	rows := []models.AnalysisRow{
		{CommodityID: "Silver", Impact: "Low", PctWeek: null.FloatFrom(-0.05)},
		{CommodityID: "Tin", Impact: "Medium"},
		{CommodityID: "Brent", Impact: "High", PctWeek: null.FloatFrom(0)},
		{CommodityID: "Gold", Impact: "High", PctWeek: null.FloatFrom(0.026)},
		{CommodityID: "Copper", PctWeek: null.FloatFrom(0.01)},
	}

	chart := BuildPerformance(rows, models.HorizonWeek)

	assert.Equal(t, models.HorizonWeek, chart.Horizon)
	assert.Equal(t, models.HorizonWeek.Label(), chart.Title)
	assert.Equal(t, []PerformanceBar{
		{Commodity: "Gold", Change: 0.026, Impact: "High"},
		{Commodity: "Copper", Change: 0.01},
		{Commodity: "Silver", Change: -0.05, Impact: "Low"},
	}, chart.Bars)
}

func TestBuildPerformance_Empty(t *testing.T) {
	chart := BuildPerformance(nil, models.HorizonYTD)
	assert.NotNil(t, chart.Bars)
	assert.Empty(t, chart.Bars)
}
