package pricechange

import (
	"testing"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWindow_AverageBoundary(t *testing.T) {
	current := day("2024-03-31")
	s := NewSeries([]models.PricePoint{
		{CommodityID: "Gold", Date: current.AddDate(0, 0, -30), Price: 1000}, // outside
		{CommodityID: "Gold", Date: current.AddDate(0, 0, -29), Price: 10},   // inside
		{CommodityID: "Gold", Date: current, Price: 20},
	}, LastWins)

	stats := ComputeWindow(s, current)
	require.True(t, stats.Avg30D.Valid)
	assert.InDelta(t, 15.0, stats.Avg30D.Float64, 1e-12)
}

func TestComputeWindow_RangeBoundary(t *testing.T) {
	current := day("2024-12-31")
	s := NewSeries([]models.PricePoint{
		{CommodityID: "Gold", Date: current.AddDate(0, 0, -365), Price: 5000}, // outside
		{CommodityID: "Gold", Date: current.AddDate(0, 0, -364), Price: 50},   // inside
		{CommodityID: "Gold", Date: current.AddDate(0, 0, -100), Price: 300},
		{CommodityID: "Gold", Date: current, Price: 100},
	}, LastWins)

	stats := ComputeWindow(s, current)
	require.True(t, stats.High52W.Valid)
	require.True(t, stats.Low52W.Valid)
	assert.Equal(t, 300.0, stats.High52W.Float64)
	assert.Equal(t, 50.0, stats.Low52W.Float64)
	// only the current point falls in the 30 day window
	assert.Equal(t, 100.0, stats.Avg30D.Float64)
}

func TestComputeWindow_Empty(t *testing.T) {
	stats := ComputeWindow(NewSeries(nil, LastWins), day("2024-01-01"))
	assert.False(t, stats.Avg30D.Valid)
	assert.False(t, stats.High52W.Valid)
	assert.False(t, stats.Low52W.Valid)
}
