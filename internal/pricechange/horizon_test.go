package pricechange

import (
	"testing"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorDate(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		horizon models.Horizon
		want    string
	}{
		{"day", "2024-01-08", models.HorizonDay, "2024-01-07"},
		{"day across year", "2024-01-01", models.HorizonDay, "2023-12-31"},
		{"week", "2024-01-08", models.HorizonWeek, "2024-01-01"},
		{"month", "2024-05-15", models.HorizonMonth, "2024-04-15"},
		{"month clamps to leap february", "2024-03-31", models.HorizonMonth, "2024-02-29"},
		{"month clamps to february", "2023-03-31", models.HorizonMonth, "2023-02-28"},
		{"month clamps to 30 days", "2024-05-31", models.HorizonMonth, "2024-04-30"},
		{"month across year", "2024-01-15", models.HorizonMonth, "2023-12-15"},
		{"quarter", "2024-08-20", models.HorizonQuarter, "2024-05-20"},
		{"quarter clamps", "2024-05-31", models.HorizonQuarter, "2024-02-29"},
		{"quarter across year", "2024-02-10", models.HorizonQuarter, "2023-11-10"},
		{"ytd", "2024-06-15", models.HorizonYTD, "2023-12-31"},
		{"ytd on january first", "2024-01-01", models.HorizonYTD, "2023-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnchorDate(day(tt.ref), tt.horizon)
			require.NoError(t, err)
			assert.Equal(t, day(tt.want), got)
		})
	}
}

func TestAnchorDate_InvalidHorizon(t *testing.T) {
	_, err := AnchorDate(day("2024-01-01"), models.Horizon("decade"))
	assert.ErrorIs(t, err, models.ErrInvalidHorizon)
}

func TestPercentChange(t *testing.T) {
	got := PercentChange(105, 100)
	require.True(t, got.Valid)
	assert.InDelta(t, 0.05, got.Float64, 1e-12)

	got = PercentChange(95, 100)
	require.True(t, got.Valid)
	assert.InDelta(t, -0.05, got.Float64, 1e-12)

	got = PercentChange(100, 0)
	assert.False(t, got.Valid, "zero anchor must yield an absent change")
}
