package dashboard

import (
	"sort"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

// PerformanceBar is one bar of the performance chart
type PerformanceBar struct {
	Commodity string  `json:"commodity"`
	Change    float64 `json:"change"`
	Impact    string  `json:"impact"`
}

// PerformanceChart is the data behind the performance and impact chart of one horizon
type PerformanceChart struct {
	Horizon models.Horizon   `json:"horizon"`
	Title   string           `json:"title"`
	Bars    []PerformanceBar `json:"bars"`
}

// BuildPerformance keeps rows with a defined non-zero change for the horizon,
// sorted from best to worst
func BuildPerformance(rows []models.AnalysisRow, h models.Horizon) PerformanceChart {
	chart := PerformanceChart{
		Horizon: h,
		Title:   h.Label(),
		Bars:    []PerformanceBar{},
	}

	for i := range rows {
		change := rows[i].Pct(h)
		if !change.Valid || change.Float64 == 0 {
			continue
		}
		chart.Bars = append(chart.Bars, PerformanceBar{
			Commodity: rows[i].CommodityID,
			Change:    change.Float64,
			Impact:    rows[i].Impact,
		})
	}

	sort.SliceStable(chart.Bars, func(i, j int) bool {
		return chart.Bars[i].Change > chart.Bars[j].Change
	})
	return chart
}
