package dashboard

import (
	"github.com/guregu/null/v6"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

// Mover is a commodity together with its percentage change
type Mover struct {
	Commodity string  `json:"commodity"`
	Change    float64 `json:"change"`
}

// MarketSummary holds the key market metrics of a set of analysis rows
type MarketSummary struct {
	MostBullish     *Mover     `json:"most_bullish"`
	MostBearish     *Mover     `json:"most_bearish"`
	AvgWeeklyChange null.Float `json:"avg_weekly_change"`
	MonthlyLeader   *Mover     `json:"monthly_leader"`
	Commodities     int        `json:"commodities"`
}

// Summarize computes the key market metrics. Absent changes are ignored;
// ties go to the earliest row.
func Summarize(rows []models.AnalysisRow) MarketSummary {
	summary := MarketSummary{Commodities: len(rows)}

	var (
		sum   float64
		count int
	)
	for _, row := range rows {
		if week := row.PctWeek; week.Valid {
			if summary.MostBullish == nil || week.Float64 > summary.MostBullish.Change {
				summary.MostBullish = &Mover{Commodity: row.CommodityID, Change: week.Float64}
			}
			if summary.MostBearish == nil || week.Float64 < summary.MostBearish.Change {
				summary.MostBearish = &Mover{Commodity: row.CommodityID, Change: week.Float64}
			}
			sum += week.Float64
			count++
		}
		if month := row.PctMonth; month.Valid {
			if summary.MonthlyLeader == nil || month.Float64 > summary.MonthlyLeader.Change {
				summary.MonthlyLeader = &Mover{Commodity: row.CommodityID, Change: month.Float64}
			}
		}
	}

	if count > 0 {
		summary.AvgWeeklyChange = null.FloatFrom(sum / float64(count))
	}
	return summary
}
