package indicator

import (
	"fmt"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// NewDailySeries converts daily price points into a techan time series with
// one candle per day. Points must be sorted by date with at most one per day.
func NewDailySeries(points []models.PricePoint) (*techan.TimeSeries, error) {
	series := techan.NewTimeSeries()

	for _, p := range points {
		timePeriod := techan.NewTimePeriod(models.Day(p.Date), 24*time.Hour)
		candle := techan.NewCandle(timePeriod)

		price := big.NewDecimal(p.Price)
		candle.OpenPrice = price
		candle.MaxPrice = price
		candle.MinPrice = price
		candle.ClosePrice = price

		if !series.AddCandle(candle) {
			return nil, fmt.Errorf("price on %s is out of order", p.Date.Format(models.DateLayout))
		}
	}

	return series, nil
}
