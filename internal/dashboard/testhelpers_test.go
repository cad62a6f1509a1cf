package dashboard

import (
	"context"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func point(commodity, date string, price float64) models.PricePoint {
	return models.PricePoint{CommodityID: commodity, Date: day(date), Price: price}
}

func testTables() *models.Tables {
	return &models.Tables{
		Prices: []models.PricePoint{
			point("Gold", "2024-03-01", 1900),
			point("Gold", "2024-03-08", 1950),
			point("Silver", "2024-03-01", 20),
			point("Silver", "2024-03-08", 19),
			point("Brent", "2024-03-01", 80),
			point("Brent", "2024-03-08", 80),
		},
		Metadata: []models.CommodityMeta{
			{CommodityID: "Gold", Sector: "Metals", Impact: "High"},
			{CommodityID: "Silver", Sector: "Metals", Impact: "Low"},
			{CommodityID: "Tin", Sector: "Metals", Impact: "Medium"},
			{CommodityID: "Brent", Sector: "Energy", Impact: "High"},
		},
		Fingerprint: "v1",
	}
}

// fakeLoader serves fixed tables and counts calls
type fakeLoader struct {
	tables   *models.Tables
	reloaded *models.Tables
	err      error
	loads    int
	reloads  int
}

func (l *fakeLoader) Load(ctx context.Context) (*models.Tables, error) {
	l.loads++
	if l.err != nil {
		return nil, l.err
	}
	return l.tables, nil
}

func (l *fakeLoader) Reload(ctx context.Context) (*models.Tables, error) {
	l.reloads++
	if l.err != nil {
		return nil, l.err
	}
	if l.reloaded != nil {
		return l.reloaded, nil
	}
	return l.tables, nil
}
