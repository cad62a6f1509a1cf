package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// DateLayout is the canonical calendar-date layout used across the API
const DateLayout = "2006-01-02"

// PricePoint is a single recorded price of a commodity on a trading day
type PricePoint struct {
	CommodityID string    `json:"commodity"`
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
}

// Validate validates a PricePoint
func (p *PricePoint) Validate() error {
	if p.CommodityID == "" {
		return ErrInvalidCommodity
	}
	if p.Date.IsZero() {
		return ErrInvalidDate
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// CommodityMeta holds the descriptive fields of a commodity
type CommodityMeta struct {
	CommodityID string            `json:"commodity"`
	Sector      string            `json:"sector"`
	Nation      string            `json:"nation"`
	ChangeType  string            `json:"change_type"`
	Impact      string            `json:"impact"`
	Fields      map[string]string `json:"fields,omitempty"` // any further descriptive columns
}

// Validate validates a CommodityMeta
func (m *CommodityMeta) Validate() error {
	if m.CommodityID == "" {
		return ErrInvalidCommodity
	}
	return nil
}

// AnalysisRow is the derived performance row of one commodity at a reference date.
// Numeric fields that cannot be computed are left invalid and marshal as null.
type AnalysisRow struct {
	CommodityID string            `json:"commodity"`
	Sector      string            `json:"sector"`
	Nation      string            `json:"nation"`
	ChangeType  string            `json:"change_type"`
	Impact      string            `json:"impact"`
	Fields      map[string]string `json:"fields,omitempty"`

	PriceDate    null.Time  `json:"price_date"`
	CurrentPrice null.Float `json:"current_price"`
	Avg30D       null.Float `json:"avg_30d"`
	High52W      null.Float `json:"high_52w"`
	Low52W       null.Float `json:"low_52w"`
	PctDay       null.Float `json:"pct_day"`
	PctWeek      null.Float `json:"pct_week"`
	PctMonth     null.Float `json:"pct_month"`
	PctQuarter   null.Float `json:"pct_quarter"`
	PctYTD       null.Float `json:"pct_ytd"`
}

// NewAnalysisRow creates a row carrying only the descriptive fields of meta
func NewAnalysisRow(meta CommodityMeta) AnalysisRow {
	return AnalysisRow{
		CommodityID: meta.CommodityID,
		Sector:      meta.Sector,
		Nation:      meta.Nation,
		ChangeType:  meta.ChangeType,
		Impact:      meta.Impact,
		Fields:      meta.Fields,
	}
}

// Pct returns the percentage change for a horizon
func (r *AnalysisRow) Pct(h Horizon) null.Float {
	switch h {
	case HorizonDay:
		return r.PctDay
	case HorizonWeek:
		return r.PctWeek
	case HorizonMonth:
		return r.PctMonth
	case HorizonQuarter:
		return r.PctQuarter
	case HorizonYTD:
		return r.PctYTD
	}
	return null.Float{}
}

// SetPct sets the percentage change for a horizon
func (r *AnalysisRow) SetPct(h Horizon, v null.Float) {
	switch h {
	case HorizonDay:
		r.PctDay = v
	case HorizonWeek:
		r.PctWeek = v
	case HorizonMonth:
		r.PctMonth = v
	case HorizonQuarter:
		r.PctQuarter = v
	case HorizonYTD:
		r.PctYTD = v
	}
}

// Tables is the pair of loaded input tables plus the fingerprint of their sources
type Tables struct {
	Prices      []PricePoint    `json:"prices"`
	Metadata    []CommodityMeta `json:"metadata"`
	Fingerprint string          `json:"fingerprint"`
}

// DateBounds returns the earliest and latest price date. ok is false when there are no prices.
func (t *Tables) DateBounds() (minDate, maxDate time.Time, ok bool) {
	for i, p := range t.Prices {
		if i == 0 || p.Date.Before(minDate) {
			minDate = p.Date
		}
		if i == 0 || p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}
	return minDate, maxDate, len(t.Prices) > 0
}

// Day truncates t to its calendar date at UTC midnight
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD calendar date
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
