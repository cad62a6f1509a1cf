package models

import "strings"

// Horizon is a named lookback period for percentage changes
type Horizon string

const (
	HorizonDay     Horizon = "day"
	HorizonWeek    Horizon = "week"
	HorizonMonth   Horizon = "month"
	HorizonQuarter Horizon = "quarter"
	HorizonYTD     Horizon = "ytd"
)

// Horizons lists every horizon in display order
var Horizons = []Horizon{HorizonDay, HorizonWeek, HorizonMonth, HorizonQuarter, HorizonYTD}

// Label returns the human readable chart label of the horizon
func (h Horizon) Label() string {
	switch h {
	case HorizonDay:
		return "Daily Performance"
	case HorizonWeek:
		return "Weekly Performance"
	case HorizonMonth:
		return "Monthly Performance"
	case HorizonQuarter:
		return "Quarterly Performance"
	case HorizonYTD:
		return "YTD Performance"
	}
	return string(h)
}

// IsValid returns true if h is a known horizon
func (h Horizon) IsValid() bool {
	for _, known := range Horizons {
		if h == known {
			return true
		}
	}
	return false
}

// ParseHorizon parses a horizon name, case-insensitively
func ParseHorizon(s string) (Horizon, error) {
	h := Horizon(strings.ToLower(strings.TrimSpace(s)))
	if !h.IsValid() {
		return "", ErrInvalidHorizon
	}
	return h, nil
}
