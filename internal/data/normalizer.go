package data

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

var (
	// ErrMissingColumn is returned when a required column is absent from a header
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidRow is returned when a row cannot be parsed
	ErrInvalidRow = errors.New("invalid row")
)

// Accepted date layouts, tried in order. Day-first for the slash form.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02-01-2006",
}

// Column aliases, keyed by normalized header name
var columnAliases = map[string]string{
	"commodities":  columnCommodity,
	"commodity":    columnCommodity,
	"commodity_id": columnCommodity,
	"date":         columnDate,
	"price":        columnPrice,
	"close":        columnPrice,
	"sector":       columnSector,
	"nation":       columnNation,
	"country":      columnNation,
	"change_type":  columnChangeType,
	"impact":       columnImpact,
}

const (
	columnCommodity  = "commodity"
	columnDate       = "date"
	columnPrice      = "price"
	columnSector     = "sector"
	columnNation     = "nation"
	columnChangeType = "change_type"
	columnImpact     = "impact"
)

// NormalizeHeader lowercases a header cell and folds spaces/dashes to underscores
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

// canonicalColumn maps a raw header cell to its canonical column name (or "" for extra columns)
func canonicalColumn(h string) string {
	return columnAliases[NormalizeHeader(h)]
}

// NormalizeDate parses a calendar date in any accepted layout
func NormalizeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDate, s)
}

// NormalizePrice parses a non-negative price, accepting thousands separators
func NormalizePrice(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidPrice, s)
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidPrice, s)
	}
	return price, nil
}

// NormalizeCommodity trims a commodity identifier
func NormalizeCommodity(s string) string {
	return strings.TrimSpace(s)
}
