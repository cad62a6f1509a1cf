package dashboard

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

// FilterOptions lists the values offered by the dashboard filters
type FilterOptions struct {
	MinDate     null.Time `json:"min_date"`
	MaxDate     null.Time `json:"max_date"`
	Sectors     []string  `json:"sectors"`
	Commodities []string  `json:"commodities"`
}

// BuildFilterOptions returns the date bounds, every sector, and the
// commodities belonging to the selected sectors (all when none selected)
func BuildFilterOptions(tables *models.Tables, sectors []string) FilterOptions {
	opts := FilterOptions{
		Sectors:     []string{},
		Commodities: []string{},
	}

	if minDate, maxDate, ok := tables.DateBounds(); ok {
		opts.MinDate = null.TimeFrom(minDate)
		opts.MaxDate = null.TimeFrom(maxDate)
	}

	seenSector := make(map[string]bool)
	seenCommodity := make(map[string]bool)
	selected := toSet(sectors)
	for _, meta := range tables.Metadata {
		if !seenSector[meta.Sector] {
			seenSector[meta.Sector] = true
			opts.Sectors = append(opts.Sectors, meta.Sector)
		}
		if len(selected) > 0 && !selected[meta.Sector] {
			continue
		}
		if !seenCommodity[meta.CommodityID] {
			seenCommodity[meta.CommodityID] = true
			opts.Commodities = append(opts.Commodities, meta.CommodityID)
		}
	}

	sort.Strings(opts.Sectors)
	sort.Strings(opts.Commodities)
	return opts
}

// FilterMetadata keeps the commodities matching every non-empty selection
func FilterMetadata(metadata []models.CommodityMeta, sectors, commodities []string) []models.CommodityMeta {
	sectorSet := toSet(sectors)
	commoditySet := toSet(commodities)

	filtered := make([]models.CommodityMeta, 0, len(metadata))
	for _, meta := range metadata {
		if len(sectorSet) > 0 && !sectorSet[meta.Sector] {
			continue
		}
		if len(commoditySet) > 0 && !commoditySet[meta.CommodityID] {
			continue
		}
		filtered = append(filtered, meta)
	}
	return filtered
}

// DefaultDate returns the latest price date, or today when no prices are loaded
func DefaultDate(tables *models.Tables) time.Time {
	if _, maxDate, ok := tables.DateBounds(); ok {
		return maxDate
	}
	return models.Day(time.Now())
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
