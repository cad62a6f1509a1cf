package pricechange

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

// DuplicatePolicy decides which point survives when a commodity has several
// prices on the same date. Order is the order in which points were supplied.
type DuplicatePolicy int

const (
	// LastWins keeps the last point seen for a date
	LastWins DuplicatePolicy = iota
	// FirstWins keeps the first point seen for a date
	FirstWins
)

// String returns the policy name
func (p DuplicatePolicy) String() string {
	if p == FirstWins {
		return "first"
	}
	return "last"
}

// ParseDuplicatePolicy parses "first" or "last" (the default for an empty string)
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last", "last_wins":
		return LastWins, nil
	case "first", "first_wins":
		return FirstWins, nil
	}
	return LastWins, fmt.Errorf("unknown duplicate policy %q", s)
}

// Series is the date-ordered price history of one commodity with at most one point per date
type Series struct {
	points []models.PricePoint
}

// NewSeries builds a series from points in any order. Dates are truncated to
// calendar days before duplicates are resolved with policy.
func NewSeries(points []models.PricePoint, policy DuplicatePolicy) *Series {
	sorted := make([]models.PricePoint, len(points))
	for i, p := range points {
		p.Date = models.Day(p.Date)
		sorted[i] = p
	}

	// Stable sort keeps input order inside a date, which the policy relies on
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	deduped := make([]models.PricePoint, 0, len(sorted))
	for _, p := range sorted {
		n := len(deduped)
		if n > 0 && deduped[n-1].Date.Equal(p.Date) {
			if policy == LastWins {
				deduped[n-1] = p
			}
			continue
		}
		deduped = append(deduped, p)
	}

	return &Series{points: deduped}
}

// Len returns the number of distinct dates in the series
func (s *Series) Len() int {
	return len(s.points)
}

// Points returns the ordered points. The slice must not be modified.
func (s *Series) Points() []models.PricePoint {
	return s.points
}

// AsOf returns the most recent point dated on or before t.
// ok is false when the series is empty or starts after t.
func (s *Series) AsOf(t time.Time) (point models.PricePoint, ok bool) {
	t = models.Day(t)
	idx := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Date.After(t)
	})
	if idx == 0 {
		return models.PricePoint{}, false
	}
	return s.points[idx-1], true
}

// Range returns the points dated within [from, to], both ends inclusive
func (s *Series) Range(from, to time.Time) []models.PricePoint {
	from, to = models.Day(from), models.Day(to)
	if to.Before(from) {
		return nil
	}
	start := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Date.Before(from)
	})
	end := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Date.After(to)
	})
	return s.points[start:end]
}
