package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	calculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboard_calculation_duration_seconds",
			Help:    "Time taken to compute the analysis table",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
	)

	calculationRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_calculation_rows",
			Help: "Number of rows in the last computed analysis table",
		},
	)

	absentRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashboard_absent_change_ratio",
			Help: "Share of rows in the last analysis table without a percentage change",
		},
		[]string{"horizon"},
	)

	reloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_table_reloads_total",
			Help: "Total number of input table reloads",
		},
		[]string{"trigger", "status"}, // trigger: "manual" or "watcher"
	)
)
