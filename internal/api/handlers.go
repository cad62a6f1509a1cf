package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/commodity-dashboard/internal/dashboard"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/indicator"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
)

// DefaultHorizon is used by the performance endpoint when no horizon is given
const DefaultHorizon = models.HorizonWeek

// DashboardHandler serves the dashboard views
type DashboardHandler struct {
	service *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{
		service: service,
	}
}

// RegisterRoutes registers the dashboard endpoints under /api/v1
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	v1 := router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/analysis", h.GetAnalysis).Methods("GET")
	v1.HandleFunc("/analysis/summary", h.GetSummary).Methods("GET")
	v1.HandleFunc("/analysis/performance", h.GetPerformance).Methods("GET")
	v1.HandleFunc("/filters", h.GetFilters).Methods("GET")

	v1.HandleFunc("/charts/series", h.GetSeries).Methods("GET")
	v1.HandleFunc("/charts/comparison", h.GetComparison).Methods("GET")
	v1.HandleFunc("/charts/monthly-returns", h.GetMonthlyReturns).Methods("GET")
	v1.HandleFunc("/charts/correlation", h.GetCorrelation).Methods("GET")

	v1.HandleFunc("/reload", h.Reload).Methods("POST")
}

// GetAnalysis handles GET /api/v1/analysis
func (h *DashboardHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	query, err := parseAnalysisQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Analyze(r.Context(), query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":        result.Date.Format(models.DateLayout),
		"fingerprint": result.Fingerprint,
		"rows":        result.Rows,
		"count":       len(result.Rows),
	})
}

// GetSummary handles GET /api/v1/analysis/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	query, err := parseAnalysisQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.Summary(r.Context(), query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetPerformance handles GET /api/v1/analysis/performance
func (h *DashboardHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	query, err := parseAnalysisQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	horizon := DefaultHorizon
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		horizon, err = models.ParseHorizon(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid horizon: "+raw)
			return
		}
	}

	chart, err := h.service.Performance(r.Context(), query, horizon)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, chart)
}

// GetFilters handles GET /api/v1/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.service.Filters(r.Context(), queryList(r, "sector"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, filters)
}

// GetSeries handles GET /api/v1/charts/series
func (h *DashboardHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	query, err := parseChartQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.service.Series(r.Context(), query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"series": series,
		"count":  len(series),
	})
}

// GetComparison handles GET /api/v1/charts/comparison
func (h *DashboardHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	query, err := parseChartQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	comparison, err := h.service.Comparison(r.Context(), query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, comparison)
}

// GetMonthlyReturns handles GET /api/v1/charts/monthly-returns
func (h *DashboardHandler) GetMonthlyReturns(w http.ResponseWriter, r *http.Request) {
	query, err := parseChartQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	returns, err := h.service.MonthlyReturns(r.Context(), query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, returns)
}

// GetCorrelation handles GET /api/v1/charts/correlation
func (h *DashboardHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	query, err := parseChartQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	matrix, err := h.service.Correlation(r.Context(), query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, matrix)
}

// Reload handles POST /api/v1/reload
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.Reload(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	logger.WithContext(r.Context()).Info("Tables reloaded on request",
		logger.String("fingerprint", tables.Fingerprint),
		logger.String("user_id", UserID(r.Context())),
	)

	response := map[string]interface{}{
		"fingerprint": tables.Fingerprint,
		"prices":      len(tables.Prices),
		"commodities": len(tables.Metadata),
	}
	if minDate, maxDate, ok := tables.DateBounds(); ok {
		response["min_date"] = minDate.Format(models.DateLayout)
		response["max_date"] = maxDate.Format(models.DateLayout)
	}
	respondWithJSON(w, http.StatusOK, response)
}

// handleError maps service errors to HTTP status codes
func (h *DashboardHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error("Request failed",
			logger.String("path", r.URL.Path),
			logger.ErrorField(err),
		)
		logger.CountError("api", "request_failed")
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	respondWithError(w, status, message)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrInvalidRange),
		errors.Is(err, dashboard.ErrNoCommodities),
		errors.Is(err, dashboard.ErrTooManyCommodities),
		errors.Is(err, models.ErrInvalidHorizon),
		errors.Is(err, models.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseAnalysisQuery(r *http.Request) (dashboard.AnalysisQuery, error) {
	date, err := queryDate(r, "date")
	if err != nil {
		return dashboard.AnalysisQuery{}, err
	}
	return dashboard.AnalysisQuery{
		Date:        date,
		Sectors:     queryList(r, "sector"),
		Commodities: queryList(r, "commodity"),
	}, nil
}

func parseChartQuery(r *http.Request) (dashboard.ChartQuery, error) {
	start, err := queryDate(r, "start")
	if err != nil {
		return dashboard.ChartQuery{}, err
	}
	end, err := queryDate(r, "end")
	if err != nil {
		return dashboard.ChartQuery{}, err
	}

	var averages []indicator.MovingAverage
	for _, raw := range queryList(r, "ma") {
		ma, err := indicator.ParseMovingAverage(raw)
		if err != nil {
			return dashboard.ChartQuery{}, err
		}
		averages = append(averages, ma)
	}

	return dashboard.ChartQuery{
		Commodities:    queryList(r, "commodity"),
		Start:          start,
		End:            end,
		MovingAverages: averages,
	}, nil
}

// queryList returns the values of a repeatable, comma separated query parameter
func queryList(r *http.Request, key string) []string {
	var values []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

// queryDate parses a YYYY-MM-DD query parameter. A missing parameter yields the zero time.
func queryDate(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := models.ParseDay(raw)
	if err != nil {
		return time.Time{}, errors.New("invalid " + key + ": expected YYYY-MM-DD, got " + raw)
	}
	return date, nil
}
