package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/service"
	"github.com/oozye1/florist-sub000/pkg/httputil"
)

// AnalyticsHandler handles HTTP requests for the back-office dashboard.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	logger  *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(svc *service.AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: svc,
		logger:  logger,
	}
}

// Summary handles GET /api/v1/admin/analytics/summary
// Compares the requested metric against the immediately preceding period.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = domain.Period7Days
	}
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = domain.MetricRevenue
	}

	comparison, err := h.service.Compare(r.Context(), period, metric)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comparison})
}

// Revenue handles GET /api/v1/admin/analytics/revenue
// Returns the bucketed revenue series for charting.
func (h *AnalyticsHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = domain.Period7Days
	}

	series, err := h.service.RevenueSeries(r.Context(), period)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: series})
}

// TopProducts handles GET /api/v1/admin/analytics/top-products
func (h *AnalyticsHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = domain.Period30Days
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "limit must be a valid integer between 1 and 100"},
			})
			return
		}
		limit = n
	}

	products, err := h.service.TopProducts(r.Context(), period, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// LowStock handles GET /api/v1/admin/analytics/low-stock
func (h *AnalyticsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold := 0
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "threshold must be a valid positive integer"},
			})
			return
		}
		threshold = n
	}

	products, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}
