package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/service"
	"github.com/oozye1/florist-sub000/pkg/httputil"
	"github.com/oozye1/florist-sub000/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	zones   *domain.ZonePolicy
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, zones *domain.ZonePolicy, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		zones:   zones,
		logger:  logger,
	}
}

// QuoteRequest is the JSON request body for pricing the current cart.
type QuoteRequest struct {
	ZoneCode string `json:"zone_code"`
}

// Quote handles POST /api/v1/checkout/quote
// Prices the session's cart against a delivery zone without placing an order.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "session is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	quote, err := h.service.Quote(r.Context(), sessionID, req.ZoneCode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: quote})
}

// Checkout handles POST /api/v1/checkout
// Places an order from the session's cart.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "session is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.Checkout(r.Context(), sessionID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// ListDeliveryZones handles GET /api/v1/delivery-zones
// Returns the configured zones so the storefront can offer a choice.
func (h *CheckoutHandler) ListDeliveryZones(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.zones.Zones()})
}
