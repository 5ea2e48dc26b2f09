package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oozye1/florist-sub000/internal/repository"
	"github.com/oozye1/florist-sub000/internal/service"
	"github.com/oozye1/florist-sub000/pkg/httputil"
	"github.com/oozye1/florist-sub000/pkg/pagination"
	"github.com/oozye1/florist-sub000/pkg/validator"
)

// PromotionHandler handles HTTP requests for coupon and gift card endpoints.
type PromotionHandler struct {
	service *service.PromotionService
	logger  *slog.Logger
}

// NewPromotionHandler creates a new promotion HTTP handler.
func NewPromotionHandler(svc *service.PromotionService, logger *slog.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: svc,
		logger:  logger,
	}
}

// SetGiftCardActiveRequest is the JSON request body for toggling a gift card.
type SetGiftCardActiveRequest struct {
	Active bool `json:"active"`
}

// GiftCardBalanceResponse is the public balance view. It never exposes the
// recipient details held against the card.
type GiftCardBalanceResponse struct {
	Code     string `json:"code"`
	Balance  int64  `json:"balance"`
	IsActive bool   `json:"is_active"`
}

// --- Coupons ---

// CreateCoupon handles POST /api/v1/admin/coupons
func (h *PromotionHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.CreateCouponInput
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

	coupon, err := h.service.CreateCoupon(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: coupon})
}

// ListCoupons handles GET /api/v1/admin/coupons
func (h *PromotionHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.CouponFilter{Page: params.Page, PerPage: params.PerPage}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "active must be true or false"},
			})
			return
		}
		filter.Active = &active
	}

	coupons, total, err := h.service.ListCoupons(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(coupons, total, filter.Page, filter.PerPage))
}

// GetCoupon handles GET /api/v1/admin/coupons/{id}
func (h *PromotionHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	coupon, err := h.service.GetCoupon(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupon})
}

// UpdateCoupon handles PATCH /api/v1/admin/coupons/{id}
func (h *PromotionHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.UpdateCouponInput
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

	coupon, err := h.service.UpdateCoupon(r.Context(), id.String(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: coupon})
}

// --- Gift cards ---

// CreateGiftCard handles POST /api/v1/admin/gift-cards
func (h *PromotionHandler) CreateGiftCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.CreateGiftCardInput
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

	card, err := h.service.CreateGiftCard(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: card})
}

// ListGiftCards handles GET /api/v1/admin/gift-cards
func (h *PromotionHandler) ListGiftCards(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	filter := repository.GiftCardFilter{Page: params.Page, PerPage: params.PerPage}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "active must be true or false"},
			})
			return
		}
		filter.Active = &active
	}

	cards, total, err := h.service.ListGiftCards(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(cards, total, filter.Page, filter.PerPage))
}

// SetGiftCardActive handles PUT /api/v1/admin/gift-cards/{id}/active
func (h *PromotionHandler) SetGiftCardActive(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetGiftCardActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := h.service.SetGiftCardActive(r.Context(), id.String(), req.Active); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]bool{"active": req.Active}})
}

// GetGiftCardBalance handles GET /api/v1/gift-cards/{code}/balance
// Public: a shopper with the code can check the remaining balance.
func (h *PromotionHandler) GetGiftCardBalance(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "gift card code is required"},
		})
		return
	}

	card, err := h.service.GetGiftCard(r.Context(), code)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: GiftCardBalanceResponse{
		Code:     card.Code,
		Balance:  card.CurrentBalance,
		IsActive: card.IsActive,
	}})
}
