package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/repository"
	"github.com/oozye1/florist-sub000/internal/service"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

func TestCreateCoupon_Success(t *testing.T) {
	repos, router := newHarness()

	repos.coupons.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Coupon) bool {
		return c.Code == "SUMMER10"
	})).Return(nil)

	body, _ := json.Marshal(service.CreateCouponInput{
		Code:          "summer10",
		DiscountType:  domain.DiscountTypePercentage,
		DiscountValue: 10,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminReq(http.MethodPost, "/api/v1/admin/coupons", body))

	assert.Equal(t, http.StatusCreated, rec.Code)
	repos.coupons.AssertExpectations(t)
}

func TestCreateCoupon_UnknownType(t *testing.T) {
	_, router := newHarness()

	body, _ := json.Marshal(service.CreateCouponInput{
		Code:          "SUMMER10",
		DiscountType:  "loyalty_points",
		DiscountValue: 10,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminReq(http.MethodPost, "/api/v1/admin/coupons", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCoupons_ActiveFilter(t *testing.T) {
	repos, router := newHarness()

	repos.coupons.On("List", mock.Anything, mock.MatchedBy(func(f repository.CouponFilter) bool {
		return f.Active != nil && *f.Active
	})).Return([]domain.Coupon{*sampleCoupon()}, 1, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminReq(http.MethodGet, "/api/v1/admin/coupons?active=true", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.coupons.AssertExpectations(t)
}

func TestListCoupons_InvalidActive(t *testing.T) {
	_, router := newHarness()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminReq(http.MethodGet, "/api/v1/admin/coupons?active=maybe", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCoupon_Success(t *testing.T) {
	repos, router := newHarness()

	repos.coupons.On("GetByID", mock.Anything, testCouponID).Return(sampleCoupon(), nil)
	repos.coupons.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Coupon) bool {
		return !c.IsActive
	})).Return(nil)

	inactive := false
	body, _ := json.Marshal(service.UpdateCouponInput{IsActive: &inactive})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminReq(http.MethodPatch, "/api/v1/admin/coupons/"+testCouponID, body))

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.coupons.AssertExpectations(t)
}

func TestCreateGiftCard_Success(t *testing.T) {
	repos, router := newHarness()

	repos.giftCards.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.GiftCard) bool {
		return g.InitialBalance == 5000 && g.IsActive
	})).Return(nil)

	body, _ := json.Marshal(service.CreateGiftCardInput{InitialBalance: 5000, RecipientName: "Rosa Bloom"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminReq(http.MethodPost, "/api/v1/admin/gift-cards", body))

	assert.Equal(t, http.StatusCreated, rec.Code)
	repos.giftCards.AssertExpectations(t)
}

func TestCreateGiftCard_ZeroBalance(t *testing.T) {
	_, router := newHarness()

	body, _ := json.Marshal(service.CreateGiftCardInput{InitialBalance: 0})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminReq(http.MethodPost, "/api/v1/admin/gift-cards", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestSetGiftCardActive_Success(t *testing.T) {
	repos, router := newHarness()

	repos.giftCards.On("SetActive", mock.Anything, testGiftCardID, false).Return(nil)

	body, _ := json.Marshal(SetGiftCardActiveRequest{Active: false})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminReq(http.MethodPut, "/api/v1/admin/gift-cards/"+testGiftCardID+"/active", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	repos.giftCards.AssertExpectations(t)
}

func TestGetGiftCardBalance_Public(t *testing.T) {
	repos, router := newHarness()

	repos.giftCards.On("GetByCode", mock.Anything, "GIFT-AAAA-BBBB-CCCC").Return(sampleGiftCard(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gift-cards/GIFT-AAAA-BBBB-CCCC/balance", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data GiftCardBalanceResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(3000), resp.Data.Balance)
	assert.True(t, resp.Data.IsActive)
}

func TestGetGiftCardBalance_UnknownCode(t *testing.T) {
	repos, router := newHarness()

	repos.giftCards.On("GetByCode", mock.Anything, "GIFT-XXXX-XXXX-XXXX").
		Return(nil, apperrors.NotFound("gift card", "GIFT-XXXX-XXXX-XXXX"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gift-cards/GIFT-XXXX-XXXX-XXXX/balance", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
