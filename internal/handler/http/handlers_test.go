package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	assistantmock "github.com/oozye1/florist-sub000/internal/assistant/mock"
	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/event"
	paymentmock "github.com/oozye1/florist-sub000/internal/payment/mock"
	"github.com/oozye1/florist-sub000/internal/repository"
	"github.com/oozye1/florist-sub000/internal/service"
	"github.com/oozye1/florist-sub000/pkg/health"
	"github.com/oozye1/florist-sub000/pkg/httputil"
	pkgkafka "github.com/oozye1/florist-sub000/pkg/kafka"
)

const (
	testAdminToken = "test-admin-token"
	testSessionID  = "sess-abc123"
	testProductID  = "550e8400-e29b-41d4-a716-446655440001"
	testOrderID    = "550e8400-e29b-41d4-a716-446655440002"
	testCouponID   = "550e8400-e29b-41d4-a716-446655440003"
	testGiftCardID = "550e8400-e29b-41d4-a716-446655440004"
)

// --- Mock Repositories ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expected int) error {
	args := m.Called(ctx, cart, expected)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *mockProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type mockCouponRepository struct {
	mock.Mock
}

func (m *mockCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *mockCouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) List(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Coupon), args.Int(1), args.Error(2)
}

func (m *mockCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *mockCouponRepository) Redeem(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCouponRepository) ReleaseUse(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockGiftCardRepository struct {
	mock.Mock
}

func (m *mockGiftCardRepository) Create(ctx context.Context, card *domain.GiftCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *mockGiftCardRepository) GetByCode(ctx context.Context, code string) (*domain.GiftCard, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GiftCard), args.Error(1)
}

func (m *mockGiftCardRepository) List(ctx context.Context, filter repository.GiftCardFilter) ([]domain.GiftCard, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.GiftCard), args.Int(1), args.Error(2)
}

func (m *mockGiftCardRepository) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *mockGiftCardRepository) Deduct(ctx context.Context, id string, amount int64) (int64, int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockGiftCardRepository) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) ListSince(ctx context.Context, since time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, order *domain.Order, change *domain.StatusChange) error {
	args := m.Called(ctx, order, change)
	return args.Error(0)
}

func (m *mockOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusChange), args.Error(1)
}

// --- Test Harness ---

type testRepos struct {
	carts     *mockCartRepository
	products  *mockProductRepository
	coupons   *mockCouponRepository
	giftCards *mockGiftCardRepository
	orders    *mockOrderRepository
}

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

// newTestRouter builds the full route table over mock repositories so tests
// exercise the same middleware chain production requests pass through.
func newTestRouter(repos *testRepos) http.Handler {
	logger := handlerTestLogger()
	producer := handlerTestProducer()
	zones := domain.NewZonePolicy(nil)

	gateway := paymentmock.NewProvider()

	promotionSvc := service.NewPromotionService(repos.coupons, repos.giftCards, producer, logger)
	cartSvc := service.NewCartService(repos.carts, repos.products, promotionSvc, producer, logger, 7*24*time.Hour)
	catalogSvc := service.NewCatalogService(repos.products, assistantmock.NewProvider(), logger)
	checkoutSvc := service.NewCheckoutService(repos.carts, repos.products, repos.orders, promotionSvc, gateway, zones, producer, logger)
	orderSvc := service.NewOrderService(repos.orders, gateway, producer, logger)
	analyticsSvc := service.NewAnalyticsService(repos.orders, repos.products, logger)

	return NewRouter(RouterConfig{
		Cart:        cartSvc,
		Catalog:     catalogSvc,
		Promotion:   promotionSvc,
		Checkout:    checkoutSvc,
		Orders:      orderSvc,
		Analytics:   analyticsSvc,
		Zones:       zones,
		Health:      health.NewHandler(),
		AdminToken:  testAdminToken,
		Environment: "development",
	}, logger)
}

func newHarness() (*testRepos, http.Handler) {
	repos := &testRepos{
		carts:     new(mockCartRepository),
		products:  new(mockProductRepository),
		coupons:   new(mockCouponRepository),
		giftCards: new(mockGiftCardRepository),
		orders:    new(mockOrderRepository),
	}
	return repos, newTestRouter(repos)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

// --- Fixtures ---

func sampleProduct() *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:            testProductID,
		Name:          "Spring Bouquet",
		Slug:          "spring-bouquet",
		Description:   "Seasonal tulips and daffodils",
		Category:      "bouquets",
		Price:         2500,
		Currency:      "GBP",
		StockQuantity: 10,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        "cart-1",
		SessionID: testSessionID,
		Items: []domain.LineItem{
			{ProductID: testProductID, Name: "Spring Bouquet", UnitPrice: 2500, Quantity: 2},
		},
		Currency:  "GBP",
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func sampleOrder() *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:          testOrderID,
		OrderNumber: "FL-20260831-AB12CD",
		Items: []domain.LineItem{
			{ProductID: testProductID, Name: "Spring Bouquet", UnitPrice: 2500, Quantity: 2},
		},
		Subtotal:      5000,
		DeliveryFee:   0,
		Total:         5000,
		Currency:      "GBP",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPaid,
		Customer:      domain.Customer{Name: "Rosa Bloom", Email: "rosa@example.com"},
		DeliveryAddress: domain.Address{
			Line1:    "1 Petal Lane",
			City:     "London",
			Postcode: "SW1A 1AA",
			Country:  "GB",
		},
		DeliveryZone: "local",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleCoupon() *domain.Coupon {
	now := time.Now().UTC()
	return &domain.Coupon{
		ID:            testCouponID,
		Code:          "WELCOME15",
		DiscountType:  domain.DiscountTypePercentage,
		DiscountValue: 15,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func sampleGiftCard() *domain.GiftCard {
	now := time.Now().UTC()
	return &domain.GiftCard{
		ID:             testGiftCardID,
		Code:           "GIFT-AAAA-BBBB-CCCC",
		InitialBalance: 5000,
		CurrentBalance: 3000,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
