package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/repository"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// DefaultTopProductsLimit bounds the top-products report.
const DefaultTopProductsLimit = 10

// AnalyticsService computes back-office dashboard figures. All aggregation
// is done in memory over orders loaded for the widest window a report needs,
// so every endpoint sees one consistent snapshot.
type AnalyticsService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(orders repository.OrderRepository, products repository.ProductRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		orders:   orders,
		products: products,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Compare returns one dashboard stat for the period against the preceding
// period of equal length.
func (s *AnalyticsService) Compare(ctx context.Context, period, metric string) (*domain.PeriodComparison, error) {
	if !domain.IsValidPeriod(period) {
		return nil, apperrors.InvalidInput("unknown period")
	}
	if !domain.IsValidMetric(metric) {
		return nil, apperrors.InvalidInput("unknown metric")
	}

	orders, err := s.loadOrders(ctx, period)
	if err != nil {
		return nil, err
	}

	comparison := domain.ComparePeriods(orders, period, metric, s.now())
	return &comparison, nil
}

// RevenueSeries returns bucketed revenue over the period for charting.
func (s *AnalyticsService) RevenueSeries(ctx context.Context, period string) ([]domain.RevenueBucket, error) {
	if !domain.IsValidPeriod(period) {
		return nil, apperrors.InvalidInput("unknown period")
	}

	orders, err := s.loadOrders(ctx, period)
	if err != nil {
		return nil, err
	}

	return domain.RevenueSeries(orders, period, s.now()), nil
}

// TopProducts returns the best sellers by revenue over the period.
func (s *AnalyticsService) TopProducts(ctx context.Context, period string, limit int) ([]domain.ProductSales, error) {
	if !domain.IsValidPeriod(period) {
		return nil, apperrors.InvalidInput("unknown period")
	}
	if limit <= 0 {
		limit = DefaultTopProductsLimit
	}

	orders, err := s.loadOrders(ctx, period)
	if err != nil {
		return nil, err
	}

	start, _, _, _ := domain.PeriodRange(period, s.now())
	inPeriod := orders[:0:0]
	for _, o := range orders {
		if !o.CreatedAt.Before(start) {
			inPeriod = append(inPeriod, o)
		}
	}

	return domain.TopProducts(inPeriod, limit), nil
}

// LowStock returns active products at or below the threshold, lowest first.
// A non-positive threshold falls back to the default.
func (s *AnalyticsService) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.LowStock(products, threshold), nil
}

// loadOrders fetches every order back to the start of the previous instance
// of the period, which covers both halves of a comparison.
func (s *AnalyticsService) loadOrders(ctx context.Context, period string) ([]domain.Order, error) {
	_, _, prevStart, _ := domain.PeriodRange(period, s.now())
	return s.orders.ListSince(ctx, prevStart)
}
