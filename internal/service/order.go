package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/event"
	"github.com/oozye1/florist-sub000/internal/payment"
	"github.com/oozye1/florist-sub000/internal/repository"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// UpdateStatusInput holds the parameters for an order status transition.
type UpdateStatusInput struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
	Actor  string             `json:"actor"`
	Note   string             `json:"note" validate:"max=1000"`
}

// OrderService implements the business logic for order management.
type OrderService struct {
	orders   repository.OrderRepository
	gateway  payment.Provider
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, gateway payment.Provider, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		gateway:  gateway,
		producer: producer,
		logger:   logger,
	}
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	return s.orders.GetByID(ctx, id)
}

// GetOrderByNumber retrieves an order by its customer-facing number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if number == "" {
		return nil, apperrors.InvalidInput("order number is required")
	}
	return s.orders.GetByNumber(ctx, number)
}

// ListOrders returns orders matching the filter with the total count.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, apperrors.InvalidInput("unknown order status filter")
	}
	return s.orders.List(ctx, filter)
}

// UpdateStatus moves an order to a new fulfilment status, records the audit
// entry and publishes the change. Terminal orders reject all transitions.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, input UpdateStatusInput) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	change, err := order.Transition(input.Status, input.Actor, input.Note, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, order, change); err != nil {
		return nil, err
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, change); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("from", string(change.FromStatus)),
		slog.String("to", string(change.ToStatus)),
		slog.String("actor", change.Actor),
	)

	return order, nil
}

// UpdatePaymentStatus changes the payment axis of an order independently of
// fulfilment. Moving an order to refunded reverses the gateway charge first;
// the status only flips once the gateway has accepted the refund.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	if !status.IsValid() {
		return nil, apperrors.InvalidInput("unknown payment status")
	}

	if status == domain.PaymentStatusRefunded {
		if err := s.refundOrder(ctx, id); err != nil {
			return nil, err
		}
	}

	if err := s.orders.UpdatePaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order payment status updated",
		slog.String("order_id", id),
		slog.String("payment_status", string(status)),
	)

	return s.orders.GetByID(ctx, id)
}

// refundOrder reverses the gateway charge behind an order. Orders that were
// never charged through the gateway (full gift card cover) have no provider
// payment to reverse and pass straight through.
func (s *OrderService) refundOrder(ctx context.Context, id string) error {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		return apperrors.Conflict(fmt.Sprintf("cannot refund an order with payment status %s", order.PaymentStatus))
	}
	if order.ProviderPaymentID == "" {
		return nil
	}

	result, err := s.gateway.Refund(ctx, &payment.RefundInput{
		ProviderPaymentID: order.ProviderPaymentID,
		Amount:            order.Total - order.GiftCardAmount,
		Currency:          order.Currency,
		Reason:            "back office refund",
	})
	if err != nil {
		return fmt.Errorf("refund payment: %w", err)
	}
	if result.Status != payment.StatusSucceeded {
		return apperrors.PaymentFailed(result.FailureReason)
	}

	s.logger.InfoContext(ctx, "payment refunded",
		slog.String("order_id", order.ID),
		slog.String("provider_payment_id", order.ProviderPaymentID),
		slog.String("provider_refund_id", result.ProviderRefundID),
		slog.Int64("amount", order.Total-order.GiftCardAmount),
	)

	return nil
}

// StatusHistory returns the audit trail for an order, oldest first.
func (s *OrderService) StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	if orderID == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}

	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.StatusHistory(ctx, orderID)
}
