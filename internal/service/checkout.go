package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/event"
	"github.com/oozye1/florist-sub000/internal/payment"
	"github.com/oozye1/florist-sub000/internal/repository"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// PromotionResolver is the slice of the promotion service checkout needs.
// Every redemption has a matching unwind so a checkout that fails after
// consuming promo state can hand it back.
type PromotionResolver interface {
	RedeemCoupon(ctx context.Context, code string, subtotal int64, orderID string) (*CouponQuote, error)
	ReleaseCouponUse(ctx context.Context, code, orderID string) error
	RedeemGiftCard(ctx context.Context, code string, amount int64, orderID string) (*domain.GiftCardRedemption, error)
	CreditGiftCard(ctx context.Context, code string, amount int64, orderID string) error
}

// CheckoutInput holds the parameters for placing an order.
type CheckoutInput struct {
	Customer     domain.Customer `json:"customer" validate:"required"`
	Address      domain.Address  `json:"address" validate:"required"`
	ZoneCode     string          `json:"zone_code"`
	DeliveryDate *time.Time      `json:"delivery_date"`
	GiftCardCode string          `json:"gift_card_code"`
	Notes        string          `json:"notes" validate:"max=1000"`
}

// CheckoutResult is the outcome of placing an order.
type CheckoutResult struct {
	Order     *domain.Order              `json:"order"`
	GiftCard  *domain.GiftCardRedemption `json:"gift_card,omitempty"`
	PaymentID string                     `json:"payment_id,omitempty"`
}

// CheckoutService turns a cart into an order: it prices the cart with the
// delivery zone, consumes promotions, charges the gateway, decrements stock
// and clears the cart.
type CheckoutService struct {
	carts      repository.CartRepository
	products   repository.ProductRepository
	orders     repository.OrderRepository
	promotions PromotionResolver
	gateway    payment.Provider
	zones      *domain.ZonePolicy
	producer   *event.Producer
	logger     *slog.Logger
	now        func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	promotions PromotionResolver,
	gateway payment.Provider,
	zones *domain.ZonePolicy,
	producer *event.Producer,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:      carts,
		products:   products,
		orders:     orders,
		promotions: promotions,
		gateway:    gateway,
		zones:      zones,
		producer:   producer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Quote prices the session's cart for a delivery zone without placing an
// order.
func (s *CheckoutService) Quote(ctx context.Context, sessionID, zoneCode string) (*domain.Quote, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput("cart is empty")
		}
		return nil, fmt.Errorf("get cart for quote: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	zone := s.zones.Lookup(zoneCode)
	quote := domain.ComputeTotal(cart.Subtotal(), zone, cart.DiscountAmount, cart.FreeDelivery)
	return &quote, nil
}

// Checkout places an order from the session's cart. The coupon use and any
// gift card balance are consumed atomically before payment; if the charge or
// the order insert then fails, both are handed back. Stock is decremented
// after payment succeeds; the cart is cleared last.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, input CheckoutInput) (*CheckoutResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if input.Customer.Name == "" || input.Customer.Email == "" {
		return nil, apperrors.InvalidInput("customer name and email are required")
	}
	if input.Address.Line1 == "" || input.Address.Postcode == "" {
		return nil, apperrors.InvalidInput("delivery address is incomplete")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput("cart is empty")
		}
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	if err := s.checkStock(ctx, cart); err != nil {
		return nil, err
	}

	now := s.now()
	orderID := uuid.New().String()
	subtotal := cart.Subtotal()
	zone := s.zones.Lookup(input.ZoneCode)

	// Consume the coupon use first. Pricing reuses the redeemed quote so
	// the discount on the order always matches what was consumed.
	var (
		discount     int64
		freeDelivery bool
		couponCode   string
	)
	if cart.CouponCode != "" {
		quote, err := s.promotions.RedeemCoupon(ctx, cart.CouponCode, subtotal, orderID)
		if err != nil {
			return nil, err
		}
		discount = quote.Discount
		freeDelivery = quote.FreeDelivery
		couponCode = quote.Coupon.Code
	}

	priced := domain.ComputeTotal(subtotal, zone, discount, freeDelivery)

	// Spend the gift card against the total. Partial cover is fine; the
	// remainder goes to the card gateway.
	var redemption *domain.GiftCardRedemption
	remainder := priced.Total
	if input.GiftCardCode != "" && remainder > 0 {
		redemption, err = s.promotions.RedeemGiftCard(ctx, input.GiftCardCode, remainder, orderID)
		if err != nil {
			// Unwind: the coupon use was already consumed.
			s.releasePromotions(ctx, couponCode, nil, orderID)
			return nil, err
		}
		remainder -= redemption.Deducted
	}

	order := &domain.Order{
		ID:              orderID,
		OrderNumber:     generateOrderNumber(now),
		Items:           cart.Items,
		Subtotal:        priced.Subtotal,
		DeliveryFee:     priced.DeliveryFee,
		DiscountAmount:  priced.Discount,
		Total:           priced.Total,
		Currency:        cart.Currency,
		CouponCode:      couponCode,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		Customer:        input.Customer,
		DeliveryAddress: input.Address,
		DeliveryZone:    zone.Code,
		DeliveryDate:    input.DeliveryDate,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if redemption != nil {
		order.GiftCardCode = redemption.Code
		order.GiftCardAmount = redemption.Deducted
	}

	var paymentID string
	if remainder > 0 {
		charge, err := s.gateway.Charge(ctx, &payment.ChargeInput{
			Amount:      remainder,
			Currency:    order.Currency,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Email:       order.Customer.Email,
			Description: fmt.Sprintf("Florist order %s", order.OrderNumber),
		})
		if err != nil {
			// Unwind: hand back the coupon use and gift card balance.
			s.releasePromotions(ctx, couponCode, redemption, orderID)
			return nil, fmt.Errorf("charge payment: %w", err)
		}
		if charge.Status != payment.StatusSucceeded {
			s.releasePromotions(ctx, couponCode, redemption, orderID)
			return nil, apperrors.PaymentFailed(charge.FailureReason)
		}
		paymentID = charge.ProviderPaymentID
	}
	order.PaymentStatus = domain.PaymentStatusPaid
	order.ProviderPaymentID = paymentID

	if err := s.orders.Create(ctx, order); err != nil {
		s.refundCharge(ctx, paymentID, remainder, order.Currency, orderID)
		s.releasePromotions(ctx, couponCode, redemption, orderID)
		return nil, err
	}

	s.decrementStock(ctx, order)

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Int64("total", order.Total),
		slog.String("zone", order.DeliveryZone),
	)

	return &CheckoutResult{
		Order:     order,
		GiftCard:  redemption,
		PaymentID: paymentID,
	}, nil
}

// releasePromotions hands back promo state consumed by a checkout that did
// not complete: the gift card deduction is credited and the coupon use
// returned. The unwind is best effort; failures are logged for manual
// reconciliation.
func (s *CheckoutService) releasePromotions(ctx context.Context, couponCode string, redemption *domain.GiftCardRedemption, orderID string) {
	if redemption != nil && redemption.Deducted > 0 {
		if err := s.promotions.CreditGiftCard(ctx, redemption.Code, redemption.Deducted, orderID); err != nil {
			s.logger.ErrorContext(ctx, "failed to credit gift card after aborted checkout",
				slog.String("gift_card_code", redemption.Code),
				slog.Int64("amount", redemption.Deducted),
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
		}
	}
	if couponCode != "" {
		if err := s.promotions.ReleaseCouponUse(ctx, couponCode, orderID); err != nil {
			s.logger.ErrorContext(ctx, "failed to release coupon use after aborted checkout",
				slog.String("coupon_code", couponCode),
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// refundCharge reverses a gateway charge when the order insert fails after
// payment succeeded. Best effort; a failed refund is logged for manual
// reconciliation.
func (s *CheckoutService) refundCharge(ctx context.Context, paymentID string, amount int64, currency, orderID string) {
	if paymentID == "" {
		return
	}
	result, err := s.gateway.Refund(ctx, &payment.RefundInput{
		ProviderPaymentID: paymentID,
		Amount:            amount,
		Currency:          currency,
		Reason:            "order creation failed",
	})
	if err == nil && result.Status != payment.StatusSucceeded {
		err = apperrors.PaymentFailed(result.FailureReason)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to refund charge after aborted checkout",
			slog.String("provider_payment_id", paymentID),
			slog.Int64("amount", amount),
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

// checkStock verifies every cart line against current stock before taking
// payment.
func (s *CheckoutService) checkStock(ctx context.Context, cart *domain.Cart) error {
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return apperrors.Gone(fmt.Sprintf("%s is no longer available", item.Name))
		}
		if !product.InStock(item.Quantity) {
			return apperrors.Conflict(fmt.Sprintf("not enough stock for %s", item.Name))
		}
	}
	return nil
}

// decrementStock adjusts stock after a successful order. A failed decrement
// is logged, not fatal: the order stands and stock is reconciled by hand.
func (s *CheckoutService) decrementStock(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		if err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "failed to decrement stock",
				slog.String("order_id", order.ID),
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()),
			)
		}
	}
}

// generateOrderNumber builds a human-readable order number like
// FL-20260510-7F3A2B.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:6])
	return fmt.Sprintf("FL-%s-%s", now.Format("20060102"), suffix)
}
