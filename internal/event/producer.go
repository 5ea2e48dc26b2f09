// Package event publishes storefront domain events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oozye1/florist-sub000/internal/domain"
	pkgkafka "github.com/oozye1/florist-sub000/pkg/kafka"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated        = pkgkafka.Topic("cart", "updated")
	TopicCartCleared        = pkgkafka.Topic("cart", "cleared")
	TopicOrderCreated       = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
	TopicCouponRedeemed     = pkgkafka.Topic("coupon", "redeemed")
	TopicGiftCardRedeemed   = pkgkafka.Topic("giftcard", "redeemed")
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeOrder    = "order"
	AggregateTypeCoupon   = "coupon"
	AggregateTypeGiftCard = "giftcard"
)

// Source identifier for events originating from the storefront.
const SourceStorefront = "florist-storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string `json:"session_id"`
	ItemCount int    `json:"item_count"`
	Subtotal  int64  `json:"subtotal"`
	Total     int64  `json:"total"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// OrderCreatedData is the payload for an order.created event, a full order
// snapshot.
type OrderCreatedData struct {
	ID             string            `json:"id"`
	OrderNumber    string            `json:"order_number"`
	Status         string            `json:"status"`
	Items          []domain.LineItem `json:"items"`
	Subtotal       int64             `json:"subtotal"`
	DeliveryFee    int64             `json:"delivery_fee"`
	DiscountAmount int64             `json:"discount_amount"`
	GiftCardAmount int64             `json:"gift_card_amount"`
	Total          int64             `json:"total"`
	Currency       string            `json:"currency"`
	CouponCode     string            `json:"coupon_code,omitempty"`
	DeliveryZone   string            `json:"delivery_zone"`
	CustomerEmail  string            `json:"customer_email"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Actor     string `json:"actor,omitempty"`
}

// CouponRedeemedData is the payload for a coupon.redeemed event.
type CouponRedeemedData struct {
	CouponID string `json:"coupon_id"`
	Code     string `json:"code"`
	OrderID  string `json:"order_id,omitempty"`
	Discount int64  `json:"discount"`
}

// GiftCardRedeemedData is the payload for a giftcard.redeemed event.
type GiftCardRedeemedData struct {
	GiftCardID       string `json:"gift_card_id"`
	Code             string `json:"code"`
	OrderID          string `json:"order_id,omitempty"`
	Deducted         int64  `json:"deducted"`
	RemainingBalance int64  `json:"remaining_balance"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	data := CartUpdatedData{
		SessionID: cart.SessionID,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
		Total:     cart.Total(),
	}

	if err := p.publish(ctx, TopicCartUpdated, cart.SessionID, AggregateTypeCart, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", cart.SessionID),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	data := CartClearedData{SessionID: sessionID}

	if err := p.publish(ctx, TopicCartCleared, sessionID, AggregateTypeCart, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session_id", sessionID),
	)
	return nil
}

// PublishOrderCreated publishes an order.created event with the full order
// snapshot.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         string(order.Status),
		Items:          order.Items,
		Subtotal:       order.Subtotal,
		DeliveryFee:    order.DeliveryFee,
		DiscountAmount: order.DiscountAmount,
		GiftCardAmount: order.GiftCardAmount,
		Total:          order.Total,
		Currency:       order.Currency,
		CouponCode:     order.CouponCode,
		DeliveryZone:   order.DeliveryZone,
		CustomerEmail:  order.Customer.Email,
	}

	if err := p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
	)
	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, change *domain.StatusChange) error {
	data := OrderStatusChangedData{
		OrderID:   change.OrderID,
		OldStatus: string(change.FromStatus),
		NewStatus: string(change.ToStatus),
		Actor:     change.Actor,
	}

	if err := p.publish(ctx, TopicOrderStatusChanged, change.OrderID, AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", change.OrderID),
		slog.String("old_status", data.OldStatus),
		slog.String("new_status", data.NewStatus),
	)
	return nil
}

// PublishCouponRedeemed publishes a coupon.redeemed event.
func (p *Producer) PublishCouponRedeemed(ctx context.Context, coupon *domain.Coupon, orderID string, discount int64) error {
	data := CouponRedeemedData{
		CouponID: coupon.ID,
		Code:     coupon.Code,
		OrderID:  orderID,
		Discount: discount,
	}

	if err := p.publish(ctx, TopicCouponRedeemed, coupon.ID, AggregateTypeCoupon, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published coupon.redeemed event",
		slog.String("coupon_id", coupon.ID),
		slog.String("code", coupon.Code),
	)
	return nil
}

// PublishGiftCardRedeemed publishes a giftcard.redeemed event.
func (p *Producer) PublishGiftCardRedeemed(ctx context.Context, card *domain.GiftCard, orderID string, redemption *domain.GiftCardRedemption) error {
	data := GiftCardRedeemedData{
		GiftCardID:       card.ID,
		Code:             card.Code,
		OrderID:          orderID,
		Deducted:         redemption.Deducted,
		RemainingBalance: redemption.RemainingBalance,
	}

	if err := p.publish(ctx, TopicGiftCardRedeemed, card.ID, AggregateTypeGiftCard, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published giftcard.redeemed event",
		slog.String("gift_card_id", card.ID),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
