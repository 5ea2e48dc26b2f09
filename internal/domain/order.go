package domain

import (
	"fmt"
	"time"

	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// PaymentStatus tracks money independently of fulfilment.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further fulfilment transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsValid reports whether s is a known payment status.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to target. The
// shop floor corrects mistakes by moving orders backwards or skipping steps,
// so any transition between non-terminal states is allowed; only terminal
// states are closed.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if !target.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	return target != s
}

// Customer identifies who placed the order.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Address is a delivery destination.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Order is a placed order with its price breakdown frozen at checkout time.
type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"order_number"`
	Items           []LineItem    `json:"items"`
	Subtotal        int64         `json:"subtotal"`
	DeliveryFee     int64         `json:"delivery_fee"`
	DiscountAmount  int64         `json:"discount_amount"`
	GiftCardAmount  int64         `json:"gift_card_amount"`
	Total           int64         `json:"total"`
	Currency        string        `json:"currency"`
	CouponCode      string        `json:"coupon_code,omitempty"`
	GiftCardCode    string        `json:"gift_card_code,omitempty"`
	Status          OrderStatus   `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	// ProviderPaymentID is the gateway's reference for the charge; refunds
	// are issued against it.
	ProviderPaymentID string `json:"provider_payment_id,omitempty"`
	Customer        Customer      `json:"customer"`
	DeliveryAddress Address       `json:"delivery_address"`
	DeliveryZone    string        `json:"delivery_zone"`
	DeliveryDate    *time.Time    `json:"delivery_date,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// StatusChange is one row of an order's audit trail.
type StatusChange struct {
	ID         string      `json:"id"`
	OrderID    string      `json:"order_id"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status"`
	Actor      string      `json:"actor,omitempty"`
	Note       string      `json:"note,omitempty"`
	ChangedAt  time.Time   `json:"changed_at"`
}

// Transition validates and applies a status change, returning the audit
// record to persist alongside the order.
func (o *Order) Transition(target OrderStatus, actor, note string, now time.Time) (*StatusChange, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrInvalidInput, target)
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", apperrors.ErrConflict, o.Status, target)
	}
	change := &StatusChange{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   target,
		Actor:      actor,
		Note:       note,
		ChangedAt:  now,
	}
	o.Status = target
	o.UpdatedAt = now
	return change, nil
}

// ItemCount returns the total units across all order items.
func (o *Order) ItemCount() int {
	var count int
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
