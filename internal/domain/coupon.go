package domain

import (
	"time"

	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// Coupon discount types.
const (
	DiscountTypePercentage   = "percentage"
	DiscountTypeFixedAmount  = "fixed_amount"
	DiscountTypeFreeDelivery = "free_delivery"
)

// Coupon is a promotional code. For percentage coupons DiscountValue is an
// integer percent in [0,100]; for fixed_amount it is pence; for free_delivery
// it is ignored.
type Coupon struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Description   string     `json:"description,omitempty"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue int64      `json:"discount_value"`
	MinimumOrder  int64      `json:"minimum_order"`
	MaxUses       int        `json:"max_uses"`
	TimesUsed     int        `json:"times_used"`
	IsActive      bool       `json:"is_active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsValidDiscountType reports whether t is a recognised coupon discount type.
func IsValidDiscountType(t string) bool {
	switch t {
	case DiscountTypePercentage, DiscountTypeFixedAmount, DiscountTypeFreeDelivery:
		return true
	}
	return false
}

// Validate checks the coupon against a cart subtotal at the given instant.
// Checks run in a fixed order so callers always see the most specific
// failure: inactive, then expired, then usage exhausted, then minimum order.
func (c *Coupon) Validate(subtotal int64, now time.Time) error {
	if !c.IsActive {
		return apperrors.ErrCodeInactive
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return apperrors.ErrCodeExpired
	}
	if c.MaxUses > 0 && c.TimesUsed >= c.MaxUses {
		return apperrors.ErrUsageExceeded
	}
	if c.MinimumOrder > 0 && subtotal < c.MinimumOrder {
		return apperrors.ErrBelowMinimum
	}
	return nil
}

// DiscountFor returns the discount this coupon grants against a subtotal,
// in pence. Fixed amounts are capped at the subtotal so a cart total can
// never go negative. Free-delivery coupons grant no monetary discount.
func (c *Coupon) DiscountFor(subtotal int64) int64 {
	switch c.DiscountType {
	case DiscountTypePercentage:
		value := c.DiscountValue
		if value < 0 {
			value = 0
		}
		if value > 100 {
			value = 100
		}
		return subtotal * value / 100
	case DiscountTypeFixedAmount:
		if c.DiscountValue > subtotal {
			return subtotal
		}
		if c.DiscountValue < 0 {
			return 0
		}
		return c.DiscountValue
	default:
		return 0
	}
}

// WaivesDelivery reports whether applying this coupon zeroes the delivery fee.
func (c *Coupon) WaivesDelivery() bool {
	return c.DiscountType == DiscountTypeFreeDelivery
}

// HasUsesRemaining reports whether the coupon can still be redeemed. A zero
// MaxUses means unlimited.
func (c *Coupon) HasUsesRemaining() bool {
	return c.MaxUses == 0 || c.TimesUsed < c.MaxUses
}
