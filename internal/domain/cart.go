package domain

import "time"

// Cart represents a shopping cart for one storefront session.
type Cart struct {
	ID             string     `json:"id"`
	SessionID      string     `json:"session_id"`
	Items          []LineItem `json:"items"`
	CouponCode     string     `json:"coupon_code,omitempty"`
	DiscountAmount int64      `json:"discount_amount"`
	FreeDelivery   bool       `json:"free_delivery"`
	Currency       string     `json:"currency"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
}

// LineItem is one product/variant/quantity entry in a cart or order. The unit
// price is snapshotted when the item is added so later catalog price changes
// never alter an existing cart or a placed order.
type LineItem struct {
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"image_url,omitempty"`
	GiftMessage string `json:"gift_message,omitempty"`
}

// LineTotal returns unit price times quantity in pence.
func (i *LineItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Subtotal sums unit price times quantity over all items, independent of
// insertion order.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// Total returns the subtotal minus the applied discount, never negative.
// Delivery fees are owned by the pricing calculator, not the cart.
func (c *Cart) Total() int64 {
	discount := c.DiscountAmount
	if subtotal := c.Subtotal(); discount > subtotal {
		discount = subtotal
	}
	return c.Subtotal() - discount
}

// ItemCount returns the total number of stems/units across all items.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItemIndex returns the index of the item matching the given product and
// variant IDs, or -1 if not present.
func (c *Cart) FindItemIndex(productID, variantID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}
