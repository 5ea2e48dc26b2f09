package repository

import (
	"context"
	"time"

	"github.com/oozye1/florist-sub000/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Category   *string
	Tag        *string
	ActiveOnly bool
	Search     *string
	Page       int
	PerPage    int
}

// CouponFilter defines filter criteria for listing coupons.
type CouponFilter struct {
	Active  *bool
	Page    int
	PerPage int
}

// GiftCardFilter defines filter criteria for listing gift cards.
type GiftCardFilter struct {
	Active  *bool
	Page    int
	PerPage int
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
	Email         *string
	CreatedAfter  *time.Time
	Page          int
	PerPage       int
}

// ProductRepository defines the interface for catalogue persistence.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetBySlug retrieves a product by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// AdjustStock atomically changes a product's stock by delta, refusing to
	// go below zero.
	AdjustStock(ctx context.Context, id string, delta int) error

	// ListAll returns every product; used by stock reports.
	ListAll(ctx context.Context) ([]domain.Product, error)
}

// CouponRepository defines the interface for coupon persistence.
type CouponRepository interface {
	// Create inserts a new coupon into the store.
	Create(ctx context.Context, coupon *domain.Coupon) error

	// GetByID retrieves a coupon by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Coupon, error)

	// GetByCode retrieves a coupon by its code, case-insensitively.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// List returns coupons matching the given filter along with the total count.
	List(ctx context.Context, filter CouponFilter) ([]domain.Coupon, int, error)

	// Update modifies an existing coupon in the store.
	Update(ctx context.Context, coupon *domain.Coupon) error

	// Redeem atomically increments times_used, failing with usage-exceeded
	// when the limit has been reached by a concurrent redemption.
	Redeem(ctx context.Context, id string) error

	// ReleaseUse atomically returns one consumed use, never taking
	// times_used below zero. Used to unwind a redemption whose checkout
	// did not complete.
	ReleaseUse(ctx context.Context, id string) error
}

// GiftCardRepository defines the interface for gift card persistence.
type GiftCardRepository interface {
	// Create inserts a new gift card into the store.
	Create(ctx context.Context, card *domain.GiftCard) error

	// GetByCode retrieves a gift card by its code.
	GetByCode(ctx context.Context, code string) (*domain.GiftCard, error)

	// List returns gift cards matching the given filter along with the total count.
	List(ctx context.Context, filter GiftCardFilter) ([]domain.GiftCard, int, error)

	// SetActive enables or disables a gift card.
	SetActive(ctx context.Context, id string, active bool) error

	// Deduct atomically removes up to amount from the card's balance and
	// returns how much was actually deducted and the remaining balance.
	// Concurrent deductions never take the balance below zero.
	Deduct(ctx context.Context, id string, amount int64) (deducted, remaining int64, err error)

	// Credit atomically returns amount to the card's balance, capped at
	// the card's initial balance, and reports the new balance. Used to
	// unwind a deduction whose checkout did not complete.
	Credit(ctx context.Context, id string, amount int64) (remaining int64, err error)
}

// OrderRepository defines the interface for order persistence. Orders are
// never deleted; cancellation is a status change.
type OrderRepository interface {
	// Create inserts a new order, its items and its initial status history
	// entry atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items by ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByNumber retrieves an order with its items by order number.
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)

	// List returns orders matching the given filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// ListSince returns all orders created at or after the given instant,
	// items included; used by analytics.
	ListSince(ctx context.Context, since time.Time) ([]domain.Order, error)

	// UpdateStatus persists a status transition and its audit entry atomically.
	UpdateStatus(ctx context.Context, order *domain.Order, change *domain.StatusChange) error

	// UpdatePaymentStatus changes the payment axis of an order.
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error

	// StatusHistory returns the audit trail for an order, oldest first.
	StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error)
}

// CartRepository defines the interface for session cart persistence.
type CartRepository interface {
	// Get retrieves the cart for a session, or not-found when none exists.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save persists the cart unconditionally and refreshes its TTL.
	Save(ctx context.Context, cart *domain.Cart) error

	// SaveIfVersion persists the cart only when the stored version still
	// matches expected, returning conflict otherwise.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expected int) error

	// Delete removes the cart for a session. Deleting an absent cart is not
	// an error.
	Delete(ctx context.Context, sessionID string) error
}
