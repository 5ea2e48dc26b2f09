package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/event"
	"github.com/oozye1/florist-sub000/internal/repository"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart item.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct items allowed in a cart.
	MaxItemsPerCart = 50
	// MaxGiftMessageLength bounds the card message printed with a bouquet.
	MaxGiftMessageLength = 500
)

// AddItemInput holds the parameters for adding an item to the cart. Price and
// name are snapshotted from the catalogue, never taken from the client.
type AddItemInput struct {
	ProductID   string `json:"product_id" validate:"required"`
	VariantID   string `json:"variant_id"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
	GiftMessage string `json:"gift_message" validate:"max=500"`
}

// CouponQuoter resolves a coupon code against a subtotal.
type CouponQuoter interface {
	QuoteCoupon(ctx context.Context, code string, subtotal int64) (*CouponQuote, error)
}

// CartService implements the business logic for cart operations.
type CartService struct {
	carts      repository.CartRepository
	products   repository.ProductRepository
	promotions CouponQuoter
	producer   *event.Producer
	logger     *slog.Logger
	cartTTL    time.Duration
}

// NewCartService creates a new cart service.
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	promotions CouponQuoter,
	producer *event.Producer,
	logger *slog.Logger,
	cartTTL time.Duration,
) *CartService {
	return &CartService{
		carts:      carts,
		products:   products,
		promotions: promotions,
		producer:   producer,
		logger:     logger,
		cartTTL:    cartTTL,
	}
}

// GetCart retrieves the cart for a session. If no cart exists, returns an
// empty cart without persisting it.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// AddItem adds a product to the session's cart, snapshotting the current
// catalogue price. Adding the same product and variant again merges by
// increasing quantity. Optimistic locking guards concurrent tabs.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidQuantity("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidQuantity(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}
	if len(input.GiftMessage) > MaxGiftMessageLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("gift message must not exceed %d characters", MaxGiftMessageLength))
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("look up product: %w", err)
	}
	if !product.IsActive {
		return nil, apperrors.Gone("product is no longer available")
	}
	unitPrice, ok := product.PriceFor(input.VariantID)
	if !ok {
		return nil, apperrors.NotFound("product variant", input.VariantID)
	}

	cart, err := s.getOrCreateCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	expectedVersion := cart.Version

	imageURL := ""
	if len(product.ImageURLs) > 0 {
		imageURL = product.ImageURLs[0]
	}

	if idx := cart.FindItemIndex(input.ProductID, input.VariantID); idx >= 0 {
		newQty := cart.Items[idx].Quantity + input.Quantity
		if newQty > MaxQuantityPerItem {
			return nil, apperrors.InvalidQuantity(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
		}
		if !product.InStock(newQty) {
			return nil, apperrors.Conflict("not enough stock for requested quantity")
		}
		cart.Items[idx].Quantity = newQty
		cart.Items[idx].UnitPrice = unitPrice
		cart.Items[idx].Name = product.Name
		cart.Items[idx].ImageURL = imageURL
		if input.GiftMessage != "" {
			cart.Items[idx].GiftMessage = input.GiftMessage
		}
	} else {
		if len(cart.Items) >= MaxItemsPerCart {
			return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		if !product.InStock(input.Quantity) {
			return nil, apperrors.Conflict("not enough stock for requested quantity")
		}
		cart.Items = append(cart.Items, domain.LineItem{
			ProductID:   input.ProductID,
			VariantID:   input.VariantID,
			Name:        product.Name,
			UnitPrice:   unitPrice,
			Quantity:    input.Quantity,
			ImageURL:    imageURL,
			GiftMessage: input.GiftMessage,
		})
	}

	if err := s.saveCart(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.String("product_id", input.ProductID),
		slog.String("variant_id", input.VariantID),
		slog.Int("quantity", input.Quantity),
	)

	return cart, nil
}

// UpdateQuantity changes an item's quantity by delta. A resulting quantity of
// zero or below removes the item. Optimistic locking guards concurrent tabs.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID, variantID string, delta int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if delta == 0 {
		return nil, apperrors.InvalidQuantity("quantity change must not be zero")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart for update: %w", err)
	}
	expectedVersion := cart.Version

	idx := cart.FindItemIndex(productID, variantID)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}

	newQty := cart.Items[idx].Quantity + delta
	switch {
	case newQty <= 0:
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	case newQty > MaxQuantityPerItem:
		return nil, apperrors.InvalidQuantity(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	default:
		cart.Items[idx].Quantity = newQty
	}

	if err := s.saveCart(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
		slog.Int("delta", delta),
	)

	return cart, nil
}

// RemoveItem removes an item from the cart. Removing an absent item is a
// no-op, not an error.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID, variantID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart for removal: %w", err)
	}
	expectedVersion := cart.Version

	idx := cart.FindItemIndex(productID, variantID)
	if idx < 0 {
		return cart, nil
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.saveCart(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item removed",
		slog.String("session_id", sessionID),
		slog.String("product_id", productID),
	)

	return cart, nil
}

// ApplyCoupon validates a coupon against the cart subtotal and attaches it.
// Applying a new coupon replaces any previous one.
func (s *CartService) ApplyCoupon(ctx context.Context, sessionID, code string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if code == "" {
		return nil, apperrors.InvalidInput("coupon code is required")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart for coupon: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.InvalidInput("cannot apply a coupon to an empty cart")
	}
	expectedVersion := cart.Version

	quote, err := s.promotions.QuoteCoupon(ctx, code, cart.Subtotal())
	if err != nil {
		return nil, err
	}

	cart.CouponCode = quote.Coupon.Code
	cart.DiscountAmount = quote.Discount
	cart.FreeDelivery = quote.FreeDelivery

	if err := s.saveCart(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "coupon applied to cart",
		slog.String("session_id", sessionID),
		slog.String("code", cart.CouponCode),
		slog.Int64("discount", cart.DiscountAmount),
	)

	return cart, nil
}

// RemoveCoupon detaches the applied coupon from the cart.
func (s *CartService) RemoveCoupon(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart for coupon removal: %w", err)
	}
	expectedVersion := cart.Version

	cart.CouponCode = ""
	cart.DiscountAmount = 0
	cart.FreeDelivery = false

	if err := s.saveCart(ctx, cart, expectedVersion); err != nil {
		return nil, err
	}

	return cart, nil
}

// ClearCart removes the session's cart entirely.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}

	if err := s.carts.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("session_id", sessionID))
	return nil
}

// saveCart re-derives the coupon discount, bumps the version and persists
// with an optimistic check, then publishes cart.updated.
func (s *CartService) saveCart(ctx context.Context, cart *domain.Cart, expectedVersion int) error {
	s.refreshCoupon(ctx, cart)

	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)
	cart.Version = expectedVersion + 1

	if err := s.carts.SaveIfVersion(ctx, cart, expectedVersion); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.Conflict("cart was modified concurrently, please retry")
		}
		return fmt.Errorf("save cart: %w", err)
	}

	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", cart.SessionID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// refreshCoupon re-validates an attached coupon after the items changed. A
// coupon that no longer qualifies is dropped rather than blocking the edit.
func (s *CartService) refreshCoupon(ctx context.Context, cart *domain.Cart) {
	if cart.CouponCode == "" {
		return
	}

	quote, err := s.promotions.QuoteCoupon(ctx, cart.CouponCode, cart.Subtotal())
	if err != nil {
		s.logger.InfoContext(ctx, "dropping coupon that no longer qualifies",
			slog.String("session_id", cart.SessionID),
			slog.String("code", cart.CouponCode),
			slog.String("reason", err.Error()),
		)
		cart.CouponCode = ""
		cart.DiscountAmount = 0
		cart.FreeDelivery = false
		return
	}

	cart.DiscountAmount = quote.Discount
	cart.FreeDelivery = quote.FreeDelivery
}

func (s *CartService) getOrCreateCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) newEmptyCart(sessionID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Items:     []domain.LineItem{},
		Currency:  "GBP",
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}
