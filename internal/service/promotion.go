package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/event"
	"github.com/oozye1/florist-sub000/internal/repository"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// CouponQuote is the outcome of resolving a coupon against a subtotal.
type CouponQuote struct {
	Coupon       *domain.Coupon `json:"coupon"`
	Discount     int64          `json:"discount"`
	FreeDelivery bool           `json:"free_delivery"`
}

// CreateCouponInput holds the parameters for creating a coupon.
type CreateCouponInput struct {
	Code          string     `json:"code" validate:"required,min=3,max=32"`
	Description   string     `json:"description"`
	DiscountType  string     `json:"discount_type" validate:"required"`
	DiscountValue int64      `json:"discount_value" validate:"gte=0"`
	MinimumOrder  int64      `json:"minimum_order" validate:"gte=0"`
	MaxUses       int        `json:"max_uses" validate:"gte=0"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// UpdateCouponInput holds the parameters for updating a coupon. Nil fields
// are left unchanged.
type UpdateCouponInput struct {
	Description   *string    `json:"description"`
	DiscountValue *int64     `json:"discount_value" validate:"omitempty,gte=0"`
	MinimumOrder  *int64     `json:"minimum_order" validate:"omitempty,gte=0"`
	MaxUses       *int       `json:"max_uses" validate:"omitempty,gte=0"`
	IsActive      *bool      `json:"is_active"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// CreateGiftCardInput holds the parameters for issuing a gift card.
type CreateGiftCardInput struct {
	InitialBalance int64      `json:"initial_balance" validate:"required,gt=0"`
	RecipientName  string     `json:"recipient_name"`
	RecipientEmail string     `json:"recipient_email" validate:"omitempty,email"`
	Message        string     `json:"message" validate:"max=500"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// PromotionService implements coupon and gift card business logic.
type PromotionService struct {
	coupons   repository.CouponRepository
	giftCards repository.GiftCardRepository
	producer  *event.Producer
	logger    *slog.Logger
	now       func() time.Time
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(
	coupons repository.CouponRepository,
	giftCards repository.GiftCardRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *PromotionService {
	return &PromotionService{
		coupons:   coupons,
		giftCards: giftCards,
		producer:  producer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// QuoteCoupon resolves a coupon code against a subtotal without consuming a
// use. The same checks run at redemption time, this call is advisory.
func (s *PromotionService) QuoteCoupon(ctx context.Context, code string, subtotal int64) (*CouponQuote, error) {
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := coupon.Validate(subtotal, s.now()); err != nil {
		return nil, err
	}

	return &CouponQuote{
		Coupon:       coupon,
		Discount:     coupon.DiscountFor(subtotal),
		FreeDelivery: coupon.WaivesDelivery(),
	}, nil
}

// RedeemCoupon validates and consumes one use of a coupon. The usage
// increment is atomic in storage, so a last-use race between two checkouts
// leaves exactly one winner.
func (s *PromotionService) RedeemCoupon(ctx context.Context, code string, subtotal int64, orderID string) (*CouponQuote, error) {
	quote, err := s.QuoteCoupon(ctx, code, subtotal)
	if err != nil {
		return nil, err
	}

	if err := s.coupons.Redeem(ctx, quote.Coupon.ID); err != nil {
		return nil, err
	}

	if err := s.producer.PublishCouponRedeemed(ctx, quote.Coupon, orderID, quote.Discount); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish coupon.redeemed event",
			slog.String("coupon_id", quote.Coupon.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "coupon redeemed",
		slog.String("code", quote.Coupon.Code),
		slog.Int64("discount", quote.Discount),
		slog.String("order_id", orderID),
	)

	return quote, nil
}

// ReleaseCouponUse returns a previously consumed use to a coupon. Called to
// unwind a redemption when the checkout it belonged to failed after the use
// was consumed.
func (s *PromotionService) ReleaseCouponUse(ctx context.Context, code, orderID string) error {
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	if err := s.coupons.ReleaseUse(ctx, coupon.ID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "coupon use released",
		slog.String("code", coupon.Code),
		slog.String("order_id", orderID),
	)

	return nil
}

// CreateCoupon creates a new coupon.
func (s *PromotionService) CreateCoupon(ctx context.Context, input CreateCouponInput) (*domain.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, apperrors.InvalidInput("coupon code is required")
	}
	if !domain.IsValidDiscountType(input.DiscountType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown discount type %q", input.DiscountType))
	}
	if input.DiscountType == domain.DiscountTypePercentage && (input.DiscountValue < 0 || input.DiscountValue > 100) {
		return nil, apperrors.InvalidInput("percentage discount must be between 0 and 100")
	}
	if input.DiscountValue < 0 {
		return nil, apperrors.InvalidInput("discount value must not be negative")
	}

	now := s.now()
	coupon := &domain.Coupon{
		ID:            uuid.New().String(),
		Code:          code,
		Description:   input.Description,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MinimumOrder:  input.MinimumOrder,
		MaxUses:       input.MaxUses,
		IsActive:      true,
		ExpiresAt:     input.ExpiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "coupon created",
		slog.String("coupon_id", coupon.ID),
		slog.String("code", coupon.Code),
		slog.String("type", coupon.DiscountType),
	)

	return coupon, nil
}

// GetCoupon retrieves a coupon by ID.
func (s *PromotionService) GetCoupon(ctx context.Context, id string) (*domain.Coupon, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("coupon id is required")
	}
	return s.coupons.GetByID(ctx, id)
}

// ListCoupons returns coupons matching the filter with the total count.
func (s *PromotionService) ListCoupons(ctx context.Context, filter repository.CouponFilter) ([]domain.Coupon, int, error) {
	return s.coupons.List(ctx, filter)
}

// UpdateCoupon applies a partial update to a coupon.
func (s *PromotionService) UpdateCoupon(ctx context.Context, id string, input UpdateCouponInput) (*domain.Coupon, error) {
	coupon, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		coupon.Description = *input.Description
	}
	if input.DiscountValue != nil {
		if coupon.DiscountType == domain.DiscountTypePercentage && (*input.DiscountValue < 0 || *input.DiscountValue > 100) {
			return nil, apperrors.InvalidInput("percentage discount must be between 0 and 100")
		}
		coupon.DiscountValue = *input.DiscountValue
	}
	if input.MinimumOrder != nil {
		coupon.MinimumOrder = *input.MinimumOrder
	}
	if input.MaxUses != nil {
		coupon.MaxUses = *input.MaxUses
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if input.ExpiresAt != nil {
		coupon.ExpiresAt = input.ExpiresAt
	}

	if err := s.coupons.Update(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "coupon updated", slog.String("coupon_id", coupon.ID))
	return coupon, nil
}

// CreateGiftCard issues a new gift card with a generated code.
func (s *PromotionService) CreateGiftCard(ctx context.Context, input CreateGiftCardInput) (*domain.GiftCard, error) {
	if input.InitialBalance <= 0 {
		return nil, apperrors.InvalidInput("initial balance must be positive")
	}

	now := s.now()
	card := &domain.GiftCard{
		ID:             uuid.New().String(),
		Code:           generateGiftCardCode(),
		InitialBalance: input.InitialBalance,
		CurrentBalance: input.InitialBalance,
		RecipientName:  input.RecipientName,
		RecipientEmail: input.RecipientEmail,
		Message:        input.Message,
		IsActive:       true,
		ExpiresAt:      input.ExpiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.giftCards.Create(ctx, card); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "gift card issued",
		slog.String("gift_card_id", card.ID),
		slog.Int64("initial_balance", card.InitialBalance),
	)

	return card, nil
}

// GetGiftCard retrieves a gift card by code for a balance check.
func (s *PromotionService) GetGiftCard(ctx context.Context, code string) (*domain.GiftCard, error) {
	if code == "" {
		return nil, apperrors.InvalidInput("gift card code is required")
	}
	return s.giftCards.GetByCode(ctx, code)
}

// ListGiftCards returns gift cards matching the filter with the total count.
func (s *PromotionService) ListGiftCards(ctx context.Context, filter repository.GiftCardFilter) ([]domain.GiftCard, int, error) {
	return s.giftCards.List(ctx, filter)
}

// SetGiftCardActive enables or disables a gift card.
func (s *PromotionService) SetGiftCardActive(ctx context.Context, id string, active bool) error {
	if id == "" {
		return apperrors.InvalidInput("gift card id is required")
	}
	return s.giftCards.SetActive(ctx, id, active)
}

// RedeemGiftCard spends up to amount from a card. Partial cover is allowed;
// the shortfall is reported for the caller to settle by another means. The
// balance deduction is atomic in storage.
func (s *PromotionService) RedeemGiftCard(ctx context.Context, code string, amount int64, orderID string) (*domain.GiftCardRedemption, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidInput("redemption amount must be positive")
	}

	card, err := s.giftCards.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := card.Validate(s.now()); err != nil {
		return nil, err
	}

	deducted, remaining, err := s.giftCards.Deduct(ctx, card.ID, amount)
	if err != nil {
		return nil, err
	}

	redemption := &domain.GiftCardRedemption{
		Code:             card.Code,
		Deducted:         deducted,
		RemainingBalance: remaining,
		Shortfall:        amount - deducted,
	}

	if err := s.producer.PublishGiftCardRedeemed(ctx, card, orderID, redemption); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish giftcard.redeemed event",
			slog.String("gift_card_id", card.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "gift card redeemed",
		slog.String("gift_card_id", card.ID),
		slog.Int64("deducted", deducted),
		slog.Int64("remaining", remaining),
		slog.String("order_id", orderID),
	)

	return redemption, nil
}

// CreditGiftCard returns amount to a card's balance, capped in storage at the
// card's initial balance. Called to unwind a deduction when the checkout it
// belonged to failed after the balance was taken.
func (s *PromotionService) CreditGiftCard(ctx context.Context, code string, amount int64, orderID string) error {
	if amount <= 0 {
		return apperrors.InvalidInput("credit amount must be positive")
	}

	card, err := s.giftCards.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	remaining, err := s.giftCards.Credit(ctx, card.ID, amount)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "gift card credited",
		slog.String("gift_card_id", card.ID),
		slog.Int64("credited", amount),
		slog.Int64("remaining", remaining),
		slog.String("order_id", orderID),
	)

	return nil
}

// giftCardAlphabet omits lookalike characters so codes survive being read
// aloud over the phone.
const giftCardAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateGiftCardCode() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a UUID.
		return "GIFT-" + strings.ToUpper(uuid.New().String()[:13])
	}
	var b strings.Builder
	b.WriteString("GIFT")
	for i, c := range buf {
		if i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(giftCardAlphabet[int(c)%len(giftCardAlphabet)])
	}
	return b.String()
}
