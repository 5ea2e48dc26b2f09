package domain

import (
	"time"

	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

// GiftCard is a stored-value card. Balances are integer pence and only ever
// move down; top-ups are modelled as issuing a new card.
type GiftCard struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	InitialBalance int64      `json:"initial_balance"`
	CurrentBalance int64      `json:"current_balance"`
	RecipientName  string     `json:"recipient_name,omitempty"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	Message        string     `json:"message,omitempty"`
	IsActive       bool       `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Validate checks the card can currently be spent from. Check order mirrors
// coupon validation: inactive, then expired, then empty.
func (g *GiftCard) Validate(now time.Time) error {
	if !g.IsActive {
		return apperrors.ErrCodeInactive
	}
	if g.ExpiresAt != nil && g.ExpiresAt.Before(now) {
		return apperrors.ErrCodeExpired
	}
	if g.CurrentBalance <= 0 {
		return apperrors.ErrNoBalance
	}
	return nil
}

// MaxDeduction returns how much of the requested amount the card can cover.
// Partial cover is allowed; the caller settles the shortfall another way.
func (g *GiftCard) MaxDeduction(requested int64) int64 {
	if requested <= 0 {
		return 0
	}
	if requested > g.CurrentBalance {
		return g.CurrentBalance
	}
	return requested
}

// GiftCardRedemption records the outcome of spending from a card.
type GiftCardRedemption struct {
	Code             string `json:"code"`
	Deducted         int64  `json:"deducted"`
	RemainingBalance int64  `json:"remaining_balance"`
	Shortfall        int64  `json:"shortfall"`
}
