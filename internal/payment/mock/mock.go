package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oozye1/florist-sub000/internal/payment"
)

// Provider is a mock payment gateway that always succeeds. It is intended
// for development and testing purposes.
type Provider struct{}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// Charge simulates a payment charge that always succeeds.
func (p *Provider) Charge(_ context.Context, _ *payment.ChargeInput) (*payment.ChargeResult, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	return &payment.ChargeResult{
		ProviderPaymentID: "mock_pay_" + uuid.New().String(),
		Status:            payment.StatusSucceeded,
	}, nil
}

// Refund simulates a payment refund that always succeeds.
func (p *Provider) Refund(_ context.Context, _ *payment.RefundInput) (*payment.RefundResult, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	return &payment.RefundResult{
		ProviderRefundID: "mock_ref_" + uuid.New().String(),
		Status:           payment.StatusSucceeded,
	}, nil
}
