package mock

import (
	"context"

	"github.com/oozye1/florist-sub000/internal/assistant"
)

// Provider is a mock assistant that returns canned listing copy. It is
// intended for development and testing purposes.
type Provider struct{}

// NewProvider creates a new mock assistant provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// Suggest returns a deterministic suggestion derived from the hint so tests
// can assert on it.
func (p *Provider) Suggest(_ context.Context, input *assistant.SuggestInput) (*assistant.Suggestion, error) {
	name := "Seasonal Bouquet"
	if input.Hint != "" {
		name = input.Hint
	}

	return &assistant.Suggestion{
		Name:        name,
		Description: "A hand-tied arrangement of seasonal stems, wrapped in kraft paper.",
		Category:    "bouquets",
		Tags:        []string{"seasonal", "hand-tied"},
		Price:       3500,
	}, nil
}
