// Package assistant defines the product description autofill abstraction.
// A provider takes a product photo and returns suggested listing copy for
// the back office to review before publishing.
package assistant

import "context"

// SuggestInput holds the parameters for an autofill request.
type SuggestInput struct {
	ImageURL string
	Hint     string
}

// Suggestion is the generated listing copy for a product photo. Every field
// is a proposal; nothing is persisted until an admin accepts it.
type Suggestion struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Price       int64    `json:"price"`
}

// Provider defines the interface for autofill backends.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "httpapi").
	Name() string

	// Suggest generates listing copy for the given product photo.
	Suggest(ctx context.Context, input *SuggestInput) (*Suggestion, error)
}
