// Package httpapi implements the assistant provider against a remote
// vision API over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oozye1/florist-sub000/internal/assistant"
	"github.com/oozye1/florist-sub000/pkg/httpclient"
)

// Config holds the remote API settings.
type Config struct {
	BaseURL string
	APIKey  string
}

// Provider calls a remote vision API to generate listing copy. Requests go
// through a circuit breaker so a slow or failing vendor cannot stall the
// back office.
type Provider struct {
	cfg    Config
	client *httpclient.CircuitBreakerClient
	logger *slog.Logger
}

// NewProvider creates an HTTP-backed assistant provider.
func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("assistant"), logger)
	return &Provider{
		cfg:    cfg,
		client: cb,
		logger: logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "httpapi"
}

type suggestRequest struct {
	ImageURL string `json:"image_url"`
	Hint     string `json:"hint,omitempty"`
}

// Suggest posts the photo URL to the vendor and decodes the suggestion.
func (p *Provider) Suggest(ctx context.Context, input *assistant.SuggestInput) (*assistant.Suggestion, error) {
	payload, err := json.Marshal(suggestRequest{
		ImageURL: input.ImageURL,
		Hint:     input.Hint,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal suggest request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/suggest", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build suggest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call assistant api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "assistant")
	}

	var suggestion assistant.Suggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return nil, fmt.Errorf("decode suggestion: %w", err)
	}

	p.logger.DebugContext(ctx, "assistant suggestion received",
		slog.String("image_url", input.ImageURL),
		slog.String("category", suggestion.Category),
	)

	return &suggestion, nil
}
