package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
)

// Provider generates a design image from a prompt and returns a reference URL.
// The URL is provider-hosted and usually time-limited.
type Provider interface {
	GenerateDesign(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest is the provider call payload.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

// GenerateResponse carries the reference returned by the provider.
type GenerateResponse struct {
	ImageURL string `json:"image_url"`
}

type httpProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvider builds the provider client from config.
func NewHTTPProvider(cfg config.ProviderConfig) (Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base url required")
	}
	return &httpProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *httpProvider) GenerateDesign(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/generations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(b) > 0 {
			return nil, fmt.Errorf("provider returned %s: %s", resp.Status, strings.TrimSpace(string(b)))
		}
		return nil, fmt.Errorf("provider returned %s", resp.Status)
	}

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if out.ImageURL == "" {
		return nil, fmt.Errorf("provider returned no image url")
	}
	return &out, nil
}
