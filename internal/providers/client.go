// Package providers holds the HTTP clients for the upstream market, sentiment,
// macro, derivatives, candle and on-chain data sources.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/irfndi/coinlens-go/internal/config"
)

const (
	userAgent       = "Coinlens-Go/1.0"
	maxResponseSize = 16 << 20
	defaultTimeout  = 10 * time.Second
)

var (
	// ErrNotFound means the upstream has no data for the requested coin.
	ErrNotFound = errors.New("not found upstream")
	// ErrUnsupported means the coin has no mapping for this provider.
	ErrUnsupported = errors.New("unsupported by provider")
	// ErrMissingAPIKey means the provider requires a key that is not configured.
	ErrMissingAPIKey = errors.New("provider api key not configured")
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Client is the shared JSON-over-HTTP client used by every provider.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	provider   string
	headers    map[string]string
}

// NewClient creates a client for one provider from its config block.
func NewClient(provider string, cfg config.ProviderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		provider:   provider,
		headers:    map[string]string{},
	}
}

// Provider returns the provider name used in errors, logs and metrics.
func (c *Client) Provider() string {
	return c.provider
}

func (c *Client) setHeader(key, value string) {
	c.headers[key] = value
}

// getJSON issues a GET against BaseURL+path and decodes the JSON body into result.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	return c.getJSONFrom(ctx, c.BaseURL, path, params, result)
}

func (c *Client) getJSONFrom(ctx context.Context, baseURL, path string, params url.Values, result interface{}) error {
	endpoint := baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read %s response body: %w", c.provider, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", c.provider, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return &StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Body: snippet}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.provider, err)
	}
	return nil
}
