// Package shopify implements the order directory port against the Shopify
// admin REST API.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
)

// DefaultAPIVersion is the admin API version the endpoints are pinned to.
const DefaultAPIVersion = "2024-01"

const accessTokenHeader = "X-Shopify-Access-Token"

// Client is the Shopify admin API client. All calls it makes are read-only.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// ClientConfig holds configuration for the Shopify client.
type ClientConfig struct {
	// StoreDomain is the myshopify domain, e.g. "acme.myshopify.com".
	StoreDomain string
	AccessToken string
	// APIVersion defaults to DefaultAPIVersion.
	APIVersion string
	// RequestTimeout bounds each outbound call. Defaults to 15s.
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewClient creates a new Shopify admin API client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.StoreDomain == "" {
		return nil, fmt.Errorf("shopify store domain is required")
	}

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:     fmt.Sprintf("https://%s/admin/api/%s", cfg.StoreDomain, version),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

// get performs one GET against the admin API and decodes the response into
// result. Transport failures and 5xx responses map onto the domain's
// transient error sentinels so callers can tell "retry later" from "no".
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(accessTokenHeader, c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return returns.NewUpstreamError("shopify"+path, 0, err.Error(), returns.ErrUpstreamUnavailable)
	}

	c.logger.Debug("shopify request completed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("shopify request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return returns.NewUpstreamError("shopify"+path, resp.StatusCode, string(body), returns.ErrUpstreamUnavailable)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse shopify response: %w", err)
		}
	}

	return nil
}

func (c *Client) transportError(path string, err error) error {
	sentinel := returns.ErrUpstreamUnavailable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		sentinel = returns.ErrUpstreamTimeout
	}
	return returns.NewUpstreamError("shopify"+path, 0, err.Error(), sentinel)
}
