// Package shiprocket implements the shipment carrier port against the
// Shiprocket external API.
package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/domain/returns"
)

// DefaultBaseURL is the Shiprocket external API root.
const DefaultBaseURL = "https://apiv2.shiprocket.in/v1/external"

// DefaultTokenTTL is how long a login token is reused before refreshing.
// Shiprocket bans accounts that hammer the login endpoint.
const DefaultTokenTTL = 24 * time.Hour

// TokenSource owns the cached carrier credential. It is injected into the
// Client so tests can substitute a fake clock and login endpoint without
// touching process globals. Refresh is idempotent; concurrent callers
// serialize on the mutex and the last writer wins.
type TokenSource struct {
	email      string
	password   string
	loginURL   string
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// TokenSourceConfig holds configuration for a TokenSource.
type TokenSourceConfig struct {
	Email    string
	Password string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// TokenTTL defaults to DefaultTokenTTL.
	TokenTTL time.Duration
	// RequestTimeout bounds the login call. Defaults to 15s.
	RequestTimeout time.Duration
	// Now substitutes the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// NewTokenSource creates a token source for the given credentials.
func NewTokenSource(cfg TokenSourceConfig) (*TokenSource, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("shiprocket credentials are required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenSource{
		email:      cfg.Email,
		password:   cfg.Password,
		loginURL:   baseURL + "/auth/login",
		ttl:        ttl,
		httpClient: &http.Client{Timeout: timeout},
		now:        now,
	}, nil
}

// Token returns the cached token, logging in only when it has expired.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiry) {
		return ts.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"email":    ts.email,
		"password": ts.password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.loginURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", transportError("shiprocket.login", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", returns.NewUpstreamError("shiprocket.login", 0, err.Error(), returns.ErrUpstreamUnavailable)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", returns.NewUpstreamError("shiprocket.login", resp.StatusCode, string(respBody), returns.ErrUpstreamUnavailable)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(respBody, &loginResp); err != nil || loginResp.Token == "" {
		return "", returns.NewUpstreamError("shiprocket.login", resp.StatusCode, string(respBody), returns.ErrUpstreamUnavailable)
	}

	ts.token = loginResp.Token
	ts.expiry = ts.now().Add(ts.ttl)
	return ts.token, nil
}

// Invalidate drops the cached token so the next call logs in again.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expiry = time.Time{}
}

// Client is the Shiprocket API client.
type Client struct {
	baseURL    string
	tokens     *TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientConfig holds configuration for the Shiprocket client.
type ClientConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	Tokens  *TokenSource
	// RequestTimeout bounds each outbound call. Defaults to 20s.
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// NewClient creates a new Shiprocket client around the given token source.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("shiprocket token source is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		tokens:     cfg.Tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// do performs one authenticated call and decodes the response into result.
// It returns the raw body and status so callers can surface the upstream
// payload on business failures; 4xx responses are not decoded.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, result interface{}) ([]byte, int, error) {
	op := "shiprocket" + path

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, transportError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, returns.NewUpstreamError(op, 0, err.Error(), returns.ErrUpstreamUnavailable)
	}

	c.logger.Debug("shiprocket request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		// Stale token; the next call will log in again.
		c.tokens.Invalidate()
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return respBody, resp.StatusCode, returns.NewUpstreamError(op, resp.StatusCode, string(respBody), returns.ErrUpstreamUnavailable)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return respBody, resp.StatusCode, nil
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return respBody, resp.StatusCode, fmt.Errorf("failed to parse shiprocket response: %w", err)
		}
	}

	return respBody, resp.StatusCode, nil
}

func transportError(op string, err error) error {
	sentinel := returns.ErrUpstreamUnavailable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		sentinel = returns.ErrUpstreamTimeout
	}
	return returns.NewUpstreamError(op, 0, err.Error(), sentinel)
}
