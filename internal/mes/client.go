package mes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider supplies the current access token and can rebuild it from
// scratch when the backend rejects it.
type TokenProvider interface {
	// Token returns the current access token, or false when none is held
	Token(ctx context.Context) (string, bool)
	// Refresh discards the held token and reruns the full acquisition flow
	Refresh(ctx context.Context) error
}

// Config holds MES client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the HTTP client for the MES backend. It normalizes endpoints
// against the base URL, attaches the X-AUTH header, interprets the
// { code, message, data } envelope and drives the retry policy on failure.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	tokens     TokenProvider
	retry      RetryPolicy
	logger     *zap.Logger
}

// NewClient creates a new MES backend client
func NewClient(cfg Config, tokens TokenProvider, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		retry:      DefaultRetryPolicy,
		logger:     logger,
	}
}

// SetHTTPClient replaces the underlying transport, for tests
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// SetRetryPolicy replaces the retry policy, for tests
func (c *Client) SetRetryPolicy(p RetryPolicy) {
	c.retry = p
}

// Post sends a JSON POST to the given endpoint and returns the parsed
// envelope. body may be nil, a struct/map (JSON encoded) or raw []byte
// (sent untouched). Auth and transient network failures are retried per
// the retry policy; any other error propagates immediately.
func (c *Client) Post(ctx context.Context, endpoint string, body interface{}) (*Envelope, error) {
	url := c.buildURL(endpoint)

	var lastErr error
	for attempt := 0; ; attempt++ {
		env, err := c.do(ctx, url, body)
		if err == nil {
			return env, nil
		}
		lastErr = err

		decision := c.retry(attempt+1, err)
		if !decision.Retry {
			break
		}

		if decision.RefreshAuth {
			c.logger.Info("Auth rejected, refreshing token before retry",
				zap.String("url", url),
				zap.Int("attempt", attempt+1))
			if refreshErr := c.tokens.Refresh(ctx); refreshErr != nil {
				c.logger.Error("Token refresh failed", zap.Error(refreshErr))
				return nil, fmt.Errorf("token refresh failed: %w", refreshErr)
			}
		}

		if decision.Delay > 0 {
			c.logger.Info("Retrying request after backoff",
				zap.String("url", url),
				zap.Duration("backoff", decision.Delay),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(decision.Delay):
			}
		}
	}

	return nil, lastErr
}

// buildURL normalizes an endpoint to an absolute URL. Endpoints that are
// already absolute pass through unchanged.
func (c *Client) buildURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

// do performs a single request/response cycle
func (c *Client) do(ctx context.Context, url string, body interface{}) (*Envelope, error) {
	var reader io.Reader
	rawBody := false
	switch b := body.(type) {
	case nil:
	case []byte:
		// Pre-built bodies go out untouched
		reader = bytes.NewReader(b)
		rawBody = true
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if !rawBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.tokens.Token(ctx); ok {
		req.Header.Set("X-AUTH", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", zap.String("url", url), zap.Error(err))
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

// handleResponse parses the body by content type and maps HTTP and business
// failures onto the error taxonomy.
func (c *Client) handleResponse(resp *http.Response) (*Envelope, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	var env Envelope
	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")
	if isJSON && len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	} else {
		// Text payloads keep the body as the message
		env.Message = strings.TrimSpace(string(raw))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &AuthError{Status: resp.StatusCode, SubCode: env.SubCode, Message: env.Message}
		}
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed: %d", resp.StatusCode)
		}
		return nil, &BusinessError{Code: resp.StatusCode, Message: msg}
	}

	// Even on HTTP 200 the application code can report failure
	if isJSON && !env.Success() {
		c.logger.Warn("Backend reported business failure",
			zap.Int("code", env.CodeValue()),
			zap.String("subCode", env.SubCode),
			zap.String("message", env.Message))
		return nil, env.asError()
	}

	return &env, nil
}
