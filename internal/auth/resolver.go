package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Backend auth endpoints, relative to the API base URL
const (
	loginPath         = "/user/domain/web/v1/login"
	codeExchangePath  = "/openapiadmin/domain/web/v1/access_token/_code"
	tokenExchangePath = "/openapi/domain/api/v1/access_token/_get_user_token_for_customized"
)

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials are the fixed operator credentials submitted to the login
// endpoint.
type Credentials struct {
	Type     int    `json:"type"`
	Username string `json:"username"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// Config holds resolver configuration
type Config struct {
	BaseURL string
	AppKey  string
	// ExternalCode, when set, short-circuits the login flow: the code is
	// exchanged for a user token directly.
	ExternalCode string
	TokenKey     string
	TokenTTL     time.Duration
	Login        Credentials
}

// Resolver obtains and holds the user access token. Acquisition is a linear
// three-step exchange (login -> code -> token), or a single code exchange
// when an authorization code was supplied externally. The token persists in
// the store for a fixed window; a stored token past expiry is discarded and
// treated as absent.
//
// Refresh is mutex-guarded: concurrent callers serialize and each runs a
// full reset. The resolver itself is safe for concurrent use.
type Resolver struct {
	cfg        Config
	store      Store
	httpClient HTTPClient
	logger     *zap.Logger

	mu    sync.Mutex
	token string
}

// NewResolver creates a new auth resolver
func NewResolver(cfg Config, store Store, logger *zap.Logger) *Resolver {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Resolver{
		cfg:        cfg,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// SetHTTPClient replaces the underlying transport, for tests
func (r *Resolver) SetHTTPClient(hc HTTPClient) {
	r.httpClient = hc
}

// Token returns the current access token without touching the network.
// It consults the in-memory copy first, then the persisted record; an
// expired record is cleared and reported as absent.
func (r *Resolver) Token(ctx context.Context) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokenLocked()
}

func (r *Resolver) tokenLocked() (string, bool) {
	if r.token != "" {
		return r.token, true
	}

	rec, err := r.store.Load(r.cfg.TokenKey)
	if err != nil {
		r.logger.Warn("Failed to load stored token", zap.Error(err))
		return "", false
	}
	if rec == nil {
		return "", false
	}
	if rec.Expired(time.Now()) {
		r.logger.Info("Stored token expired, discarding")
		if err := r.store.Clear(r.cfg.TokenKey); err != nil {
			r.logger.Warn("Failed to clear expired token", zap.Error(err))
		}
		return "", false
	}

	r.token = rec.Token
	return r.token, true
}

// Ensure makes sure a usable token is held, acquiring one if necessary
func (r *Resolver) Ensure(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokenLocked(); ok {
		return nil
	}
	return r.acquireLocked(ctx)
}

// Refresh discards the held token and reruns the full acquisition flow.
// Called by the API client when the backend rejects the current token, so
// the failed business call can be retried exactly once.
func (r *Resolver) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Info("Refreshing access token")
	r.token = ""
	if err := r.store.Clear(r.cfg.TokenKey); err != nil {
		r.logger.Warn("Failed to clear stored token", zap.Error(err))
	}
	return r.acquireLocked(ctx)
}

// acquireLocked runs the exchange state machine. Callers hold r.mu.
func (r *Resolver) acquireLocked(ctx context.Context) error {
	code := r.cfg.ExternalCode
	if code == "" {
		loginToken, err := r.login(ctx)
		if err != nil {
			return err
		}

		code, err = r.exchangeCode(ctx, loginToken)
		if err != nil {
			return err
		}
	} else {
		r.logger.Info("Using externally supplied authorization code")
	}

	token, err := r.exchangeToken(ctx, code)
	if err != nil {
		return err
	}

	now := time.Now()
	rec := &Record{
		Token:     token,
		Timestamp: now.UnixMilli(),
		ExpiresAt: now.Add(r.cfg.TokenTTL).UnixMilli(),
	}
	if err := r.store.Save(r.cfg.TokenKey, rec); err != nil {
		r.logger.Warn("Failed to persist token", zap.Error(err))
	}

	r.token = token
	r.logger.Info("Access token acquired",
		zap.Time("expires_at", time.UnixMilli(rec.ExpiresAt)))
	return nil
}

// login submits the fixed credentials and returns the login token
func (r *Resolver) login(ctx context.Context) (string, error) {
	payload, err := r.postJSON(ctx, loginPath, nil, r.cfg.Login)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}

	if !responseSuccessful(payload) {
		if msg := responseMessage(payload); msg != "" {
			return "", fmt.Errorf("login failed: %s", msg)
		}
		return "", fmt.Errorf("login failed: backend reported failure")
	}

	token, ok := extractString(payload, loginTokenFields)
	if !ok {
		return "", fmt.Errorf("login response has no token")
	}
	return token, nil
}

// exchangeCode trades the login token for a short-lived authorization code
func (r *Resolver) exchangeCode(ctx context.Context, loginToken string) (string, error) {
	headers := map[string]string{"X-AUTH": loginToken}
	payload, err := r.postJSON(ctx, codeExchangePath, headers, nil)
	if err != nil {
		return "", fmt.Errorf("code exchange failed: %w", err)
	}

	if !responseSuccessful(payload) {
		if msg := responseMessage(payload); msg != "" {
			return "", fmt.Errorf("code exchange failed: %s", msg)
		}
		return "", fmt.Errorf("code exchange failed: backend reported failure")
	}

	code, ok := extractString(payload, exchangeCodeFields)
	if !ok {
		return "", fmt.Errorf("code exchange response has no code")
	}
	return code, nil
}

// exchangeToken trades the authorization code for the user access token
func (r *Resolver) exchangeToken(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("authorization code is empty")
	}

	body := map[string]string{"code": code, "appKey": r.cfg.AppKey}
	payload, err := r.postJSON(ctx, tokenExchangePath, nil, body)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	if !responseSuccessful(payload) {
		if msg := responseMessage(payload); msg != "" {
			return "", fmt.Errorf("token exchange failed: %s", msg)
		}
		return "", fmt.Errorf("token exchange failed: backend reported failure")
	}

	token, ok := extractString(payload, accessTokenFields)
	if !ok {
		return "", fmt.Errorf("token exchange response has no token")
	}
	return token, nil
}

// postJSON performs one POST against an auth endpoint and decodes the JSON
// payload into a generic map for the extraction strategies. Auth steps fail
// hard; there is no retry at this level.
func (r *Resolver) postJSON(ctx context.Context, path string, headers map[string]string, body interface{}) (map[string]interface{}, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := strings.TrimSuffix(r.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return payload, nil
}
