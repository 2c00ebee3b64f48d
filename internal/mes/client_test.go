package mes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTokens is a TokenProvider whose refresh swaps in a new token
type fakeTokens struct {
	token    string
	next     string
	refreshes int32
}

func (f *fakeTokens) Token(ctx context.Context) (string, bool) {
	return f.token, f.token != ""
}

func (f *fakeTokens) Refresh(ctx context.Context) error {
	atomic.AddInt32(&f.refreshes, 1)
	f.token = f.next
	return nil
}

func newTestClient(t *testing.T, baseURL string, tokens TokenProvider) *Client {
	t.Helper()
	if tokens == nil {
		tokens = &fakeTokens{}
	}
	return NewClient(Config{BaseURL: baseURL}, tokens, zap.NewNop())
}

func TestBuildURL(t *testing.T) {
	c := newTestClient(t, "https://backend.example/api", nil)

	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"relative with slash", "/user/v1/login", "https://backend.example/api/user/v1/login"},
		{"relative without slash", "user/v1/login", "https://backend.example/api/user/v1/login"},
		{"absolute passthrough", "https://other.example/x", "https://other.example/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.buildURL(tt.endpoint))
		})
	}
}

func TestPostAttachesAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-AUTH")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"message":"ok","data":{}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, &fakeTokens{token: "tok-1"})

	env, err := c.Post(context.Background(), "/any", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.True(t, env.Success())
	assert.Equal(t, "tok-1", gotAuth)
}

func TestPostBusinessErrorCarriesServerMessage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":500,"subCode":"ORDER_LOCKED","message":"work order is locked"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)

	_, err := c.Post(context.Background(), "/list", nil)
	require.Error(t, err)
	assert.True(t, IsBusinessError(err))
	assert.Contains(t, err.Error(), "work order is locked")
	// Business errors are never retried
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostRefreshesTokenOn401AndRetriesOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		// The retry must carry the refreshed token
		if r.Header.Get("X-AUTH") != "tok-new" {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"still stale"}`))
			return
		}
		w.Write([]byte(`{"code":0,"message":"ok","data":{"value":1}}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "tok-old", next: "tok-new"}
	c := newTestClient(t, srv.URL, tokens)

	env, err := c.Post(context.Background(), "/biz", map[string]int{"x": 1})
	require.NoError(t, err)
	assert.True(t, env.Success())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "original call plus exactly one retry")
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokens.refreshes))
}

func TestPostAuthFlavoredBusinessCodeTriggersRefresh(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.Write([]byte(`{"code":1001,"subCode":"USER_TOKEN_NOT_EXIST","message":"invalid token"}`))
			return
		}
		w.Write([]byte(`{"code":200,"message":"ok","data":{}}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "tok-old", next: "tok-new"}
	c := newTestClient(t, srv.URL, tokens)

	_, err := c.Post(context.Background(), "/biz", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokens.refreshes))
}

func TestPostNetworkErrorAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately unreachable

	c := newTestClient(t, srv.URL, nil)
	// No backoff in tests
	c.SetRetryPolicy(func(attempt int, err error) RetryDecision {
		if attempt > DefaultMaxRetries {
			return RetryDecision{}
		}
		if IsNetworkError(err) {
			return RetryDecision{Retry: true}
		}
		return RetryDecision{}
	})

	_, err := c.Post(context.Background(), "/biz", nil)
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestHandleResponseTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)

	_, err := c.Post(context.Background(), "/biz", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestEnvelopeSuccess(t *testing.T) {
	code := func(n int) *int { return &n }

	tests := []struct {
		name string
		env  Envelope
		want bool
	}{
		{"code 0", Envelope{Code: code(0)}, true},
		{"code 200", Envelope{Code: code(200)}, true},
		{"absent code", Envelope{}, true},
		{"code 500", Envelope{Code: code(500)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.env.Success())
		})
	}
}

func TestEnvelopeDecodeData(t *testing.T) {
	env := Envelope{Data: json.RawMessage(`{"list":[1,2,3]}`)}

	var data struct {
		List []int `json:"list"`
	}
	require.NoError(t, env.DecodeData(&data))
	assert.Equal(t, []int{1, 2, 3}, data.List)

	empty := Envelope{}
	assert.Error(t, empty.DecodeData(&data))
}
