package aiservice

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{"id":"cmpl-1","model":"sonar-pro","choices":[{"index":0,"message":{"role":"assistant","content":"  Hello there  "}}]}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newUpstream starts a fake provider and counts the requests it receives.
func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req upstreamRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.NotEmpty(t, req.Messages)
		assert.Positive(t, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	var res errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return res
}

func TestProxyServeHTTP(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK, completionBody)

	testCases := []struct {
		name       string
		method     string
		key        string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			key:        "test-key",
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "Method Not Allowed",
		},
		{
			name:       "missing credential",
			method:     http.MethodPost,
			body:       `{"messages":[{"role":"user","content":"hi"}]}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "AI API key is not configured on the server.",
		},
		{
			name:       "empty object",
			method:     http.MethodPost,
			key:        "test-key",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body: messages array is required.",
		},
		{
			name:       "messages not an array",
			method:     http.MethodPost,
			key:        "test-key",
			body:       `{"messages":"hi"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body: messages array is required.",
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			key:        "test-key",
			body:       `{"messages":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body: messages array is required.",
		},
		{
			name:       "unknown role",
			method:     http.MethodPost,
			key:        "test-key",
			body:       `{"messages":[{"role":"assistant","content":"hi"}]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body: message role must be system or user.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProxy(Config{APIKey: tc.key, Endpoint: upstream.URL}, testLogger())

			rr := httptest.NewRecorder()
			r := httptest.NewRequest(tc.method, "/api/ai", strings.NewReader(tc.body))
			p.ServeHTTP(rr, r)

			assert.Equal(t, tc.wantStatus, rr.Code)
			res := decodeError(t, rr)
			assert.Equal(t, tc.wantError, res.Error)
		})
	}
}

func TestProxyEmptyBodyMentionsMessages(t *testing.T) {
	p := NewProxy(Config{APIKey: "test-key", Endpoint: "http://127.0.0.1:0"}, testLogger())

	rr := httptest.NewRecorder()
	p.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/ai", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeError(t, rr).Error, "messages")
}

func TestProxyForwardsSuccess(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, completionBody)
	p := NewProxy(Config{APIKey: "test-key", Endpoint: upstream.URL}, testLogger())

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/ai", strings.NewReader(`{"messages":[{"role":"system","content":"be brief"},{"role":"user","content":"hi"}],"max_tokens":50}`))
	p.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, completionBody, rr.Body.String())
	assert.Equal(t, int32(1), calls.Load())
}

func TestProxyUpstreamError(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusUnauthorized, `{"error":"invalid key"}`)
	p := NewProxy(Config{APIKey: "test-key", Endpoint: upstream.URL}, testLogger())

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/ai", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	p.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	res := decodeError(t, rr)
	assert.Equal(t, "AI provider returned 401", res.Error)
	assert.Equal(t, `{"error":"invalid key"}`, res.Details)
}

func TestProxyTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	p := NewProxy(Config{APIKey: "test-key", Endpoint: endpoint}, testLogger())

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/ai", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	p.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	res := decodeError(t, rr)
	assert.Equal(t, "Internal server error", res.Error)
	assert.NotEmpty(t, res.Details)
}

func TestProxyRateLimit(t *testing.T) {
	upstream, calls := newUpstream(t, http.StatusOK, completionBody)
	p := NewProxy(Config{APIKey: "test-key", Endpoint: upstream.URL, RatePerMinute: 1}, testLogger())

	send := func() *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/ai", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
		p.ServeHTTP(rr, r)
		return rr
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rr := send()
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, RateLimitedMessage, decodeError(t, rr).Error)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProxyComplete(t *testing.T) {
	ctx := context.Background()
	msgs := []Message{{Role: RoleUser, Content: "hi"}}

	t.Run("not configured", func(t *testing.T) {
		p := NewProxy(Config{}, testLogger())
		_, err := p.Complete(ctx, msgs, 0)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("success", func(t *testing.T) {
		upstream, _ := newUpstream(t, http.StatusOK, completionBody)
		p := NewProxy(Config{APIKey: "test-key", Endpoint: upstream.URL}, testLogger())

		text, err := p.Complete(ctx, msgs, 0)
		require.NoError(t, err)
		assert.Equal(t, "Hello there", text)
	})

	t.Run("upstream rate limit", func(t *testing.T) {
		upstream, _ := newUpstream(t, http.StatusTooManyRequests, `{"error":"slow down"}`)
		p := NewProxy(Config{APIKey: "test-key", Endpoint: upstream.URL}, testLogger())

		_, err := p.Complete(ctx, msgs, 0)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
		assert.True(t, IsRateLimited(err))
	})

	t.Run("empty completion", func(t *testing.T) {
		upstream, _ := newUpstream(t, http.StatusOK, `{"choices":[]}`)
		p := NewProxy(Config{APIKey: "test-key", Endpoint: upstream.URL}, testLogger())

		_, err := p.Complete(ctx, msgs, 0)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}
