package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func testConfig() *Config {
	return &Config{
		Port:           "4000",
		Environment:    "testing",
		Version:        "1.0.0",
		TrustedOrigins: []string{"http://localhost:3000"},
		SiteURL:        "http://blogify.test",
		StoreBackend:   "memory",
		AIModel:        "sonar-pro",
	}
}

func newTestApplication(t *testing.T, cfg *Config) *application {
	t.Helper()

	if cfg == nil {
		cfg = testConfig()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, cleanup, err := newApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	return app
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatalf("could not decode %q: %v", responseBody, err)
	}

	return res.StatusCode, res.Header, envelope
}

func (ts *testServer) do(t *testing.T, method, path, secret string, payload any) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path, secret string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, secret, nil)
}

func (ts *testServer) post(t *testing.T, path, secret string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, secret, payload)
}

func (ts *testServer) patch(t *testing.T, path, secret string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPatch, path, secret, payload)
}

func (ts *testServer) delete(t *testing.T, path, secret string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, secret, nil)
}

// register signs up a user and returns the session secret.
func (ts *testServer) register(t *testing.T, name, email string) string {
	t.Helper()

	code, _, body := ts.post(t, "/v1/users/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code, body.JSON())

	login := body["login"].(map[string]any)
	return login["secret"].(string)
}

// createPost creates a post and returns its slug.
func (ts *testServer) createPost(t *testing.T, secret string, payload map[string]any) string {
	t.Helper()

	code, _, body := ts.post(t, "/v1/posts", secret, payload)
	require.Equal(t, http.StatusCreated, code, body.JSON())

	post := body["post"].(map[string]any)
	return post["id"].(string)
}
