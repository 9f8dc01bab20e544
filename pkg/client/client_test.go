package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testConfig points a client at srv with retries disabled.
func testConfig(srv *httptest.Server) ClientConfig {
	cfg := DefaultClientConfig()
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 0
	cfg.RetryDelay = 0
	return cfg
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

// Tests that retries stop on client errors and the breaker surfaces the last error.
func TestBaseClientNoRetryOn4xx(t *testing.T) {
	calls := 0
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	cfg := testConfig(srv)
	cfg.MaxRetries = 3
	c := NewBaseClient("test", cfg, zap.NewNop())

	_, err := c.GetWithRetry(context.Background(), srv.URL+"/x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "HTTP 401")
	require.Equal(t, 1, calls)
}

// Tests that server errors are retried.
func TestBaseClientRetriesOn5xx(t *testing.T) {
	calls := 0
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	})

	cfg := testConfig(srv)
	cfg.MaxRetries = 3
	c := NewBaseClient("test", cfg, zap.NewNop())

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	require.True(t, out.OK)
	require.Equal(t, 3, calls)
}

// Tests that the credential is masked in logged URLs.
func TestBaseClientRedact(t *testing.T) {
	c := NewBaseClient("test", DefaultClientConfig(), zap.NewNop())
	require.Equal(t, "https://x/SECRET/y", c.redact("https://x/SECRET/y"))

	c.secret = "SECRET"
	require.Equal(t, "https://x/***/y", c.redact("https://x/SECRET/y"))
}
