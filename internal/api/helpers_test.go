package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beyond-api/beyond-cli/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ClientID = "client-id"
	cfg.ClientSecret = "client-secret"
	cfg.RateLimitDelay = 0
	cfg.ServerErrorDelay = 0
	return cfg
}

// newTestClient starts a server for handler and returns a client and a
// session pointing at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *Session) {
	t.Helper()
	return newTestClientWithConfig(t, testConfig(), handler)
}

func newTestClientWithConfig(t *testing.T, cfg config.Config, handler http.HandlerFunc) (*Client, *Session) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.APIURL = server.URL
	return New(cfg, nil), NewSession(server.URL, "test-token", "test-refresh")
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func decodeRequestBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
	return body
}
