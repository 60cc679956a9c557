package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/require"

	"github.com/beyond-api/beyond-cli/internal/config"
	"github.com/beyond-api/beyond-cli/internal/iocontext"
)

// routeHandler routes "METHOD /path" to canned handlers and counts hits.
// Unrouted requests get a 404 with a JSON message.
//
//	handler := newRouteHandler().
//	    On("GET", "/products/1", jsonResponse(200, `{"id": "1"}`)).
//	    On("DELETE", "/products/1", jsonResponse(204, ``))
type routeHandler struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newRouteHandler() *routeHandler {
	return &routeHandler{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}
}

func (h *routeHandler) On(method, path string, fn http.HandlerFunc) *routeHandler {
	h.routes[method+" "+path] = fn
	return h
}

func (h *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	h.mu.Lock()
	h.hits[key]++
	fn, ok := h.routes[key]
	h.mu.Unlock()

	if !ok {
		jsonResponse(http.StatusNotFound, `{"message": "no route for `+key+`"}`)(w, r)
		return
	}
	fn(w, r)
}

// Hits returns how often "METHOD /path" was requested.
func (h *routeHandler) Hits(method, path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[method+" "+path]
}

func jsonResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// testEnv points the CLI at a mock API.
type testEnv struct {
	server *httptest.Server
	ring   keyring.Keyring
}

// setupTestEnv starts a mock API and configures the environment to use it
// with the token "test-token". Retries and the response cache are off and
// the keyring is empty.
func setupTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("BEYOND_API_URL", server.URL)
	t.Setenv("BEYOND_ACCESS_TOKEN", "test-token")
	t.Setenv("BEYOND_REFRESH_TOKEN", "")
	t.Setenv("BEYOND_MAX_5XX_RETRIES", "0")
	t.Setenv("BEYOND_MAX_RATE_LIMIT_RETRIES", "0")
	t.Setenv("BEYOND_NO_CACHE", "1")
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	return &testEnv{server: server, ring: useTestKeyring(t)}
}

// useTestKeyring installs an empty in-memory keyring for the test.
func useTestKeyring(t *testing.T) keyring.Keyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
	return ring
}

type execResult struct {
	stdout string
	stderr string
	err    error
}

// execute runs the CLI with args and captures its streams.
func execute(t *testing.T, args ...string) execResult {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput is execute with stdin set to input.
func executeWithInput(t *testing.T, input string, args ...string) execResult {
	t.Helper()
	var out, errOut bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &iocontext.IO{
		Out:    &out,
		ErrOut: &errOut,
		In:     strings.NewReader(input),
	})
	err := Execute(ctx, args)
	return execResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

func decodeObject(t *testing.T, s string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func decodeList(t *testing.T, s string) []any {
	t.Helper()
	var v []any
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

// readJSONBody decodes a request body into a map.
func readJSONBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Errorf("decode request body: %v", err)
	}
	return body
}
