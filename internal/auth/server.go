// Package auth runs the local redirect receiver for the OAuth authorization
// code flow used by "beyond auth login".
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AuthorizePath is the OAuth authorization endpoint, relative to the API URL.
const AuthorizePath = "/oauth/authorize"

// CallbackPath is where the authorization server redirects the browser.
const CallbackPath = "/callback"

// ErrStateMismatch is returned when the callback carries a state value that
// was not issued by this server.
var ErrStateMismatch = errors.New("oauth state mismatch")

// CallbackResult is the outcome of one authorization round trip.
type CallbackResult struct {
	Code  string
	Error error
}

// CallbackServer receives the authorization code on a loopback address.
type CallbackServer struct {
	apiURL   string
	clientID string
	addr     string
	state    string
	result   chan CallbackResult
}

// NewCallbackServer creates a receiver for an authorization request against
// apiURL. addr is the loopback listen address; empty picks a free port.
func NewCallbackServer(apiURL, clientID, addr string) (*CallbackServer, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	return &CallbackServer{
		apiURL:   strings.TrimSuffix(apiURL, "/"),
		clientID: clientID,
		addr:     addr,
		state:    hex.EncodeToString(stateBytes),
		result:   make(chan CallbackResult, 1),
	}, nil
}

// State returns the anti-forgery value sent with the authorization request.
func (s *CallbackServer) State() string {
	return s.state
}

// AuthorizeURL builds the URL the user opens to grant access.
func (s *CallbackServer) AuthorizeURL(redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", s.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", redirectURI)
	q.Set("state", s.state)
	return s.apiURL + AuthorizePath + "?" + q.Encode()
}

// Start listens for the redirect, prints the authorization URL to out and
// tries to open it in a browser. It returns once a callback arrives or ctx
// is done.
func (s *CallbackServer) Start(ctx context.Context, out io.Writer) (*CallbackResult, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	redirectURI := fmt.Sprintf("http://%s%s", listener.Addr().String(), CallbackPath)

	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		_ = server.Serve(listener)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
		}
	}()

	authorizeURL := s.AuthorizeURL(redirectURI)
	_, _ = fmt.Fprintf(out, "Open this URL in your browser to authorize the CLI:\n  %s\n", authorizeURL)
	if err := openBrowser(authorizeURL); err != nil {
		_, _ = fmt.Fprintf(out, "Could not open browser automatically: %v\n", err)
	}

	select {
	case result := <-s.result:
		return &result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Handler serves the callback endpoint. Methods other than GET get a 405.
func (s *CallbackServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Get(CallbackPath, s.handleCallback)
	return r
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("state") != s.state {
		renderPage(w, http.StatusForbidden, failurePage, ErrStateMismatch.Error())
		s.deliver(CallbackResult{Error: ErrStateMismatch})
		return
	}

	if reason := q.Get("error"); reason != "" {
		if desc := q.Get("error_description"); desc != "" {
			reason = reason + ": " + desc
		}
		renderPage(w, http.StatusOK, failurePage, reason)
		s.deliver(CallbackResult{Error: fmt.Errorf("authorization denied: %s", reason)})
		return
	}

	code := q.Get("code")
	if code == "" {
		renderPage(w, http.StatusBadRequest, failurePage, "missing authorization code")
		s.deliver(CallbackResult{Error: errors.New("callback did not include an authorization code")})
		return
	}

	renderPage(w, http.StatusOK, successPage, "")
	s.deliver(CallbackResult{Code: code})
}

// deliver keeps the first result; later callbacks are ignored.
func (s *CallbackServer) deliver(result CallbackResult) {
	select {
	case s.result <- result:
	default:
	}
}

var (
	successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>beyond-cli</title></head>
<body><h1>Authorization complete</h1><p>You can close this window and return to the terminal.</p></body></html>
`))
	failurePage = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>beyond-cli</title></head>
<body><h1>Authorization failed</h1><p>{{.}}</p></body></html>
`))
)

func renderPage(w http.ResponseWriter, status int, tmpl *template.Template, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = tmpl.Execute(w, message)
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	if shouldSkipAutoBrowserOpen() {
		return nil
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}

func shouldSkipAutoBrowserOpen() bool {
	if flag.Lookup("test.v") != nil {
		return true
	}
	switch strings.TrimSpace(strings.ToLower(os.Getenv("BEYOND_NO_BROWSER"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
