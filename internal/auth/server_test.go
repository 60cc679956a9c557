package auth

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestNewCallbackServer(t *testing.T) {
	t.Run("creates server with random state", func(t *testing.T) {
		s1, err := NewCallbackServer("https://shop.example/api/", "cid", "")
		if err != nil {
			t.Fatalf("NewCallbackServer() error = %v", err)
		}
		s2, err := NewCallbackServer("https://shop.example/api", "cid", "")
		if err != nil {
			t.Fatalf("NewCallbackServer() error = %v", err)
		}

		if len(s1.State()) != 64 {
			t.Errorf("state length = %d, want 64", len(s1.State()))
		}
		if s1.State() == s2.State() {
			t.Error("expected distinct state values")
		}
		if s1.addr != "127.0.0.1:0" {
			t.Errorf("addr = %q, want loopback default", s1.addr)
		}
		if s1.apiURL != "https://shop.example/api" {
			t.Errorf("apiURL = %q, trailing slash not trimmed", s1.apiURL)
		}
	})
}

func TestAuthorizeURL(t *testing.T) {
	s, err := NewCallbackServer("https://shop.example/api", "my-client", "")
	if err != nil {
		t.Fatal(err)
	}

	raw := s.AuthorizeURL("http://127.0.0.1:8085/callback")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid authorize URL %q: %v", raw, err)
	}
	if u.Path != "/api/oauth/authorize" {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	want := map[string]string{
		"client_id":     "my-client",
		"response_type": "code",
		"redirect_uri":  "http://127.0.0.1:8085/callback",
		"state":         s.State(),
	}
	for key, value := range want {
		if got := q.Get(key); got != value {
			t.Errorf("%s = %q, want %q", key, got, value)
		}
	}
}

func callback(t *testing.T, s *CallbackServer, method, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, CallbackPath+"?"+query, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleCallback(t *testing.T) {
	t.Run("delivers code", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		rec := callback(t, s, http.MethodGet, "code=abc&state="+s.State())

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization complete") {
			t.Errorf("unexpected page: %s", rec.Body.String())
		}
		result := <-s.result
		if result.Error != nil || result.Code != "abc" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("rejects foreign state", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		rec := callback(t, s, http.MethodGet, "code=abc&state=forged")

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		result := <-s.result
		if !errors.Is(result.Error, ErrStateMismatch) {
			t.Errorf("error = %v, want ErrStateMismatch", result.Error)
		}
	})

	t.Run("reports denial", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		rec := callback(t, s, http.MethodGet, "error=access_denied&error_description=nope&state="+s.State())

		if !strings.Contains(rec.Body.String(), "access_denied: nope") {
			t.Errorf("page does not show reason: %s", rec.Body.String())
		}
		result := <-s.result
		if result.Error == nil || !strings.Contains(result.Error.Error(), "access_denied") {
			t.Errorf("error = %v", result.Error)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		rec := callback(t, s, http.MethodGet, "state="+s.State())

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if result := <-s.result; result.Error == nil {
			t.Error("expected an error result")
		}
	})

	t.Run("escapes reason", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		rec := callback(t, s, http.MethodGet, "error=%3Cscript%3E&state="+s.State())

		if strings.Contains(rec.Body.String(), "<script>") {
			t.Error("reason was not HTML escaped")
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		rec := callback(t, s, http.MethodPost, "code=abc&state="+s.State())

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})

	t.Run("pages are not cached", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		rec := callback(t, s, http.MethodGet, "code=abc&state="+s.State())

		if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
			t.Errorf("Cache-Control = %q, want no-cache", cc)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("keeps first result", func(t *testing.T) {
		s, _ := NewCallbackServer("https://shop.example/api", "cid", "")
		callback(t, s, http.MethodGet, "code=first&state="+s.State())
		callback(t, s, http.MethodGet, "code=second&state="+s.State())

		if result := <-s.result; result.Code != "first" {
			t.Errorf("code = %q, want first", result.Code)
		}
	})
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestStartReceivesCallback(t *testing.T) {
	addr := freeAddr(t)
	s, err := NewCallbackServer("https://shop.example/api", "cid", addr)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type outcome struct {
		result *CallbackResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.Start(ctx, io.Discard)
		done <- outcome{result, err}
	}()

	target := "http://" + addr + CallbackPath + "?code=live&state=" + s.State()
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(target)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("callback request failed: %v", err)
	}
	_ = resp.Body.Close()

	got := <-done
	if got.err != nil {
		t.Fatalf("Start() error = %v", got.err)
	}
	if got.result.Code != "live" {
		t.Errorf("code = %q, want live", got.result.Code)
	}
}

func TestStartContextCancellation(t *testing.T) {
	s, err := NewCallbackServer("https://shop.example/api", "cid", "")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := s.Start(ctx, io.Discard)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
}

func TestOpenBrowserSkippedUnderTest(t *testing.T) {
	if !shouldSkipAutoBrowserOpen() {
		t.Error("browser launch should be skipped under go test")
	}
	if err := openBrowser("http://127.0.0.1:1"); err != nil {
		t.Errorf("openBrowser() error = %v", err)
	}
}
