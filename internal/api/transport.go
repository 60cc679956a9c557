package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/beyond-api/beyond-cli/internal/config"
	"github.com/beyond-api/beyond-cli/internal/debug"
)

// RequestIDHeader carries a per-call ID that stays the same across retries.
const RequestIDHeader = "X-Request-Id"

// maxLoggedBody caps request and response bodies written to debug logs.
const maxLoggedBody = 4 << 10

// TransportRequest is a fully encoded HTTP call.
type TransportRequest struct {
	Method Method
	URL    string
	Header http.Header
	Query  url.Values
	Body   []byte
}

// TransportResponse is a received HTTP response of any status.
type TransportResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a request. It returns an error only when no HTTP response
// was received; every status code, including 4xx and 5xx, is a response.
type Transport interface {
	Send(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*TransportResponse, error)

func (f TransportFunc) Send(ctx context.Context, req *TransportRequest) (*TransportResponse, error) {
	return f(ctx, req)
}

// HTTPTransport sends requests with net/http.
//
// 429 responses to GET requests are retried with exponential backoff or the
// server's Retry-After. 5xx responses to GET requests are retried a bounded
// number of times. The final response is returned as is.
//
// The circuit breaker state persists for the lifetime of the transport.
type HTTPTransport struct {
	HTTP        *http.Client
	RetryConfig RetryConfig
	LogHeaders  bool
	LogBodies   bool

	circuitBreaker *circuitBreaker
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport builds a transport from cfg. open_timeout bounds
// connection setup, timeout bounds the whole exchange.
func NewHTTPTransport(cfg config.Config) *HTTPTransport {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12
	transport.TLSClientConfig.InsecureSkipVerify = false

	if open := cfg.OpenTimeout.Std(); open > 0 {
		dialer := &net.Dialer{Timeout: open, KeepAlive: 30 * time.Second}
		transport.DialContext = dialer.DialContext
		transport.TLSHandshakeTimeout = open
	}

	retryCfg := RetryConfigFrom(cfg)
	return &HTTPTransport{
		HTTP: &http.Client{
			Timeout:   cfg.Timeout.Std(),
			Transport: transport,
		},
		RetryConfig: retryCfg,
		LogHeaders:  cfg.LogHeaders,
		LogBodies:   cfg.LogBodies,
		circuitBreaker: &circuitBreaker{
			threshold: retryCfg.CircuitBreakerThreshold,
			resetTime: retryCfg.CircuitBreakerResetTime,
		},
	}
}

// ResetCircuitBreaker clears failure counts and closes the circuit.
func (t *HTTPTransport) ResetCircuitBreaker() {
	if t.circuitBreaker != nil {
		t.circuitBreaker.reset()
	}
}

func (t *HTTPTransport) Send(ctx context.Context, treq *TransportRequest) (*TransportResponse, error) {
	if t.circuitBreaker != nil && t.circuitBreaker.isOpen() {
		return nil, &CircuitBreakerError{}
	}

	target := treq.URL
	if len(treq.Query) > 0 {
		target += "?" + treq.Query.Encode()
	}
	retryable := treq.Method.retryable()
	requestID := treq.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var budget retryBudget
	attempt := 0

	for {
		attempt++
		start := time.Now()

		var bodyReader io.Reader
		if treq.Body != nil {
			bodyReader = bytes.NewReader(treq.Body)
		}
		req, err := http.NewRequestWithContext(ctx, treq.Method.String(), target, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for key, values := range treq.Header {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
		req.Header.Set(RequestIDHeader, requestID)
		t.logRequest(ctx, req, treq.Body, attempt)

		resp, err := t.HTTP.Do(req)
		if err != nil {
			if debug.IsEnabled(ctx) {
				slog.Debug("request failed", "method", treq.Method, "url", treq.URL, "request_id", requestID, "attempt", attempt, "error", err)
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if rl, ok := ParseRateLimit(resp.Header, time.Now()); ok && rl.Exhausted() {
			slog.Warn("rate limit exhausted", "limit", rl.Limit, "reset_at", rl.Reset, "request_id", requestID)
		}
		t.logResponse(ctx, treq, resp, respBody, attempt, time.Since(start))

		if resp.StatusCode >= 500 && t.circuitBreaker != nil {
			t.circuitBreaker.recordFailure()
		} else if resp.StatusCode >= 200 && resp.StatusCode < 300 && t.circuitBreaker != nil {
			t.circuitBreaker.recordSuccess()
		}

		if retryable {
			if delay, ok := t.RetryConfig.next(resp.StatusCode, resp.Header, &budget); ok {
				slog.Info("retrying request", "status", resp.StatusCode, "delay", delay, "attempt", attempt, "request_id", requestID)
				if err := sleepWithContext(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
		}

		return &TransportResponse{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       respBody,
		}, nil
	}
}

func (t *HTTPTransport) logRequest(ctx context.Context, req *http.Request, body []byte, attempt int) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := []any{"method", req.Method, "url", req.URL.Scheme + "://" + req.URL.Host + req.URL.Path, "request_id", req.Header.Get(RequestIDHeader), "attempt", attempt}
	if q := req.URL.Query(); len(q) > 0 {
		attrs = append(attrs, "query", redactQuery(q))
	}
	if t.LogHeaders {
		attrs = append(attrs, "headers", redactHeaders(req.Header))
	}
	if t.LogBodies && len(body) > 0 {
		attrs = append(attrs, "body", truncateBody(body))
	}
	slog.Debug("request", attrs...)
}

func (t *HTTPTransport) logResponse(ctx context.Context, treq *TransportRequest, resp *http.Response, body []byte, attempt int, elapsed time.Duration) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := []any{"method", treq.Method, "url", treq.URL, "status", resp.StatusCode, "attempt", attempt, "duration", elapsed}
	if t.LogHeaders {
		attrs = append(attrs, "headers", redactHeaders(resp.Header))
	}
	if t.LogBodies && len(body) > 0 {
		attrs = append(attrs, "body", truncateBody(body))
	}
	slog.Debug("request complete", attrs...)
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key := range h {
		if http.CanonicalHeaderKey(key) == "Authorization" {
			out[key] = "[REDACTED]"
			continue
		}
		out[key] = h.Get(key)
	}
	return out
}

// redactQuery hides OAuth grant secrets sent as query parameters.
func redactQuery(q url.Values) string {
	out := make(url.Values, len(q))
	for key, values := range q {
		switch key {
		case "code", "refresh_token", "client_secret":
			out[key] = []string{"[REDACTED]"}
		default:
			out[key] = values
		}
	}
	return out.Encode()
}

func truncateBody(body []byte) string {
	if len(body) <= maxLoggedBody {
		return string(body)
	}
	return string(body[:maxLoggedBody]) + "...(truncated)"
}
