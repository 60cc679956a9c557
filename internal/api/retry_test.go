package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/beyond-api/beyond-cli/internal/config"
)

func TestCircuitBreaker_RecordSuccess(t *testing.T) {
	cb := &circuitBreaker{}
	cb.recordFailure()
	cb.recordFailure()
	cb.recordSuccess()

	if cb.failures != 0 {
		t.Error("recordSuccess should reset failures to 0")
	}
	if cb.isOpen() {
		t.Error("circuit should be closed after success")
	}
}

func TestCircuitBreaker_DefaultThreshold(t *testing.T) {
	cb := &circuitBreaker{}
	for i := 0; i < config.DefaultCircuitBreakerThreshold-1; i++ {
		cb.recordFailure()
	}
	if cb.isOpen() {
		t.Error("circuit should stay closed below the threshold")
	}
	if !cb.recordFailure() {
		t.Error("recordFailure should report the circuit opening")
	}
	if !cb.isOpen() {
		t.Error("circuit should be open at the threshold")
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := &circuitBreaker{threshold: 1, resetTime: 10 * time.Millisecond}

	cb.recordFailure()
	if !cb.isOpen() {
		t.Fatal("circuit should be open after 1 failure")
	}

	time.Sleep(15 * time.Millisecond)
	if cb.isOpen() {
		t.Fatal("circuit should let a probe through after the reset time")
	}

	if !cb.recordFailure() {
		t.Error("a failed probe should re-open the circuit")
	}
	if !cb.isOpen() {
		t.Error("circuit should be open again after a failed probe")
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := &circuitBreaker{threshold: 1}
	cb.recordFailure()
	cb.reset()
	if cb.isOpen() || cb.failures != 0 || !cb.lastFailure.IsZero() {
		t.Error("reset should clear all state")
	}
}

func TestRetryConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.MaxRateLimitRetries = 7
	cfg.ServerErrorDelay = config.Duration(250 * time.Millisecond)

	rc := RetryConfigFrom(cfg)
	if rc.MaxRateLimitRetries != 7 {
		t.Errorf("MaxRateLimitRetries = %d, want 7", rc.MaxRateLimitRetries)
	}
	if rc.ServerErrorRetryDelay != 250*time.Millisecond {
		t.Errorf("ServerErrorRetryDelay = %v, want 250ms", rc.ServerErrorRetryDelay)
	}

	def := DefaultRetryConfig()
	if def.Max5xxRetries != config.DefaultMax5xxRetries || def.CircuitBreakerResetTime != config.DefaultCircuitBreakerResetTime {
		t.Errorf("Unexpected defaults: %+v", def)
	}
}

func TestRetryConfig_Next(t *testing.T) {
	c := RetryConfig{
		MaxRateLimitRetries:   3,
		Max5xxRetries:         1,
		RateLimitBaseDelay:    100 * time.Millisecond,
		ServerErrorRetryDelay: time.Second,
	}
	var b retryBudget

	for i, want := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond} {
		got, ok := c.next(http.StatusTooManyRequests, http.Header{}, &b)
		if !ok || got != want {
			t.Errorf("429 retry %d = %v, %v; want %v, true", i, got, ok, want)
		}
	}
	if _, ok := c.next(http.StatusTooManyRequests, http.Header{}, &b); ok {
		t.Error("Expected the 429 budget to be spent")
	}

	if got, ok := c.next(http.StatusBadGateway, nil, &b); !ok || got != time.Second {
		t.Errorf("5xx retry = %v, %v", got, ok)
	}
	if _, ok := c.next(http.StatusBadGateway, nil, &b); ok {
		t.Error("Expected the 5xx budget to be spent")
	}
	if _, ok := c.next(http.StatusNotFound, nil, &retryBudget{}); ok {
		t.Error("4xx must not be retried")
	}

	h := http.Header{}
	h.Set("Retry-After", "2")
	if got, _ := c.next(http.StatusTooManyRequests, h, &retryBudget{}); got != 2*time.Second {
		t.Errorf("Retry-After delay = %v, want 2s", got)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
		ok    bool
	}{
		{"", 0, false},
		{"5", 5 * time.Second, true},
		{"-3", 0, true},
		{"soon", 0, false},
		{time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat), 0, true},
	}

	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		got, ok := retryAfter(h)
		if got != tt.want || ok != tt.ok {
			t.Errorf("retryAfter(%q) = %v, %v; want %v, %v", tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSleepWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Hour); err == nil {
		t.Error("Expected context error")
	}
	if err := sleepWithContext(context.Background(), 0); err != nil {
		t.Errorf("Expected zero duration to return immediately, got %v", err)
	}
}
