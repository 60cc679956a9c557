package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beyond-api/beyond-cli/internal/config"
)

// RetryConfig is the transport retry policy plus the circuit breaker knobs.
type RetryConfig struct {
	MaxRateLimitRetries     int
	Max5xxRetries           int
	RateLimitBaseDelay      time.Duration
	ServerErrorRetryDelay   time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerResetTime time.Duration
}

// RetryConfigFrom copies the retry settings out of cfg.
func RetryConfigFrom(cfg config.Config) RetryConfig {
	return RetryConfig{
		MaxRateLimitRetries:     cfg.MaxRateLimitRetries,
		Max5xxRetries:           cfg.Max5xxRetries,
		RateLimitBaseDelay:      cfg.RateLimitDelay.Std(),
		ServerErrorRetryDelay:   cfg.ServerErrorDelay.Std(),
		CircuitBreakerThreshold: cfg.CircuitBreakerThreshold,
		CircuitBreakerResetTime: cfg.CircuitBreakerResetTime.Std(),
	}
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfigFrom(config.Default())
}

// retryBudget counts the retries already spent on one logical request.
type retryBudget struct {
	rateLimited  int
	serverErrors int
}

// next decides whether a response should be retried and after how long.
// 429 backs off exponentially from RateLimitBaseDelay unless the API sent
// Retry-After; 5xx waits ServerErrorRetryDelay. Each class has its own cap.
func (c RetryConfig) next(status int, h http.Header, b *retryBudget) (time.Duration, bool) {
	switch {
	case status == http.StatusTooManyRequests:
		if b.rateLimited >= c.MaxRateLimitRetries {
			return 0, false
		}
		delay, ok := retryAfter(h)
		if !ok {
			delay = c.RateLimitBaseDelay << b.rateLimited
		}
		b.rateLimited++
		return delay, true
	case status >= 500:
		if b.serverErrors >= c.Max5xxRetries {
			return 0, false
		}
		b.serverErrors++
		return c.ServerErrorRetryDelay, true
	}
	return 0, false
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	// breakerProbing lets requests through after the reset time; the next
	// outcome closes or re-opens the circuit.
	breakerProbing
)

// circuitBreaker stops sending after threshold consecutive 5xx responses.
type circuitBreaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time
	threshold   int
	resetTime   time.Duration
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.state = breakerClosed
}

// recordFailure reports whether this failure opened the circuit.
func (cb *circuitBreaker) recordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case breakerProbing:
		cb.state = breakerOpen
		return true
	case breakerClosed:
		threshold := cb.threshold
		if threshold <= 0 {
			threshold = config.DefaultCircuitBreakerThreshold
		}
		if cb.failures >= threshold {
			cb.state = breakerOpen
			return true
		}
	}
	return false
}

// isOpen reports whether requests must be rejected. An open circuit turns
// into a probing one once resetTime has passed since the last failure.
func (cb *circuitBreaker) isOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != breakerOpen {
		return false
	}
	resetTime := cb.resetTime
	if resetTime <= 0 {
		resetTime = config.DefaultCircuitBreakerResetTime
	}
	if time.Since(cb.lastFailure) < resetTime {
		return true
	}
	cb.state = breakerProbing
	return false
}

func (cb *circuitBreaker) reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = breakerClosed
	cb.failures = 0
	cb.lastFailure = time.Time{}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryAfter reads Retry-After as delta seconds or an HTTP date. Past dates
// and negative values mean no wait.
func retryAfter(h http.Header) (time.Duration, bool) {
	value := strings.TrimSpace(h.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return max(time.Duration(secs)*time.Second, 0), true
	}
	if at, err := http.ParseTime(value); err == nil {
		return max(time.Until(at), 0), true
	}
	return 0, false
}
