package api

import (
	"context"
	"errors"
)

// CircuitBreakerError is returned without sending while the breaker is open.
type CircuitBreakerError struct{}

func (e *CircuitBreakerError) Error() string {
	return "circuit breaker is open, too many recent failures"
}

func IsCircuitBreakerError(err error) bool {
	var breaker *CircuitBreakerError
	return errors.As(err, &breaker)
}

func IsNotFoundError(err error) bool { return IsKind(err, KindNotFound) }

// IsAuthError covers both 401 and 403.
func IsAuthError(err error) bool { return IsKind(err, KindAuth) }

// IsTimeout reports a network failure caused by a deadline, either the
// context's or the transport's own.
func IsTimeout(err error) bool {
	if !IsKind(err, KindNetwork) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
