package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is the machine-readable code carried by JSON error output.
type ErrorCode string

const (
	ErrBadRequest     ErrorCode = "bad_request"
	ErrUnauthorized   ErrorCode = "unauthorized"
	ErrForbidden      ErrorCode = "forbidden"
	ErrNotFound       ErrorCode = "not_found"
	ErrConflict       ErrorCode = "conflict"
	ErrValidation     ErrorCode = "validation_failed"
	ErrRateLimited    ErrorCode = "rate_limited"
	ErrServerError    ErrorCode = "server_error"
	ErrTimeout        ErrorCode = "timeout"
	ErrNetwork        ErrorCode = "network_error"
	ErrCircuitOpen    ErrorCode = "circuit_open"
	ErrSessionInvalid ErrorCode = "invalid_session"
	ErrConfig         ErrorCode = "config_error"
	ErrUnknown        ErrorCode = "unknown"
)

type codeInfo struct {
	retryable  bool
	suggestion string
}

var codeTable = map[ErrorCode]codeInfo{
	ErrBadRequest:     {suggestion: "Check the request body and parameters"},
	ErrValidation:     {suggestion: "Check the request body and parameters"},
	ErrUnauthorized:   {suggestion: "Run 'beyond auth login' or 'beyond auth refresh'"},
	ErrSessionInvalid: {suggestion: "Run 'beyond auth login' or 'beyond auth refresh'"},
	ErrForbidden:      {suggestion: "Check the scopes granted to the app"},
	ErrNotFound:       {suggestion: "Verify the resource ID or path exists"},
	ErrConflict:       {suggestion: "The resource state may have changed; refresh and retry"},
	ErrConfig:         {suggestion: "Set BEYOND_CLIENT_ID and BEYOND_CLIENT_SECRET or edit the config file"},
	ErrRateLimited:    {retryable: true, suggestion: "Wait a moment and retry"},
	ErrServerError:    {retryable: true, suggestion: "The server encountered an error; try again later"},
	ErrTimeout:        {retryable: true, suggestion: "Check network connectivity and the api_url setting, then retry"},
	ErrNetwork:        {retryable: true, suggestion: "Check network connectivity and the api_url setting, then retry"},
	ErrCircuitOpen:    {retryable: true, suggestion: "Too many recent failures; wait before retrying"},
}

var statusCodes = map[int]ErrorCode{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusNotFound:            ErrNotFound,
	http.StatusConflict:            ErrConflict,
	http.StatusUnprocessableEntity: ErrValidation,
	http.StatusTooManyRequests:     ErrRateLimited,
}

// IsRetryable reports whether the same request may succeed later.
func (c ErrorCode) IsRetryable() bool { return codeTable[c].retryable }

// Suggestion is a one-line hint for the user, empty when there is none.
func (c ErrorCode) Suggestion() string { return codeTable[c].suggestion }

func ErrorCodeFromStatus(status int) ErrorCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	if status >= 500 && status < 600 {
		return ErrServerError
	}
	return ErrUnknown
}

// StructuredError is the JSON shape of an error in -o json mode.
type StructuredError struct {
	Code          ErrorCode      `json:"code"`
	Message       string         `json:"message"`
	Retryable     bool           `json:"retryable"`
	Suggestion    string         `json:"suggestion,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	AllowedValues []string       `json:"allowed_values,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewStructuredError(code ErrorCode, message string) *StructuredError {
	info := codeTable[code]
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  info.retryable,
		Suggestion: info.suggestion,
	}
}

// NewValidationError reports an input outside a closed set of values.
func NewValidationError(field string, got string, allowed []string) *StructuredError {
	choices := strings.Join(allowed, ", ")
	return &StructuredError{
		Code:          ErrValidation,
		Message:       fmt.Sprintf("invalid %s %q: must be one of %s", field, got, choices),
		Suggestion:    "Use one of: " + choices,
		AllowedValues: allowed,
		Context:       map[string]any{"field": field, "got": got},
	}
}

func failureCode(f *Failure) ErrorCode {
	if f.Kind != KindNetwork {
		return ErrorCodeFromStatus(f.StatusCode)
	}
	switch {
	case IsCircuitBreakerError(f.Err):
		return ErrCircuitOpen
	case IsTimeout(f):
		return ErrTimeout
	}
	return ErrNetwork
}

// StructuredErrorFromFailure keeps the failure kind, status and payload in
// the error context.
func StructuredErrorFromFailure(f *Failure) *StructuredError {
	se := NewStructuredError(failureCode(f), f.Message())
	se.Context = map[string]any{"kind": string(f.Kind)}
	if f.StatusCode > 0 {
		se.Context["status_code"] = f.StatusCode
	}
	if f.Payload != nil {
		se.Context["payload"] = f.Payload
	}
	return se
}

// StructuredErrorFromError converts any error; unrecognised ones get
// ErrUnknown. A nil error gives nil.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}
	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}
	var f *Failure
	if errors.As(err, &f) {
		return StructuredErrorFromFailure(f)
	}

	code := ErrUnknown
	switch {
	case errors.Is(err, ErrInvalidSession):
		code = ErrSessionInvalid
	case errors.Is(err, ErrMissingClientCredentials):
		code = ErrConfig
	case IsCircuitBreakerError(err):
		code = ErrCircuitOpen
	}
	if code == ErrUnknown {
		return &StructuredError{Code: ErrUnknown, Message: err.Error()}
	}
	return NewStructuredError(code, err.Error())
}
