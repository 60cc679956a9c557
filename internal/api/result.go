package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	KindNetwork     ErrorKind = "network"
	KindAuth        ErrorKind = "auth"
	KindNotFound    ErrorKind = "not_found"
	KindConflict    ErrorKind = "conflict"
	KindValidation  ErrorKind = "validation"
	KindServerError ErrorKind = "server_error"
	KindUnknown     ErrorKind = "unknown"
)

// Classify maps a non-2xx HTTP status to an ErrorKind.
func Classify(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500 && status < 600:
		return KindServerError
	default:
		return KindUnknown
	}
}

// Result is the outcome of a call: a value, or a Failure.
//
// Execute fills Value and StatusCode for every received response. Normalize
// turns non-2xx results into failures.
type Result struct {
	Value      any
	StatusCode int
	Header     http.Header
	Failure    *Failure
}

// OK reports whether the result carries a value rather than a failure.
func (r Result) OK() bool { return r.Failure == nil }

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Failure describes a failed call. StatusCode is zero and Payload nil for
// network failures.
type Failure struct {
	Kind       ErrorKind
	StatusCode int
	Payload    any
	Err        error
}

func (f *Failure) Error() string {
	msg := f.Message()
	if f.StatusCode > 0 {
		if msg == "" {
			return fmt.Sprintf("%s (status %d)", f.Kind, f.StatusCode)
		}
		return fmt.Sprintf("%s (status %d): %s", f.Kind, f.StatusCode, msg)
	}
	if msg == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, msg)
}

func (f *Failure) Unwrap() error { return f.Err }

// Message extracts the upstream error text from the payload. OAuth payloads
// carry error_description, REST payloads usually message or error.
func (f *Failure) Message() string {
	if f.Err != nil && f.Payload == nil {
		return f.Err.Error()
	}
	switch p := f.Payload.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(p)
	case map[string]any:
		for _, key := range []string{"error_description", "errorDescription", "message", "error"} {
			if s, ok := p[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	data, err := json.Marshal(f.Payload)
	if err != nil {
		return fmt.Sprint(f.Payload)
	}
	return string(data)
}

// AsMap renders the failure as a plain value for callers that receive
// failures as data instead of errors.
func (f *Failure) AsMap() map[string]any {
	m := map[string]any{
		"error":   string(f.Kind),
		"message": f.Message(),
	}
	if f.StatusCode > 0 {
		m["status_code"] = f.StatusCode
	}
	if f.Payload != nil {
		m["payload"] = f.Payload
	}
	return m
}

func networkFailure(err error) Result {
	return Result{Failure: &Failure{Kind: KindNetwork, Err: err}}
}

// KindOf returns the ErrorKind of err, or "" when err is not a Failure.
func KindOf(err error) ErrorKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
