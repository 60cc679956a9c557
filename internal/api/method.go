package api

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP verb supported by the executor.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Methods lists every supported method.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// ParseMethod converts a case-insensitive verb into a Method.
func ParseMethod(value string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported HTTP method %q", value)
}

func (m Method) String() string { return string(m) }

// retryable reports whether the transport may safely repeat the request.
func (m Method) retryable() bool {
	return m == MethodGet
}
