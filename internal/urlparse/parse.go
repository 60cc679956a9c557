// Package urlparse turns request targets, including absolute links copied
// from API responses, into paths relative to the API URL.
package urlparse

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is a request path relative to the API URL plus its query.
type Target struct {
	Path  string
	Query url.Values

	// Absolute is true when the target was given as a full URL. Its query
	// keys came from the server and are sent as is.
	Absolute bool
}

// String renders the target as path?query.
func (t Target) String() string {
	if len(t.Query) == 0 {
		return t.Path
	}
	return t.Path + "?" + t.Query.Encode()
}

// QueryMap returns the query as request parameters: one value stays a
// string, repeated values become a list.
func (t Target) QueryMap() map[string]any {
	if len(t.Query) == 0 {
		return nil
	}
	out := make(map[string]any, len(t.Query))
	for key, values := range t.Query {
		if len(values) == 1 {
			out[key] = values[0]
			continue
		}
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v
		}
		out[key] = list
	}
	return out
}

// Parse resolves target against apiURL.
//
// A relative path ("/products/1?size=5" or "products/1") passes through with
// its query split off. An absolute URL such as a HAL self link must use the
// API's scheme and host and lie below the API's base path, which is
// stripped. A trailing URI template ("{?page,size,sort}") is dropped.
func Parse(apiURL, target string) (Target, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Target{}, fmt.Errorf("path cannot be empty")
	}
	if i := strings.IndexByte(target, '{'); i >= 0 && strings.HasSuffix(target, "}") {
		target = target[:i]
	}

	u, err := url.Parse(target)
	if err != nil {
		return Target{}, fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme == "" && u.Host == "" {
		path := u.Path
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return Target{Path: path, Query: nonEmpty(u.Query())}, nil
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, fmt.Errorf("invalid URL scheme %q: expected http or https", u.Scheme)
	}

	base, err := url.Parse(apiURL)
	if err != nil || base.Host == "" {
		return Target{}, fmt.Errorf("invalid API URL %q", apiURL)
	}
	if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
		return Target{}, fmt.Errorf("%s is not on the API host %s://%s", target, base.Scheme, base.Host)
	}

	path := u.Path
	if basePath := strings.TrimSuffix(base.Path, "/"); basePath != "" {
		if path != basePath && !strings.HasPrefix(path, basePath+"/") {
			return Target{}, fmt.Errorf("%s is not under the API URL %s", target, apiURL)
		}
		path = strings.TrimPrefix(path, basePath)
	}
	if path == "" {
		path = "/"
	}

	return Target{Path: path, Query: nonEmpty(u.Query()), Absolute: true}, nil
}

func nonEmpty(q url.Values) url.Values {
	if len(q) == 0 {
		return nil
	}
	return q
}
