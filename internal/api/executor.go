package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beyond-api/beyond-cli/internal/dryrun"
	"github.com/beyond-api/beyond-cli/internal/keycase"
)

// Request describes a single API call.
//
// Body may be nil, []byte or string (sent unchanged), an io.Reader (read once
// and sent unchanged) or any JSON-encodable value. Map bodies and the query
// have their keys converted to camelCase unless PreserveKeys is set.
type Request struct {
	Method      Method
	Path        string
	Body        any
	Query       map[string]any
	ContentType string
	Header      http.Header

	PreserveKeys bool
}

// Execute sends req and wraps the received response as a successful Result
// whatever its status. Only a transport error yields a Failure here
// (KindNetwork). The returned error is reserved for an invalid session, a
// request that cannot be encoded, or a *dryrun.Preview when the context is
// in dry-run mode.
func (c *Client) Execute(ctx context.Context, s *Session, req Request) (Result, error) {
	if err := s.validate(); err != nil {
		return Result{}, err
	}
	if req.Method == "" {
		req.Method = MethodGet
	}

	body, encoded, err := encodeBody(req.Body, req.PreserveKeys)
	if err != nil {
		return Result{}, err
	}
	query, err := encodeQuery(req.Query, req.PreserveKeys)
	if err != nil {
		return Result{}, err
	}

	header := make(http.Header, len(req.Header)+4)
	for key, values := range req.Header {
		header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	header.Set("Accept", "application/json")
	header.Set("User-Agent", c.userAgent())
	if body != nil {
		switch {
		case req.ContentType != "":
			header.Set("Content-Type", req.ContentType)
		case encoded:
			header.Set("Content-Type", "application/json")
		case header.Get("Content-Type") == "":
			header.Set("Content-Type", "application/octet-stream")
		}
	}
	if header.Get("Authorization") == "" {
		if token := s.AccessToken(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	if dryrun.IsEnabled(ctx) {
		return Result{}, &dryrun.Preview{
			Method:      string(req.Method),
			URL:         joinURL(s.APIURL, req.Path),
			Query:       redactQuery(query),
			ContentType: header.Get("Content-Type"),
			Body:        body,
			JSONBody:    encoded || strings.Contains(header.Get("Content-Type"), "json"),
		}
	}

	resp, err := c.Transport.Send(ctx, &TransportRequest{
		Method: req.Method,
		URL:    joinURL(s.APIURL, req.Path),
		Header: header,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return networkFailure(err), nil
	}

	return Result{
		Value:      decodeBody(resp.Body),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}, nil
}

// Do executes req and normalizes the response with the client's configured
// options, adjusted by opts.
func (c *Client) Do(ctx context.Context, s *Session, req Request, opts ...Option) (Result, error) {
	res, err := c.Execute(ctx, s, req)
	if err != nil {
		return Result{}, err
	}
	return Normalize(res, c.NormalizeOptions().With(opts...)), nil
}

func joinURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// encodeBody returns the wire bytes and whether they were JSON encoded here.
func encodeBody(body any, preserveKeys bool) ([]byte, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return b, false, nil
	case string:
		return []byte(b), false, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read request body: %w", err)
		}
		return data, false, nil
	}

	if !preserveKeys {
		body = keycase.ToOuter(body)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, true, nil
}

// encodeQuery renders query values. Slices become repeated parameters,
// strings are sent as is and other values use their JSON text.
func encodeQuery(query map[string]any, preserveKeys bool) (url.Values, error) {
	if len(query) == 0 {
		return nil, nil
	}
	var transformed any = query
	if !preserveKeys {
		transformed = keycase.ToOuter(query)
	}
	m, _ := transformed.(map[string]any)

	values := make(url.Values, len(m))
	for key, value := range m {
		switch v := value.(type) {
		case nil:
			continue
		case []string:
			for _, item := range v {
				values.Add(key, item)
			}
		case []any:
			for _, item := range v {
				text, err := queryText(item)
				if err != nil {
					return nil, fmt.Errorf("invalid query parameter %q: %w", key, err)
				}
				values.Add(key, text)
			}
		default:
			text, err := queryText(v)
			if err != nil {
				return nil, fmt.Errorf("invalid query parameter %q: %w", key, err)
			}
			values.Set(key, text)
		}
	}
	return values, nil
}

func queryText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeBody parses a JSON response body. Empty bodies decode to nil and
// bodies that are not JSON are kept as a string.
func decodeBody(data []byte) any {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}
