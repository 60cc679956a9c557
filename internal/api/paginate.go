package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
)

// PaginatedKey is the query flag that requests every page: FetchAll
// aggregates only when query["paginated"] is false.
const PaginatedKey = "paginated"

// FetchAll GETs a collection. Without paginated=false in query it performs a
// single call and returns that page untouched. With it, every page is
// fetched in ascending order using the configured page size and the
// embedded elements are concatenated into the first page's envelope, whose
// page block is rewritten to describe one page holding everything.
//
// Any page failure fails the whole call. total_pages is read once from the
// first page; a collection modified during the walk may yield duplicated or
// missing elements.
func (c *Client) FetchAll(ctx context.Context, s *Session, path string, query map[string]any, opts ...Option) (Result, error) {
	if flag, ok := query[PaginatedKey].(bool); !ok || flag {
		return c.Do(ctx, s, Request{Method: MethodGet, Path: path, Query: query}, opts...)
	}

	size := c.Config.AllPaginationSize
	if size <= 0 {
		size = 50
	}
	pageQuery := func(n int) map[string]any {
		q := make(map[string]any, len(query)+1)
		for k, v := range query {
			if k != PaginatedKey {
				q[k] = v
			}
		}
		q["page"] = n
		q["size"] = size
		return q
	}

	first, err := c.Do(ctx, s, Request{Method: MethodGet, Path: path, Query: pageQuery(0)}, opts...)
	if err != nil || !first.OK() {
		return first, err
	}
	envelope, ok := first.Value.(map[string]any)
	if !ok {
		return first, nil
	}

	embeddedKey, embedded := findEmbedded(envelope)
	resourceKey := resourceKeyOf(embedded, path)
	page, _ := envelope["page"].(map[string]any)
	totalPages, _ := intField(page, "total_pages", "totalPages")
	totalElements, _ := intField(page, "total_elements", "totalElements")

	items := []any{}
	if resourceKey != "" {
		items = append(items, asSlice(embedded[resourceKey])...)
	}

	for n := 1; n < totalPages; n++ {
		if err := ctx.Err(); err != nil {
			return networkFailure(err), nil
		}
		next, err := c.Do(ctx, s, Request{Method: MethodGet, Path: path, Query: pageQuery(n)}, opts...)
		if err != nil || !next.OK() {
			return next, err
		}
		if resourceKey == "" {
			continue
		}
		nextEnvelope, _ := next.Value.(map[string]any)
		_, nextEmbedded := findEmbedded(nextEnvelope)
		items = append(items, asSlice(nextEmbedded[resourceKey])...)
	}

	if resourceKey != "" {
		embedded[resourceKey] = items
		envelope[embeddedKey] = embedded
	}

	if page == nil {
		page = map[string]any{}
		envelope["page"] = page
	}
	setField(page, totalElements, "size")
	setField(page, 1, "total_pages", "totalPages")
	setField(page, 0, "number")

	first.Value = envelope
	return first, nil
}

// findEmbedded returns the embedded block under whichever key casing the
// normalized response uses.
func findEmbedded(envelope map[string]any) (string, map[string]any) {
	for _, key := range []string{"_embedded", "embedded"} {
		if m, ok := envelope[key].(map[string]any); ok {
			return key, m
		}
	}
	return "", nil
}

func resourceKeyOf(embedded map[string]any, path string) string {
	if len(embedded) == 0 {
		return ""
	}
	keys := make([]string, 0, len(embedded))
	for k := range embedded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 1 {
		slog.Warn("paginated response has more than one embedded collection", "path", path, "keys", keys, "using", keys[0])
	}
	return keys[0]
}

func asSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}

// intField reads the first present key as an integer.
func intField(m map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n), true
		case int:
			return n, true
		case int64:
			return int(n), true
		case json.Number:
			i, err := n.Int64()
			return int(i), err == nil
		}
	}
	return 0, false
}

// setField writes value under the first key already present, or under the
// first key when none is.
func setField(m map[string]any, value int, keys ...string) {
	for _, key := range keys {
		if _, ok := m[key]; ok {
			m[key] = value
			return
		}
	}
	m[keys[0]] = value
}
