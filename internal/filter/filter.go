// Package filter applies jq expressions (via gojq) to decoded API responses.
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression undoes shell escaping of "!". Zsh turns != into \!=
// even inside single quotes.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Apply runs expression against data. See ApplyContext.
func Apply(data any, expression string) (any, error) {
	return ApplyContext(context.Background(), data, expression)
}

// ApplyContext runs expression against data. An empty expression returns
// data unchanged; one result is returned as is and several as a slice.
//
// Expressions that iterate the root (".[]") see the embedded collection of a
// page envelope, so `.[] | .sku` works on a list response.
func ApplyContext(ctx context.Context, data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}
	expression = NormalizeExpression(expression)
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	input := toJQInput(data)
	if iteratesRoot(expression) {
		if items, ok := pageItems(input); ok {
			input = items
		}
	}

	var results []any
	iter := query.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// toJQInput converts values gojq cannot walk, such as typed slices or Go
// ints, by round-tripping through JSON.
func toJQInput(data any) any {
	switch data.(type) {
	case nil, bool, float64, string, map[string]any, []any:
		return data
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var out any
	if json.Unmarshal(raw, &out) != nil {
		return data
	}
	return out
}

func iteratesRoot(expression string) bool {
	expr := strings.TrimSpace(expression)
	for _, prefix := range []string{".[]", "[.[]", "(.[]"} {
		if strings.HasPrefix(expr, prefix) {
			return true
		}
	}
	return false
}

// pageItems returns the collection of a page envelope: an object with a
// "page" key and an _embedded (or embedded) map. With several collections
// the first key in sorted order wins.
func pageItems(data any) ([]any, bool) {
	page, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	if _, paged := page["page"]; !paged {
		return nil, false
	}
	for _, key := range []string{"_embedded", "embedded"} {
		embedded, ok := page[key].(map[string]any)
		if !ok || len(embedded) == 0 {
			continue
		}
		names := make([]string, 0, len(embedded))
		for name := range embedded {
			names = append(names, name)
		}
		slices.Sort(names)
		items, ok := embedded[names[0]].([]any)
		return items, ok
	}
	return nil, false
}
