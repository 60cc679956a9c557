package outfmt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxColumns bounds the width of collection tables.
const maxColumns = 6

// leadingColumns are shown first when present, in this order.
var leadingColumns = []string{"id", "sku", "order_number", "name", "status"}

// Collection returns the elements of v when v is a slice or a page envelope
// (its _embedded or embedded collection). With several embedded collections
// the first key in sorted order is used.
func Collection(v any) ([]any, bool) {
	switch typed := v.(type) {
	case []any:
		return typed, true
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, true
	case map[string]any:
		for _, key := range []string{"_embedded", "embedded"} {
			embedded, ok := typed[key].(map[string]any)
			if !ok || len(embedded) == 0 {
				continue
			}
			keys := sortedMapKeys(embedded)
			items, ok := embedded[keys[0]].([]any)
			return items, ok
		}
	}
	return nil, false
}

// tableColumns picks up to maxColumns scalar keys present in items.
func tableColumns(items []any) []string {
	seen := map[string]bool{}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for key, value := range m {
			if isScalar(value) {
				seen[key] = true
			}
		}
	}

	columns := make([]string, 0, maxColumns)
	for _, key := range leadingColumns {
		if seen[key] {
			columns = append(columns, key)
			delete(seen, key)
		}
	}
	rest := make([]string, 0, len(seen))
	for key := range seen {
		if strings.HasPrefix(key, "_") {
			continue
		}
		rest = append(rest, key)
	}
	sort.Strings(rest)
	columns = append(columns, rest...)
	if len(columns) > maxColumns {
		columns = columns[:maxColumns]
	}
	return columns
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, float64, int, int64, json.Number:
		return true
	default:
		return false
	}
}

// formatScalar renders a value for a table cell. Nested values are shown as
// compact JSON.
func formatScalar(v any) string {
	switch typed := v.(type) {
	case nil:
		return "-"
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(data)
	}
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
