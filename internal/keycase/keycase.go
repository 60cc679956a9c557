// Package keycase converts JSON object keys between the snake_case used inside
// this module and the camelCase used on the wire.
//
// Conversions walk nested maps and slices. Values that are not maps or slices
// are returned unchanged, so every function here is safe to call on any
// decoded JSON value.
package keycase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LinksKey is the hypermedia envelope key removed by StripLinks.
const LinksKey = "_links"

// ToOuter returns a copy of v with every map key converted to camelCase.
func ToOuter(v any) any {
	return transformKeys(v, CamelizeKey)
}

// ToInner returns a copy of v with every map key converted to snake_case.
func ToInner(v any) any {
	return transformKeys(v, UnderscoreKey)
}

// StripKeyPrefix returns a copy of v with leading underscores removed from
// every map key ("_embedded" becomes "embedded").
func StripKeyPrefix(v any) any {
	return transformKeys(v, func(key string) string {
		return strings.TrimLeft(key, "_")
	})
}

// StripLinks returns a copy of v with the "_links" key removed at every level.
func StripLinks(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			if key == LinksKey {
				continue
			}
			out[key] = StripLinks(value)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = StripLinks(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = StripLinks(item)
		}
		return out
	default:
		return v
	}
}

// transformKeys applies fn to every key. When several keys map to the same
// name, a key already in that form wins, then the smallest source key.
func transformKeys(v any, fn func(string) string) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		source := make(map[string]string, len(typed))
		for key, value := range typed {
			name := fn(key)
			if prev, taken := source[name]; taken && !replaces(key, prev, name) {
				continue
			}
			source[name] = key
			out[name] = transformKeys(value, fn)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = transformKeys(item, fn)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = transformKeys(item, fn)
		}
		return out
	default:
		return v
	}
}

func replaces(key, prev, name string) bool {
	switch {
	case prev == name:
		return false
	case key == name:
		return true
	}
	return key < prev
}

// CamelizeKey converts a single snake_case key to lower camelCase.
//
// Leading underscores are dropped first, so "_links" becomes "links". Capitals
// already present inside a segment are kept, which makes the conversion
// idempotent: CamelizeKey("salesPrice") == "salesPrice".
func CamelizeKey(key string) string {
	key = strings.TrimLeft(key, "_")
	if key == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(key))
	first := true
	for _, segment := range strings.Split(key, "_") {
		if segment == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(segment)
		if first {
			b.WriteRune(unicode.ToLower(r))
			first = false
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		b.WriteString(segment[size:])
	}
	return b.String()
}

// UnderscoreKey converts a single camelCase key to snake_case.
//
// A run of capitals counts as one word, so "HTTPStatus" becomes "http_status".
// Leading underscores are preserved and no second underscore is ever inserted
// next to an existing one.
func UnderscoreKey(key string) string {
	if key == "" {
		return ""
	}

	runes := []rune(key)
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && runes[i-1] != '_' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
