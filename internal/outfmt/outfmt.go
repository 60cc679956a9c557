// Package outfmt renders command results as text tables, JSON or JSON lines,
// with optional jq filtering and Go templates.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

type Mode int

const (
	Text Mode = iota
	JSON
	// JSONL writes one document per collection element.
	JSONL
)

var modeNames = map[string]Mode{
	"":       Text,
	"text":   Text,
	"json":   JSON,
	"jsonl":  JSONL,
	"ndjson": JSONL,
}

// Parse accepts text, json, jsonl and its alias ndjson. Names are case
// sensitive.
func Parse(s string) (Mode, error) {
	if mode, ok := modeNames[s]; ok {
		return mode, nil
	}
	return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl' or 'ndjson')", s)
}

func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	}
	return "text"
}

// Options are the output settings chosen by the global flags.
type Options struct {
	Mode    Mode
	Compact bool
	// Query is a jq expression run before rendering.
	Query string
	// Template replaces the mode's renderer when set.
	Template string
}

type optionsKey struct{}

func WithOptions(ctx context.Context, opts Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// FromContext returns the context's options, or text output defaults.
func FromContext(ctx context.Context) Options {
	opts, _ := ctx.Value(optionsKey{}).(Options)
	return opts
}

// IsJSON is true for both JSON and JSONL output.
func IsJSON(ctx context.Context) bool {
	return FromContext(ctx).Mode != Text
}

// WriteJSON encodes v without HTML escaping, on one line when compact.
func WriteJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteJSONLines writes each element of v's collection on its own line.
// Page envelopes are unwrapped first; anything else is a single line.
func WriteJSONLines(w io.Writer, v any) error {
	items, ok := Collection(v)
	if !ok {
		items = []any{v}
	}
	for _, item := range items {
		if err := WriteJSON(w, item, true); err != nil {
			return err
		}
	}
	return nil
}
