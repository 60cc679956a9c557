// Package dryrun previews API requests instead of sending them.
package dryrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type contextKey struct{}

// WithDryRun returns a context with dry-run mode enabled/disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, contextKey{}, enabled)
}

// IsEnabled returns true if dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(contextKey{}).(bool); ok {
		return v
	}
	return false
}

// Preview is a fully built request that was not sent. The executor returns
// it as an error so the call unwinds like any other early exit.
type Preview struct {
	Method      string
	URL         string
	Query       string // encoded, grant secrets redacted
	ContentType string
	Body        []byte
	JSONBody    bool
}

func (p *Preview) Error() string {
	return fmt.Sprintf("dry run: %s %s not sent", p.Method, p.Target())
}

// As returns the Preview in err's chain, if any.
func As(err error) (*Preview, bool) {
	var p *Preview
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}

// Target is the URL including the query.
func (p *Preview) Target() string {
	if p.Query == "" {
		return p.URL
	}
	return p.URL + "?" + p.Query
}

// Map renders the preview for JSON output.
func (p *Preview) Map() map[string]any {
	out := map[string]any{
		"dry_run": true,
		"method":  p.Method,
		"url":     p.Target(),
	}
	if p.ContentType != "" {
		out["content_type"] = p.ContentType
	}
	if len(p.Body) > 0 {
		var body any
		if p.JSONBody && json.Unmarshal(p.Body, &body) == nil {
			out["body"] = body
		} else {
			out["body_bytes"] = len(p.Body)
		}
	}
	return out
}

// Write outputs the preview to the writer
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would send %s %s\n", p.Method, p.Target())
	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")

	if p.ContentType != "" {
		_, _ = fmt.Fprintf(w, "  Content-Type: %s\n", p.ContentType)
	}
	if len(p.Body) > 0 {
		var body any
		if p.JSONBody && json.Unmarshal(p.Body, &body) == nil {
			data, _ := json.MarshalIndent(body, "    ", "  ")
			_, _ = fmt.Fprintf(w, "  Body:\n    %s\n", strings.TrimSpace(string(data)))
		} else {
			_, _ = fmt.Fprintf(w, "  Body: %d bytes\n", len(p.Body))
		}
	}

	_, _ = fmt.Fprintf(w, "───────────────────────────────────────\n")
	_, _ = fmt.Fprintln(w, "No request sent (dry-run mode)")
}
