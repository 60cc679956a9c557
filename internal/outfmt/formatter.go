package outfmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter writes command results according to the context's Options.
type Formatter struct {
	ctx    context.Context
	opts   Options
	out    io.Writer
	errOut io.Writer
	table  *tabwriter.Writer
}

func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:    ctx,
		opts:   FromContext(ctx),
		out:    out,
		errOut: errOut,
		table:  tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output filters data with the jq query, then renders it with the template
// if one is set, otherwise in the output mode.
func (f *Formatter) Output(data any) error {
	data, err := f.opts.applyQuery(f.ctx, data)
	if err != nil {
		return err
	}

	switch {
	case f.opts.Template != "":
		return WriteTemplate(f.out, data, f.opts.Template)
	case f.opts.Mode == JSON:
		return WriteJSON(f.out, data, f.opts.Compact)
	case f.opts.Mode == JSONL:
		return WriteJSONLines(f.out, data)
	}

	if items, ok := Collection(data); ok {
		return f.writeCollection(items)
	}
	if m, ok := data.(map[string]any); ok {
		return f.writeObject(m)
	}
	_, err = fmt.Fprintln(f.out, formatScalar(data))
	return err
}

// writeCollection prints objects as a table; collections of scalars print one
// per line.
func (f *Formatter) writeCollection(items []any) error {
	if len(items) == 0 {
		f.Empty("No results found")
		return nil
	}

	columns := tableColumns(items)
	if len(columns) == 0 {
		for _, item := range items {
			if _, err := fmt.Fprintln(f.out, formatScalar(item)); err != nil {
				return err
			}
		}
		return nil
	}

	headers := make([]string, len(columns))
	for i, column := range columns {
		headers[i] = strings.ToUpper(column)
	}
	f.StartTable(headers)
	for _, item := range items {
		obj, _ := item.(map[string]any)
		cells := make([]string, 0, len(columns))
		for _, column := range columns {
			cells = append(cells, formatScalar(obj[column]))
		}
		f.Row(cells...)
	}
	return f.EndTable()
}

// writeObject prints one key/value pair per line, hiding _links.
func (f *Formatter) writeObject(obj map[string]any) error {
	for _, key := range sortedMapKeys(obj) {
		if key != "_links" {
			f.Row(key, formatScalar(obj[key]))
		}
	}
	return f.EndTable()
}

// StartTable writes the header row. It reports false, writing nothing, in
// JSON modes.
func (f *Formatter) StartTable(headers []string) bool {
	if f.opts.Mode != Text {
		return false
	}
	f.Row(headers...)
	return true
}

func (f *Formatter) Row(columns ...string) {
	_, _ = fmt.Fprintln(f.table, strings.Join(columns, "\t"))
}

func (f *Formatter) EndTable() error {
	return f.table.Flush()
}

// Empty tells the user on stderr that there was nothing to show.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
