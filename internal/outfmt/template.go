package outfmt

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/template"
)

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		var sb strings.Builder
		if err := WriteJSON(&sb, v, true); err != nil {
			return "", err
		}
		return strings.TrimSuffix(sb.String(), "\n"), nil
	},
	"items": func(v any) []any {
		items, _ := Collection(v)
		return items
	},
	"text": formatScalar,
}

// WriteTemplate renders v with a text/template. Besides the builtins,
// templates get json (compact encoding), items (the embedded collection of
// a page) and text (cell formatting as in tables). Missing keys render
// empty.
func WriteTemplate(w io.Writer, v any, text string) error {
	tmpl, err := template.New("output").
		Funcs(templateFuncs).
		Option("missingkey=zero").
		Parse(text)
	if err != nil {
		return templateError("invalid template", err)
	}
	if err := tmpl.Execute(w, v); err != nil {
		return templateError("template execution error", err)
	}
	return nil
}

// template errors look like "template: output:1:7: ...".
var templatePosition = regexp.MustCompile(`:(\d+):(\d+):`)

func templateError(prefix string, err error) error {
	pos := templatePosition.FindStringSubmatch(err.Error())
	if pos == nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	return fmt.Errorf("%s at line %s, column %s: %w", prefix, pos[1], pos[2], err)
}
