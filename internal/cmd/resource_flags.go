package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/api"
)

// listFlags are the paging flags shared by the resource list commands.
type listFlags struct {
	all    bool
	page   int
	size   int
	sort   string
	params []string
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "Fetch and merge every page")
	cmd.Flags().IntVar(&f.page, "page", 0, "Page number (0-based)")
	cmd.Flags().IntVar(&f.size, "size", 0, "Page size")
	cmd.Flags().StringVar(&f.sort, "sort", "", "Sort expression, e.g. createdAt,desc")
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "Extra query parameter as key=value")
}

// query builds the collection query. --all turns on page aggregation.
func (f *listFlags) query(cmd *cobra.Command) (map[string]any, error) {
	if f.all && (cmd.Flags().Changed("page") || cmd.Flags().Changed("size")) {
		return nil, fmt.Errorf("--all cannot be used with --page or --size")
	}
	if f.page < 0 || f.size < 0 {
		return nil, fmt.Errorf("--page and --size must be >= 0")
	}

	query, err := parseParams(f.params)
	if err != nil {
		return nil, err
	}
	if query == nil {
		query = map[string]any{}
	}
	if f.sort != "" {
		query["sort"] = f.sort
	}
	if f.all {
		query[api.PaginatedKey] = false
		return query, nil
	}
	if cmd.Flags().Changed("page") {
		query["page"] = f.page
	}
	if f.size > 0 {
		query["size"] = f.size
	}
	return query, nil
}

// bodyFlags are the request body flags shared by the api, create and update
// commands.
type bodyFlags struct {
	fields    []string
	rawFields []string
	inputFile string
	jsonBody  string
}

func (f *bodyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.fields, "field", "f", nil, "Body field as key=value (string)")
	cmd.Flags().StringArrayVarP(&f.rawFields, "raw-field", "F", nil, "Body field as key=value (JSON parsed)")
	cmd.Flags().StringVarP(&f.inputFile, "input", "i", "", "Read the JSON body from a file (use - for stdin)")
	cmd.Flags().StringVarP(&f.jsonBody, "body", "d", "", "Request body as inline JSON")
}

// merged builds the request body: the --body or --input document first, then
// -f and -F fields on top. It returns nil when nothing was given.
func (f *bodyFlags) merged(cmd *cobra.Command) (map[string]any, error) {
	var doc []byte
	switch {
	case f.jsonBody != "" && f.inputFile != "":
		return nil, fmt.Errorf("--body cannot be used with --input")
	case f.jsonBody != "":
		doc = []byte(f.jsonBody)
	case f.inputFile != "":
		data, err := readInput(cmd, f.inputFile)
		if err != nil {
			return nil, err
		}
		doc = data
	}

	body := map[string]any{}
	if doc != nil {
		if err := json.Unmarshal(doc, &body); err != nil {
			source := "--body"
			if f.inputFile != "" {
				source = "input"
			}
			return nil, fmt.Errorf("failed to parse %s JSON: %w", source, err)
		}
	}
	for _, field := range f.fields {
		key, value, err := parseField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}
	for _, field := range f.rawFields {
		key, value, err := parseRawField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}

// body is merged for commands that cannot send an empty body.
func (f *bodyFlags) body(cmd *cobra.Command) (map[string]any, error) {
	body, err := f.merged(cmd)
	if err == nil && body == nil {
		err = fmt.Errorf("request body must be given with --field, --raw-field, --body or --input")
	}
	return body, err
}

// parseParams turns key=value pairs into a query map. Repeated keys collect
// into a list.
func parseParams(params []string) (map[string]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	query := make(map[string]any, len(params))
	for _, p := range params {
		key, value, err := parseField(p)
		if err != nil {
			return nil, err
		}
		switch prev := query[key].(type) {
		case nil:
			query[key] = value
		case string:
			query[key] = []any{prev, value}
		case []any:
			query[key] = append(prev, value)
		}
	}
	return query, nil
}

func parseField(field string) (key, value string, err error) {
	key, value, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid field format %q: must be key=value", field)
	}
	return key, value, nil
}

// parseRawField is parseField with the value decoded as JSON.
func parseRawField(field string) (string, any, error) {
	key, text, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid raw field format %q: must be key=value", field)
	}
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return "", nil, fmt.Errorf("invalid JSON in raw field %q: %w", key, err)
	}
	return key, value, nil
}

// printServiceResult prints the outcome of a resource service call.
func printServiceResult(cmd *cobra.Command, v any, err error) error {
	if err != nil {
		return err
	}
	return printResult(cmd, v)
}

// withAPI is RunE for commands that need nothing but an authenticated
// client. Commands that validate flags load the client after validating.
func withAPI(fn func(cmd *cobra.Command, args []string, ac *apiContext) error) func(*cobra.Command, []string) error {
	return RunE(func(cmd *cobra.Command, args []string) error {
		ac, err := newClientFactory().load(true)
		if err != nil {
			return err
		}
		return fn(cmd, args, ac)
	})
}

// printDone prints v in JSON mode and a status line otherwise.
func printDone(cmd *cobra.Command, v any, err error, format string, args ...any) error {
	if err != nil {
		return err
	}
	if isJSON(cmd) {
		return printResult(cmd, v)
	}
	printMessage(cmd, format, args...)
	return nil
}
