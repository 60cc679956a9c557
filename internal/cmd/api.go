package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/api"
	"github.com/beyond-api/beyond-cli/internal/urlparse"
)

func newAPICmd() *cobra.Command {
	var (
		method         string
		bf             bodyFlags
		params         []string
		preserveKeys   bool
		raw            bool
		includeHeaders bool
	)

	cmd := &cobra.Command{
		Use:   "api <path>",
		Short: "Make a raw request to any API path",
		Long: strings.TrimSpace(`
Send a request to any path under the API URL and print the normalized
response.

Body and query keys are converted from snake_case to camelCase unless
--preserve-keys is set. Response keys are converted back according to the
configured response options. Use --raw to skip response normalization.`),
		Example: strings.TrimSpace(`
  # GET (default)
  beyond api /shop

  # POST with fields
  beyond api /categories -X POST -f name=Sale -F 'visible_in_navigation=true'

  # Inline JSON body
  beyond api /products/123 -X PATCH -d '{"sales_price":{"tax_model":"NET","amount":9.5,"currency":"EUR"}}'

  # Query parameters
  beyond api /products -p page=1 -p size=5 --jq '._embedded.products[].sku'`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			m, err := api.ParseMethod(method)
			if err != nil {
				return err
			}
			body, err := bf.merged(cmd)
			if err != nil {
				return err
			}
			query, err := parseParams(params)
			if err != nil {
				return err
			}

			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}

			target, err := urlparse.Parse(ac.Session.APIURL, args[0])
			if err != nil {
				return err
			}
			// -p values win over the link's own query.
			for key, value := range target.QueryMap() {
				if query == nil {
					query = map[string]any{}
				}
				if _, ok := query[key]; !ok {
					query[key] = value
				}
			}

			req := api.Request{
				Method:       m,
				Path:         target.Path,
				Query:        query,
				PreserveKeys: preserveKeys,
			}
			if body != nil {
				req.Body = body
			}

			var res api.Result
			if raw {
				res, err = ac.Client.Execute(cmdContext(cmd), ac.Session, req)
			} else {
				res, err = ac.Client.Do(cmdContext(cmd), ac.Session, req)
			}
			if err != nil {
				return err
			}
			if err := failureErr(res); err != nil {
				return err
			}

			if includeHeaders {
				out := map[string]any{
					"status":  res.StatusCode,
					"headers": flattenHeaders(res.Header),
					"body":    res.Value,
				}
				if rl, ok := api.ParseRateLimit(res.Header, time.Now()); ok {
					out["rate_limit"] = rl.Map()
				}
				return printResult(cmd, out)
			}
			return printResult(cmd, res.Value)
		}),
	}

	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method (GET, POST, PUT, PATCH, DELETE)")
	bf.register(cmd)
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value")
	cmd.Flags().BoolVar(&preserveKeys, "preserve-keys", false, "Send body and query keys unchanged")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the response without normalization")
	cmd.Flags().BoolVar(&includeHeaders, "include", false, "Include status and response headers")
	flagAlias(cmd.Flags(), "include", "inc")
	flagAlias(cmd.Flags(), "preserve-keys", "pk")

	return cmd
}

// flattenHeaders joins repeated header values with ", ".
func flattenHeaders(h map[string][]string) map[string]any {
	out := make(map[string]any, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return out
}
