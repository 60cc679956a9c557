package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/resolve"
)

func newListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:     "list <resource>",
		Aliases: []string{"ls"},
		Short:   "List a collection",
		Long: strings.TrimSpace(`
List one page of a collection, or every page with --all.

With --all the pages are fetched one after another using the configured
all_pagination_size and merged into a single page. Resource names accept
aliases and close misspellings.

Resources: ` + strings.Join(resolve.ResourceNames(), ", ")),
		Example: strings.TrimSpace(`
  beyond list products --page 2 --size 20
  beyond list orders --all -o json --jq '._embedded.orders | length'
  beyond list webhooks`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			resource, err := resolve.LookupResource(args[0])
			if err != nil {
				return err
			}
			query, err := lf.query(cmd)
			if err != nil {
				return err
			}

			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			res, err := ac.Client.FetchAll(cmdContext(cmd), ac.Session, resource.Path, query)
			if err != nil {
				return err
			}
			if err := failureErr(res); err != nil {
				return err
			}
			return printResult(cmd, res.Value)
		}),
	}

	lf.register(cmd)

	return cmd
}
