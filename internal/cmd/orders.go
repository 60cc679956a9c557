package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order", "o"},
		Short:   "Inspect and cancel orders",
	}

	cmd.AddCommand(newOrdersListCmd())
	cmd.AddCommand(newOrdersGetCmd())
	cmd.AddCommand(newOrdersSearchCmd())
	cmd.AddCommand(newOrdersEventsCmd())
	cmd.AddCommand(newOrdersCancelCmd())

	return cmd
}

func newOrdersListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List orders",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			query, err := lf.query(cmd)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Orders(ac.Session).All(cmdContext(cmd), query)
			return printServiceResult(cmd, v, err)
		}),
	}

	lf.register(cmd)
	return cmd
}

func newOrdersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"g"},
		Short:   "Get an order by ID",
		Args:    cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.Orders(ac.Session).Find(cmdContext(cmd), args[0])
			return printServiceResult(cmd, v, err)
		}),
	}
}

func newOrdersSearchCmd() *cobra.Command {
	var number string

	cmd := &cobra.Command{
		Use:     "search",
		Aliases: []string{"q"},
		Short:   "Find an order by order number",
		Example: "  beyond orders search --number 10042",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(number) == "" {
				return fmt.Errorf("--number is required")
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Orders(ac.Session).SearchByOrderNumber(cmdContext(cmd), number)
			return printServiceResult(cmd, v, err)
		}),
	}

	cmd.Flags().StringVar(&number, "number", "", "Order number")
	flagAlias(cmd.Flags(), "number", "order-number")
	return cmd
}

func newOrdersEventsCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:   "events <id>",
		Short: "List the events recorded for an order",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			query, err := lf.query(cmd)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Orders(ac.Session).Events(cmdContext(cmd), args[0], query)
			return printServiceResult(cmd, v, err)
		}),
	}

	lf.register(cmd)
	return cmd
}

func newOrdersCancelCmd() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.Orders(ac.Session).Cancel(cmdContext(cmd), args[0], comment)
			return printDone(cmd, v, err, "Order %s canceled.\n", args[0])
		}),
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Reason recorded with the cancelation")
	return cmd
}
