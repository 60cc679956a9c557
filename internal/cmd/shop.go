package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newShopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Show the current shop",
		Long:  "Show the shop the stored token belongs to. Subcommands read its address or rename it.",
		Args:  cobra.NoArgs,
		RunE: withAPI(func(cmd *cobra.Command, _ []string, ac *apiContext) error {
			v, err := ac.Client.Shop(ac.Session).Current(cmdContext(cmd))
			return printServiceResult(cmd, v, err)
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "address",
		Short: "Show the shop's legal address",
		Args:  cobra.NoArgs,
		RunE: withAPI(func(cmd *cobra.Command, _ []string, ac *apiContext) error {
			v, err := ac.Client.Shop(ac.Session).Address(cmdContext(cmd))
			return printServiceResult(cmd, v, err)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <name>",
		Short: "Change the shop name",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("name cannot be empty")
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Shop(ac.Session).Rename(cmdContext(cmd), name)
			return printServiceResult(cmd, v, err)
		}),
	})

	return cmd
}
