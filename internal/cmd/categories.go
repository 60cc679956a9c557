package cmd

import (
	"github.com/spf13/cobra"
)

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage categories",
	}

	cmd.AddCommand(newCategoriesListCmd())
	cmd.AddCommand(newCategoriesGetCmd())
	cmd.AddCommand(newCategoriesCreateCmd())
	cmd.AddCommand(newCategoriesReplaceCmd())
	cmd.AddCommand(newCategoriesDeleteCmd())
	return cmd
}

func newCategoriesListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories",
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
			v, err := ac.Client.Categories(ac.Session).All(cmdContext(cmd), query)
			return printServiceResult(cmd, v, err)
		}),
	}

	lf.register(cmd)
	return cmd
}

func newCategoriesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"g"},
		Short:   "Get a category by ID",
		Args:    cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.Categories(ac.Session).Find(cmdContext(cmd), args[0])
			return printServiceResult(cmd, v, err)
		}),
	}
}

func newCategoriesCreateCmd() *cobra.Command {
	var bf bodyFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			body, err := bf.body(cmd)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Categories(ac.Session).Create(cmdContext(cmd), body)
			return printServiceResult(cmd, v, err)
		}),
	}

	bf.register(cmd)
	return cmd
}

func newCategoriesReplaceCmd() *cobra.Command {
	var bf bodyFlags

	cmd := &cobra.Command{
		Use:   "replace <id>",
		Short: "Overwrite a category",
		Long:  "Replace the whole category with the given body (PUT). Omitted fields are reset.",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			body, err := bf.body(cmd)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Categories(ac.Session).Replace(cmdContext(cmd), args[0], body)
			return printServiceResult(cmd, v, err)
		}),
	}

	bf.register(cmd)
	return cmd
}

func newCategoriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a category",
		Args:    cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.Categories(ac.Session).Delete(cmdContext(cmd), args[0])
			return printDone(cmd, v, err, "Category %s deleted.\n", args[0])
		}),
	}
}
