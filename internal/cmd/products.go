package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "Manage products",
		Long:    "List, look up, create, update and delete products and their images.",
	}

	cmd.AddCommand(newProductsListCmd())
	cmd.AddCommand(newProductsGetCmd())
	cmd.AddCommand(newProductsSearchCmd())
	cmd.AddCommand(newProductsCreateCmd())
	cmd.AddCommand(newProductsUpdateCmd())
	cmd.AddCommand(newProductsDeleteCmd())
	cmd.AddCommand(newProductImagesCmd())

	return cmd
}

func newProductsListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List products",
		Example: strings.TrimSpace(`
  beyond products list --size 20
  beyond products list --all --jq '[._embedded.products[].sku]'`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			query, err := lf.query(cmd)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Products(ac.Session).All(cmdContext(cmd), query)
			return printServiceResult(cmd, v, err)
		}),
	}

	lf.register(cmd)
	return cmd
}

func newProductsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"g"},
		Short:   "Get a product by ID",
		Args:    cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.Products(ac.Session).Find(cmdContext(cmd), args[0])
			return printServiceResult(cmd, v, err)
		}),
	}
}

func newProductsSearchCmd() *cobra.Command {
	var sku string

	cmd := &cobra.Command{
		Use:     "search",
		Aliases: []string{"q"},
		Short:   "Find a product by SKU",
		Example: "  beyond products search --sku SHIRT-RED-M",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(sku) == "" {
				return fmt.Errorf("--sku is required")
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Products(ac.Session).SearchBySKU(cmdContext(cmd), sku)
			return printServiceResult(cmd, v, err)
		}),
	}

	cmd.Flags().StringVar(&sku, "sku", "", "Product SKU")
	return cmd
}

func newProductsCreateCmd() *cobra.Command {
	var bf bodyFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Example: strings.TrimSpace(`
  beyond products create -f sku=SHIRT-RED-M -f name="Red shirt" \
    -F 'sales_price={"tax_model":"GROSS","amount":19.99,"currency":"EUR"}'`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			body, err := bf.body(cmd)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.Products(ac.Session).Create(cmdContext(cmd), body)
			return printServiceResult(cmd, v, err)
		}),
	}

	bf.register(cmd)
	return cmd
}

func newProductsUpdateCmd() *cobra.Command {
	var bf bodyFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Partially update a product",
		Long:  "Send a merge-patch with the given fields. Fields not named are left unchanged.",
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
			v, err := ac.Client.Products(ac.Session).Update(cmdContext(cmd), args[0], body)
			return printServiceResult(cmd, v, err)
		}),
	}

	bf.register(cmd)
	return cmd
}

func newProductsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a product",
		Args:    cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.Products(ac.Session).Delete(cmdContext(cmd), args[0])
			return printDone(cmd, v, err, "Product %s deleted.\n", args[0])
		}),
	}
}

func newProductImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"img"},
		Short:   "Manage product images",
	}

	cmd.AddCommand(newProductImagesListCmd())
	cmd.AddCommand(newProductImagesUploadCmd())
	cmd.AddCommand(newProductImagesDeleteCmd())
	return cmd
}

func newProductImagesListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:     "list <product-id>",
		Aliases: []string{"ls"},
		Short:   "List the images of a product",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			query, err := lf.query(cmd)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.ProductImages(ac.Session).All(cmdContext(cmd), args[0], query)
			return printServiceResult(cmd, v, err)
		}),
	}

	lf.register(cmd)
	return cmd
}

func newProductImagesUploadCmd() *cobra.Command {
	var (
		name        string
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "upload <product-id> <file>",
		Short: "Upload an image to a product",
		Example: strings.TrimSpace(`
  beyond products images upload 7e5c7f1e ./front.jpg
  cat front.png | beyond products images upload 7e5c7f1e - --name front.png`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			productID, file := args[0], args[1]
			if name == "" {
				if file == "-" {
					return fmt.Errorf("--name is required when reading from stdin")
				}
				name = filepath.Base(file)
			}
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.ProductImages(ac.Session).Upload(cmdContext(cmd), productID, name, bytes.NewReader(data), contentType)
			return printServiceResult(cmd, v, err)
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "File name sent to the API (defaults to the file's base name)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Image content type (detected when empty)")
	flagAlias(cmd.Flags(), "content-type", "ct")
	return cmd
}

func newProductImagesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <product-id> <image-id>",
		Aliases: []string{"rm"},
		Short:   "Remove an image from a product",
		Args:    cobra.ExactArgs(2),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.ProductImages(ac.Session).Delete(cmdContext(cmd), args[0], args[1])
			return printDone(cmd, v, err, "Image %s removed from product %s.\n", args[1], args[0])
		}),
	}
}
