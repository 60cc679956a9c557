package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/api"
)

func newUploadCmd() *cobra.Command {
	var (
		contentType string
		multipart   bool
		fieldName   string
		formFields  []string
		params      []string
	)

	cmd := &cobra.Command{
		Use:   "upload <path> <file>",
		Short: "POST a file to an API path",
		Long: strings.TrimSpace(`
POST a file as the raw request body. The content type is detected from the
data unless --content-type is given. Use - to read the file from stdin.

With --multipart the file is sent as multipart/form-data under --field,
together with any --form fields.`),
		Example: strings.TrimSpace(`
  beyond upload /products/123/images ./shirt.png -p file_name=shirt.png
  beyond upload /imports ./catalog.csv --multipart --field file --form mode=append`),
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			path, file := args[0], args[1]
			if multipart && contentType != "" {
				return fmt.Errorf("--content-type cannot be used with --multipart")
			}

			data, err := readInput(cmd, file)
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

			var res api.Result
			if multipart {
				fields := make(map[string]string, len(formFields))
				for _, f := range formFields {
					key, value, err := parseField(f)
					if err != nil {
						return err
					}
					fields[key] = value
				}
				name := filepath.Base(file)
				if file == "-" {
					name = "upload"
				}
				res, err = ac.Client.UploadMultipart(cmdContext(cmd), ac.Session, path, fieldName, fields, map[string][]byte{name: data})
			} else {
				res, err = ac.Client.Upload(cmdContext(cmd), ac.Session, path, bytes.NewReader(data), contentType, query)
			}
			if err != nil {
				return err
			}
			if err := failureErr(res); err != nil {
				return err
			}
			return printResult(cmd, res.Value)
		}),
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type of the file (detected when empty)")
	cmd.Flags().BoolVar(&multipart, "multipart", false, "Send as multipart/form-data")
	cmd.Flags().StringVar(&fieldName, "field", "file", "Form field name for the file (with --multipart)")
	cmd.Flags().StringArrayVar(&formFields, "form", nil, "Extra form field as key=value (with --multipart)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value")
	flagAlias(cmd.Flags(), "content-type", "ct")

	return cmd
}
