package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/update"
)

// Set with -ldflags "-X github.com/beyond-api/beyond-cli/internal/cmd.version=...".
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Long:    "Print the CLI version and, unless BEYOND_NO_UPDATE_CHECK is set, whether a newer release exists.",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			notice := update.Check(cmdContext(cmd), version)

			if !isJSON(cmd) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "beyond-cli version %s\n", version)
				if notice != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\nUpdate available: %s -> %s\nDownload: %s\n",
						notice.Current, notice.Latest, notice.URL)
				}
				return nil
			}

			info := map[string]any{"version": version}
			if notice != nil {
				info["latest"], info["update_url"] = notice.Latest, notice.URL
			}
			return printResult(cmd, info)
		}),
	}
}
