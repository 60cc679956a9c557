package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/config"
	"github.com/beyond-api/beyond-cli/internal/debug"
	"github.com/beyond-api/beyond-cli/internal/dryrun"
	"github.com/beyond-api/beyond-cli/internal/iocontext"
	"github.com/beyond-api/beyond-cli/internal/outfmt"
)

type rootFlags struct {
	Output   string
	JSON     bool
	Compact  bool
	Query    string
	JQ       string
	Template string

	Debug  bool
	Quiet  bool
	Silent bool
	DryRun bool

	Profile string
	Timeout time.Duration
}

// flags is reset by every Execute call. Outside a command's RunE it still
// holds the previous invocation's values.
var flags rootFlags

func newRootFlags() rootFlags {
	output := strings.TrimSpace(os.Getenv("BEYOND_OUTPUT"))
	if output == "" {
		output = "text"
	}
	return rootFlags{Output: output}
}

// query prefers --jq over --query.
func (f rootFlags) query() string {
	if f.JQ != "" {
		return f.JQ
	}
	return f.Query
}

// outputOptions resolves the output flags. --json conflicts with an explicit
// non-json --output; --query and --template imply json unless --output was
// given.
func (f *rootFlags) outputOptions(cmd *cobra.Command) (outfmt.Options, error) {
	outputSet := flagOrAliasChanged(cmd, "output")
	switch {
	case f.JSON && outputSet && f.Output != "json":
		return outfmt.Options{}, fmt.Errorf("--json cannot be used with --output %s", f.Output)
	case f.JSON, !outputSet && (f.query() != "" || f.Template != ""):
		f.Output = "json"
	}

	mode, err := outfmt.Parse(f.Output)
	if err != nil {
		return outfmt.Options{}, err
	}
	opts := outfmt.Options{Mode: mode, Compact: f.Compact, Query: f.query()}
	if f.Template != "" {
		if opts.Template, err = loadTemplate(f.Template); err != nil {
			return outfmt.Options{}, err
		}
	}
	return opts, nil
}

// setup builds the command context from the global flags.
func (f *rootFlags) setup(cmd *cobra.Command) error {
	if f.Timeout < 0 {
		return fmt.Errorf("--timeout must be >= 0")
	}
	opts, err := f.outputOptions(cmd)
	if err != nil {
		return err
	}

	ctx := outfmt.WithOptions(cmd.Context(), opts)
	streams := iocontext.GetIO(ctx)
	if f.Silent || f.Quiet {
		streams = streams.Quiet(f.Quiet && opts.Mode == outfmt.Text)
	}
	ctx = iocontext.WithIO(ctx, streams)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.ErrOut)

	debug.SetupLogger(config.DefaultLogLevel, f.Debug)
	ctx = debug.WithDebug(ctx, f.Debug)
	ctx = dryrun.WithDryRun(ctx, f.DryRun)

	cmd.SetContext(ctx)
	return nil
}

func (f *rootFlags) register(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.StringVarP(&f.Output, "output", "o", f.Output, "Output format: text|json|jsonl|ndjson (env BEYOND_OUTPUT)")
	pf.BoolVarP(&f.JSON, "json", "j", false, "Shorthand for --output json")
	pf.BoolVar(&f.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.StringVarP(&f.Query, "query", "q", "", "JQ expression to filter JSON output")
	pf.StringVar(&f.JQ, "jq", "", "Alias for --query")
	pf.StringVar(&f.Template, "template", "", "Go template string (or @path) to render output")
	pf.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	pf.BoolVarP(&f.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVar(&f.Silent, "silent", false, "Suppress non-error output to stderr")
	pf.BoolVar(&f.DryRun, "dry-run", false, "Print the requests that would be sent without sending them")
	pf.StringVar(&f.Profile, "profile", "", "Credential profile (env BEYOND_PROFILE)")
	pf.DurationVar(&f.Timeout, "timeout", 0, "HTTP request timeout (e.g. 30s); overrides the configured timeout")

	for name, alias := range map[string]string{
		"output":       "out",
		"compact-json": "cj",
		"debug":        "dbg",
		"template":     "tpl",
		"timeout":      "to",
		"profile":      "pf",
		"dry-run":      "dr",
	} {
		flagAlias(pf, name, alias)
	}
}

// Execute runs the beyond command tree with args.
func Execute(ctx context.Context, args []string) error {
	flags = newRootFlags()

	root := &cobra.Command{
		Use:   "beyond",
		Short: "CLI for the shop REST API",
		Long: strings.TrimSpace(`
beyond talks to a shop's REST API: it manages OAuth tokens, sends raw
requests, walks paginated collections and uploads files.

Settings come from the config file, a .env file and BEYOND_* environment
variables. Tokens are kept per profile in the OS keyring.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		// explainUsageError adds its own suggestions.
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return flags.setup(cmd)
		},
	}
	streams := iocontext.GetIO(ctx)
	root.SetContext(ctx)
	root.SetArgs(args)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)
	flags.register(root)

	root.AddCommand(
		newAuthCmd(),
		newAPICmd(),
		newListCmd(),
		newGetCmd(),
		newUploadCmd(),
		newProductsCmd(),
		newOrdersCmd(),
		newShopCmd(),
		newCategoriesCmd(),
		newWebhooksCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)

	target, err := root.ExecuteC()
	if err != nil && !errors.Is(err, errAlreadyHandled) {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), explainUsageError(err, root, target))
	}
	return err
}

// loadTemplate reads "@path" values from disk; anything else is the template.
func loadTemplate(value string) (string, error) {
	path, fromFile := strings.CutPrefix(value, "@")
	if !fromFile {
		return value, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template file: %w", err)
	}
	return string(data), nil
}
