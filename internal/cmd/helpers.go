package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/api"
	"github.com/beyond-api/beyond-cli/internal/dryrun"
	"github.com/beyond-api/beyond-cli/internal/iocontext"
	"github.com/beyond-api/beyond-cli/internal/outfmt"
)

func cmdContext(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

// printResult renders v with the query, template and mode of the context.
func printResult(cmd *cobra.Command, v any) error {
	streams := iocontext.GetIO(cmd.Context())
	return outfmt.NewFormatter(cmd.Context(), streams.Out, streams.ErrOut).Output(v)
}

func printJSONErr(cmd *cobra.Command, v any) error {
	ctx := cmd.Context()
	return outfmt.WriteJSON(iocontext.GetIO(ctx).ErrOut, v, outfmt.FromContext(ctx).Compact)
}

// printMessage writes a status line for humans. JSON and quiet runs skip it.
func printMessage(cmd *cobra.Command, format string, args ...any) {
	if flags.Quiet || isJSON(cmd) {
		return
	}
	_, _ = fmt.Fprintf(iocontext.GetIO(cmd.Context()).Out, format, args...)
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", path, err)
		}
		return data, nil
	}
	data, err := io.ReadAll(iocontext.GetIO(cmd.Context()).In)
	if err != nil {
		return nil, fmt.Errorf("failed to read from stdin: %w", err)
	}
	return data, nil
}

func failureErr(res api.Result) error {
	if res.Failure == nil {
		return nil
	}
	return res.Failure
}

// maskToken keeps the first and last four characters. Tokens of eight
// characters or fewer are masked entirely.
func maskToken(token string) string {
	const keep = 4
	if len(token) <= 2*keep {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + strings.Repeat("*", len(token)-2*keep) + token[len(token)-keep:]
}

// errAlreadyHandled marks errors that RunE has printed. Execute skips
// printing them again; the exit code still comes from the cause.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string { return e.err.Error() }

func (e *handledError) Unwrap() []error {
	return []error{errAlreadyHandled, e.err}
}

// RunE reports a command's failure once: as {"error": ...} on stderr in JSON
// mode, as text with suggestions otherwise. Dry-run previews are printed as
// results.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		if preview, ok := dryrun.As(err); ok {
			return printPreviews(cmd, preview)
		}

		if !isJSON(cmd) {
			_, _ = fmt.Fprint(iocontext.GetIO(cmd.Context()).ErrOut, HandleError(err))
		} else if structured := api.StructuredErrorFromError(err); structured != nil {
			_ = printJSONErr(cmd, map[string]any{"error": structured})
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

// printPreviews prints dry-run previews. In JSON mode one preview is an
// object and several are a list.
func printPreviews(cmd *cobra.Command, previews ...*dryrun.Preview) error {
	if !isJSON(cmd) {
		out := iocontext.GetIO(cmd.Context()).Out
		for _, p := range previews {
			p.Write(out)
		}
		return nil
	}
	if len(previews) == 1 {
		return printResult(cmd, previews[0].Map())
	}
	list := make([]any, 0, len(previews))
	for _, p := range previews {
		list = append(list, p.Map())
	}
	return printResult(cmd, list)
}
