package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/beyond-api/beyond-cli/internal/resolve"
)

// maxSuggestDistance bounds how far a typo may be from a known name.
const maxSuggestDistance = 3

// suggestCommand finds the closest command name to the unknown input, or "".
func suggestCommand(unknown string, commands []string) string {
	return closest(strings.ToLower(unknown), commands, strings.ToLower)
}

// suggestFlag finds the closest flag to the unknown input. Leading dashes are
// ignored for the comparison but kept in the returned name.
func suggestFlag(unknown string, flags []string) string {
	bare := func(s string) string { return strings.ToLower(strings.TrimLeft(s, "-")) }
	if bare(unknown) == "" {
		return ""
	}
	return closest(bare(unknown), flags, bare)
}

func closest(target string, candidates []string, key func(string) string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range candidates {
		if d := resolve.EditDistance(target, key(candidate)); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

// explainUsageError appends a did-you-mean hint to cobra's unknown command
// and unknown flag errors. target is the command cobra resolved, possibly
// nil.
func explainUsageError(err error, root, target *cobra.Command) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unknown command"):
		unknown := extractQuoted(msg)
		if unknown == "" {
			break
		}
		if hint := suggestCommand(unknown, commandNames(root)); hint != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?", msg, hint)
		}
	case strings.Contains(msg, "unknown flag"), strings.Contains(msg, "unknown shorthand flag"):
		unknown := extractFlag(msg)
		if unknown == "" {
			break
		}
		if target == nil {
			target = root
		}
		help := fmt.Sprintf("Run %q to see supported flags.", strings.TrimSpace(target.CommandPath())+" --help")
		if hint := suggestFlag(unknown, flagNames(target)); hint != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\n%s", msg, hint, help)
		}
		return fmt.Sprintf("%s\n\n%s", msg, help)
	}
	return msg
}

func commandNames(root *cobra.Command) []string {
	var names []string
	for _, c := range root.Commands() {
		if c.IsAvailableCommand() || c.Name() == "help" {
			names = append(names, c.Name())
			names = append(names, c.Aliases...)
		}
	}
	return names
}

// flagNames lists the visible long and short flags of cmd, inherited ones
// included.
func flagNames(cmd *cobra.Command) []string {
	seen := map[string]bool{}
	var names []string
	collect := func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		candidates := []string{"--" + f.Name}
		if f.Shorthand != "" {
			candidates = append(candidates, "-"+f.Shorthand)
		}
		for _, name := range candidates {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	cmd.Flags().VisitAll(collect)
	cmd.InheritedFlags().VisitAll(collect)
	return names
}

// extractQuoted returns the first double-quoted substring of s.
func extractQuoted(s string) string {
	_, rest, ok := strings.Cut(s, `"`)
	if !ok {
		return ""
	}
	quoted, _, ok := strings.Cut(rest, `"`)
	if !ok {
		return ""
	}
	return quoted
}

// extractFlag finds the offending flag in a pflag error, either "--name" or
// the "-x" of "unknown shorthand flag: 'x' in -x".
func extractFlag(s string) string {
	trim := func(word string) string { return strings.TrimRight(word, ".,;:!?\"'") }

	if idx := strings.Index(s, "--"); idx >= 0 {
		word, _, _ := strings.Cut(s[idx:], " ")
		return trim(word)
	}
	idx := strings.LastIndex(s, " -")
	if idx < 0 {
		return ""
	}
	word, _, _ := strings.Cut(strings.TrimSpace(s[idx+1:]), " ")
	word = trim(word)
	if len(word) > 1 && word[0] == '-' {
		return word
	}
	return ""
}
