package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const aliasOfAnnotation = "alias-of"

// aliasValue shares the canonical flag's Value and marks the canonical flag
// changed when the alias is set, so required-flag checks accept the alias.
type aliasValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// aliasSliceValue keeps repeated slice flags appending through the alias.
type aliasSliceValue struct {
	*aliasValue
	slice pflag.SliceValue
}

func (v aliasSliceValue) Append(s string) error     { return v.slice.Append(s) }
func (v aliasSliceValue) Replace(ss []string) error { return v.slice.Replace(ss) }
func (v aliasSliceValue) GetSlice() []string        { return v.slice.GetSlice() }

// flagAlias registers alias as a hidden second name for the flag name.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	canonical := fs.Lookup(name)
	if canonical == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}

	value := &aliasValue{Value: canonical.Value, canonical: canonical}
	if slice, ok := canonical.Value.(pflag.SliceValue); ok {
		fs.Var(aliasSliceValue{aliasValue: value, slice: slice}, alias, "")
	} else {
		fs.Var(value, alias, "")
	}

	f := fs.Lookup(alias)
	f.Hidden = true
	f.NoOptDefVal = canonical.NoOptDefVal
	f.DefValue = canonical.DefValue
	_ = fs.SetAnnotation(alias, aliasOfAnnotation, []string{name})
}

// flagOrAliasChanged reports whether the user set the flag under its own name
// or any alias.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.InheritedFlags()} {
		if fs.Changed(name) {
			return true
		}
		changed := false
		fs.VisitAll(func(f *pflag.Flag) {
			if of := f.Annotations[aliasOfAnnotation]; f.Changed && len(of) > 0 && of[0] == name {
				changed = true
			}
		})
		if changed {
			return true
		}
	}
	return false
}
