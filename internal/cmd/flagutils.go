package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// FlagEnum is a string flag restricted to a fixed set of values. Values are
// matched case-insensitively and stored in their canonical spelling.
type FlagEnum struct {
	Allowed []string
	Value   string
}

func NewEnum(allowed []string, d string) *FlagEnum {
	return &FlagEnum{
		Allowed: allowed,
		Value:   d,
	}
}

func (a FlagEnum) String() string {
	return a.Value
}

func (a *FlagEnum) Set(p string) error {
	idx := slices.IndexFunc(a.Allowed, func(opt string) bool {
		return strings.EqualFold(opt, strings.TrimSpace(p))
	})
	if idx < 0 {
		return fmt.Errorf("invalid value %q, must be one of %s", p, strings.Join(a.Allowed, ", "))
	}
	a.Value = a.Allowed[idx]
	return nil
}

// Type is shown in place of the value placeholder in help output.
func (a *FlagEnum) Type() string {
	return strings.Join(a.Allowed, "|")
}

// Complete offers the allowed values for shell completion.
func (a *FlagEnum) Complete(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return a.Allowed, cobra.ShellCompDirectiveNoFileComp
}
