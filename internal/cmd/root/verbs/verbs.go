package verbs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const (
	List     = VerbValue("list")
	Get      = VerbValue("get")
	Describe = VerbValue("describe")
	Create   = VerbValue("create")
	Delete   = VerbValue("delete")
	Export   = VerbValue("export")
	Print    = VerbValue("print")
	Cache    = VerbValue("cache")
	Login    = VerbValue("login")
	Logout   = VerbValue("logout")
	Help     = VerbValue("help")
)

// Empty type to represent the _type_ Verb. Genesis is to support a key in a Context
type VerbKey struct{}

// Verb is a global instance of the VerbKey type
var Verb = VerbKey{}

// Will represent a specific Verb (list, get, create, delete, etc)
type VerbValue string

func (v VerbValue) String() string {
	return string(v)
}

// NoPositionalArgs rejects positional arguments.
func NoPositionalArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q", args[0])
	}
	return nil
}

// SetVerb returns a PersistentPreRun that records verb on the command context.
func SetVerb(verb VerbValue) func(*cobra.Command, []string) {
	return func(c *cobra.Command, _ []string) {
		c.SetContext(contextWithVerb(c, verb))
	}
}

func contextWithVerb(c *cobra.Command, verb VerbValue) context.Context {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, Verb, verb)
}
