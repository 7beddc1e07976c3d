package describe

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/inventree/invctl/internal/cmd"
	jqoutput "github.com/inventree/invctl/internal/cmd/output/jq"
	"github.com/inventree/invctl/internal/cmd/output/markdown"
	"github.com/inventree/invctl/internal/cmd/output/tableview"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/forms"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/resources"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Describe

	MethodFlagName = "method"
)

var (
	describeUse = Verb.String() + " <resource>"

	describeShort = i18n.T("root.verbs.describe.describeShort", "Describe the fields of an inventory table")

	describeLong = normalizers.LongDesc(i18n.T("root.verbs.describe.describeLong",
		`Use describe to show what the server reports about a table: the methods you
are allowed to use, every field with its label, type and help text, and the
filters list accepts.`))

	describeExamples = normalizers.Examples(i18n.T("root.verbs.describe.describeExamples",
		fmt.Sprintf(`
		# Describe the part table
		%[1]s describe parts
		# Show the fields create accepts for stock items
		%[1]s describe stock --method POST
		`, meta.CLIName)))
)

// Description is the structured form of describe output.
type Description struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Endpoint    string      `json:"endpoint" yaml:"endpoint"`
	Methods     []string    `json:"methods" yaml:"methods"`
	Method      string      `json:"method" yaml:"method"`
	Fields      []FieldInfo `json:"fields" yaml:"fields"`
	Filters     []string    `json:"filters,omitempty" yaml:"filters,omitempty"`
}

type FieldInfo struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Kind     string `json:"kind" yaml:"kind"`
	Input    string `json:"input" yaml:"input"`
	Required bool   `json:"required" yaml:"required"`
	ReadOnly bool   `json:"read_only" yaml:"read_only"`
	Help     string `json:"help,omitempty" yaml:"help,omitempty"`
}

func NewDescribeCmd() (*cobra.Command, error) {
	var method string

	c := &cobra.Command{
		Use:              describeUse,
		Short:            describeShort,
		Long:             describeLong,
		Example:          describeExamples,
		Aliases:          []string{"desc"},
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: verbs.SetVerb(Verb),
		PreRunE: func(c *cobra.Command, args []string) error {
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			return jqoutput.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args), strings.ToUpper(strings.TrimSpace(method)))
		},
	}

	c.Flags().StringVar(&method, MethodFlagName, http.MethodGet,
		i18n.T("root.verbs.describe."+MethodFlagName, "HTTP method whose fields are described, GET or POST."))
	jqoutput.AddFlags(c.Flags())

	return c, nil
}

func run(helper cmd.Helper, method string) error {
	s, err := session.Open(helper)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Resource(helper.GetArgs()[0])
	if err != nil {
		return err
	}

	probe := s.Probe(res, method)
	opts, err := s.Prober.Options(helper.GetContext(), probe)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to describe "+res.Name, err, "resource", res.Name)
	}
	if opts.HasActions() && !opts.HasMethod(method) {
		return cmd.PrepareExecutionErrorMsg(helper,
			fmt.Sprintf("%s is not available for %s, allowed: %s", method, res.Name, strings.Join(opts.Methods(), ", ")))
	}
	fields, err := opts.Fields(method)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "invalid field definitions", err, "resource", res.Name)
	}

	desc := Describe(res, opts, method, fields)

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	return tableview.RenderForFormat(helper, outType, desc, func() error {
		out := helper.GetStreams().Out
		_, err := fmt.Fprintln(out, markdown.Render(Markdown(desc), markdown.OptionsFor(out)))
		return err
	})
}

// Describe combines the resource definition with the server metadata.
func Describe(res resources.Resource, opts *metadata.Options, method string, fields []metadata.Field) Description {
	desc := Description{
		Name:        res.Name,
		Description: opts.Description,
		Endpoint:    res.Endpoint,
		Methods:     opts.Methods(),
		Method:      method,
	}
	if desc.Description == "" {
		desc.Description = res.Description
	}
	appendFields(&desc, fields)
	for _, f := range res.Filters {
		desc.Filters = append(desc.Filters, f.Name)
	}
	return desc
}

func appendFields(desc *Description, fields []metadata.Field) {
	for _, f := range fields {
		if len(f.Children) > 0 {
			appendFields(desc, f.Children)
			continue
		}
		kind := forms.KindOf(f)
		desc.Fields = append(desc.Fields, FieldInfo{
			Name:     f.Name,
			Label:    f.Label,
			Kind:     kind.Name(),
			Input:    kind.Describe(),
			Required: f.Required,
			ReadOnly: f.ReadOnly,
			Help:     f.HelpText,
		})
	}
}

// Markdown renders desc as a help document.
func Markdown(desc Description) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", desc.Name)
	if desc.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", desc.Description)
	}
	fmt.Fprintf(&b, "Endpoint `%s`, allowed methods: %s\n\n", desc.Endpoint, strings.Join(desc.Methods, ", "))

	fmt.Fprintf(&b, "## Fields (%s)\n\n", desc.Method)
	for _, f := range desc.Fields {
		fmt.Fprintf(&b, "- **%s**", f.Name)
		if f.Label != "" && f.Label != f.Name {
			fmt.Fprintf(&b, " (%s)", f.Label)
		}
		fmt.Fprintf(&b, ": %s", f.Input)
		switch {
		case f.ReadOnly:
			b.WriteString(", read only")
		case f.Required:
			b.WriteString(", required")
		}
		if f.Help != "" {
			fmt.Fprintf(&b, ". %s", f.Help)
		}
		b.WriteString("\n")
	}

	if len(desc.Filters) > 0 {
		b.WriteString("\n## Filters\n\n")
		for _, name := range desc.Filters {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
	}
	return b.String()
}
