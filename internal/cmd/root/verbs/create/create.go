package create

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	jqoutput "github.com/inventree/invctl/internal/cmd/output/jq"
	"github.com/inventree/invctl/internal/cmd/output/tableview"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/forms"
	"github.com/inventree/invctl/internal/inventree/apiutil"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/util"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Create

	SetFlagName    = "set"
	DryRunFlagName = "dry-run"
)

var (
	createUse = Verb.String() + " <resource>"

	createShort = i18n.T("root.verbs.create.createShort", "Create a record")

	createLong = normalizers.LongDesc(i18n.T("root.verbs.create.createLong",
		`Use create to add a record to an inventory table.

The writable fields are read from the server, so values are checked against
the field types before anything is sent. Nested fields use dotted names.
With --interactive, required fields that were not given are prompted for.`))

	createExamples = normalizers.Examples(i18n.T("root.verbs.create.createExamples",
		fmt.Sprintf(`
		# Create a part
		%[1]s create part --set name="Resistor 4k7" --set IPN=R-4K7 --set category=3
		# Show the request body without sending it
		%[1]s create part --set name=Fuse --dry-run -o json
		# Prompt for the required fields
		%[1]s create stock -i
		# List the fields a table accepts
		%[1]s describe stock --method POST
		`, meta.CLIName)))
)

type options struct {
	sets        []string
	dryRun      bool
	interactive bool
}

func NewCreateCmd() (*cobra.Command, error) {
	opts := &options{}

	c := &cobra.Command{
		Use:              createUse,
		Short:            createShort,
		Long:             createLong,
		Example:          createExamples,
		Aliases:          []string{"c", "add"},
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
			helper := cmd.BuildHelper(c, args)
			values, err := util.ParseKeyValues(opts.sets)
			if err != nil {
				return &cmd.ConfigurationError{Err: err}
			}
			return run(helper, opts, values)
		},
	}

	c.Flags().StringArrayVar(&opts.sets, SetFlagName, nil,
		i18n.T("root.verbs.create."+SetFlagName, "Field value as name=value. May be repeated."))
	c.Flags().BoolVar(&opts.dryRun, DryRunFlagName, false,
		i18n.T("root.verbs.create."+DryRunFlagName, "Print the request body instead of sending it."))
	c.Flags().BoolVarP(&opts.interactive, common.InteractiveFlagName, common.InteractiveFlagShort, false,
		i18n.T("root.verbs.create."+common.InteractiveFlagName, "Prompt for required fields that were not set."))
	jqoutput.AddFlags(c.Flags())

	return c, nil
}

func run(helper cmd.Helper, opts *options, values map[string]string) error {
	s, err := session.Open(helper)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Resource(helper.GetArgs()[0])
	if err != nil {
		return err
	}

	ctx := helper.GetContext()
	fields, err := s.Prober.Fields(ctx, s.Probe(res, http.MethodPost))
	if err != nil {
		if errors.Is(err, metadata.ErrPermissionDenied) {
			return cmd.PrepareExecutionErrorMsg(helper,
				fmt.Sprintf("you are not allowed to create %s", res.Name), "resource", res.Name)
		}
		if errors.Is(err, metadata.ErrNoMetadata) {
			return cmd.PrepareExecutionErrorMsg(helper,
				fmt.Sprintf("the server did not describe the fields of %s", res.Name), "resource", res.Name)
		}
		return cmd.PrepareExecutionErrorWithHelper(helper, "failed to read the create form", err, "resource", res.Name)
	}
	form := forms.Build(fields)

	interactive, err := helper.IsInteractive()
	if err != nil {
		return err
	}
	if interactive {
		streams := helper.GetStreams()
		if err := Prompt(form, values, streams.In, streams.ErrOut); err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, "input aborted", err)
		}
	}

	payload, err := form.Payload(values)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}

	if opts.dryRun {
		return tableview.RenderForFormat(helper, outType, payload, func() error {
			data, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(helper.GetStreams().Out, string(data))
			return err
		})
	}

	body, err := apiutil.JSONBody(payload)
	if err != nil {
		return err
	}
	ctx = log.WithHTTPLogContext(ctx, log.HTTPLogContext{Resource: res.Name, TableKey: res.Key(), Action: "create"})
	result, err := s.Client.Request(ctx, http.MethodPost, res.Endpoint, body)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "request failed", err, "resource", res.Name)
	}
	if !result.OK() {
		return cmd.PrepareExecutionErrorMsg(helper,
			fmt.Sprintf("create rejected: %s", apiutil.ErrorDetail(result.Body)),
			"resource", res.Name, "status", result.StatusCode)
	}

	var created map[string]any
	if err := json.Unmarshal(result.Body, &created); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "invalid create response", err, "resource", res.Name)
	}

	return tableview.RenderForFormat(helper, outType, created, func() error {
		title := fmt.Sprintf("%s %s", res.Name, i18n.T("root.verbs.create.created", "created"))
		return tableview.Static(helper.GetStreams().Out, title,
			[]string{"Field", "Label", "Value"}, tableview.FieldRows(created, metadata.FlattenLabels(fields)), "")
	})
}

// Prompt asks for every required field missing from values, one line each.
// An empty answer leaves the field unset.
func Prompt(form forms.Form, values map[string]string, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for _, field := range form.Required() {
		if _, ok := values[field.Name]; ok {
			continue
		}
		label := field.Label
		if label == "" {
			label = field.Name
		}
		if _, err := fmt.Fprintf(out, "%s (%s): ", label, field.Kind.Describe()); err != nil {
			return err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if answer := strings.TrimSpace(line); answer != "" {
			values[field.Name] = answer
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
	return nil
}
