package labels

import (
	"fmt"
	"strings"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/table/actions"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Print

	TemplateFlagName = "template"
	BarcodeFlagName  = "barcode"
)

var (
	printUse = Verb.String() + " <resource> <pk>..."

	printShort = i18n.T("root.verbs.print.printShort", "Print labels or barcodes for records")

	printLong = normalizers.LongDesc(i18n.T("root.verbs.print.printLong",
		`Use print to render a text label for each record.

The template is a Go text template over the record fields with the sprig
functions available; {{ barcode }} expands to the barcode payload of the record.
With --barcode only the barcode payloads are printed, one per line.`))

	printExamples = normalizers.Examples(i18n.T("root.verbs.print.printExamples",
		fmt.Sprintf(`
		# Print the default label of two parts
		%[1]s print part 1 7
		# Print a custom label
		%[1]s print stock 14 --template '{{ .part_detail.name | upper }} x{{ .quantity }}'
		# Print barcode payloads only
		%[1]s print location 3 --barcode
		`, meta.CLIName)))
)

type options struct {
	template string
	barcode  bool
}

func NewPrintCmd() (*cobra.Command, error) {
	opts := &options{}

	c := &cobra.Command{
		Use:              printUse,
		Short:            printShort,
		Long:             printLong,
		Example:          printExamples,
		Aliases:          []string{"p", "label"},
		Args:             cobra.MinimumNArgs(2),
		PersistentPreRun: verbs.SetVerb(Verb),
		RunE: func(c *cobra.Command, args []string) error {
			if opts.barcode && opts.template != "" {
				return &cmd.ConfigurationError{
					Err: fmt.Errorf("--%s and --%s cannot be combined", BarcodeFlagName, TemplateFlagName),
				}
			}
			return run(cmd.BuildHelper(c, args), opts)
		},
	}

	c.Flags().StringVar(&opts.template, TemplateFlagName, "",
		i18n.T("root.verbs.print."+TemplateFlagName, "Label template. Defaults to the primary key, name and barcode."))
	c.Flags().BoolVar(&opts.barcode, BarcodeFlagName, false,
		i18n.T("root.verbs.print."+BarcodeFlagName, "Print barcode payloads instead of labels."))

	return c, nil
}

func run(helper cmd.Helper, opts *options) error {
	s, err := session.Open(helper)
	if err != nil {
		return err
	}
	defer s.Close()

	args := helper.GetArgs()
	res, err := s.Resource(args[0])
	if err != nil {
		return err
	}
	if res.Model == "" && (opts.barcode || opts.template == "") {
		return &cmd.ConfigurationError{Err: fmt.Errorf("%s records have no barcodes", res.Name)}
	}

	ctx := helper.GetContext()
	scope := s.Table(res, nil).Scope()
	for _, pk := range args[1:] {
		rec, err := s.Record(ctx, res, pk)
		if err != nil {
			return err
		}
		scope.Selected = append(scope.Selected, rec)
	}

	out := helper.GetStreams().Out
	if opts.barcode {
		lines, err := barcodes(scope)
		if err != nil {
			return cmd.PrepareExecutionErrorFromErr(helper, err)
		}
		_, err = fmt.Fprintln(out, strings.Join(lines, "\n"))
		return err
	}

	labels, err := actions.PrintLabels(scope, opts.template)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	_, err = fmt.Fprint(out, labels)
	return err
}

func barcodes(scope actions.Scope) ([]string, error) {
	rv := make([]string, 0, len(scope.Selected))
	for _, rec := range scope.Selected {
		data, err := actions.BarcodeData(scope.Model, rec)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.PK(), err)
		}
		rv = append(rv, data)
	}
	return rv, nil
}
