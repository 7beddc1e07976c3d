package export

import (
	"fmt"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/table"
	"github.com/inventree/invctl/internal/table/actions"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Export

	FormatFlagName   = "format"
	PrintURLFlagName = "print-url"
)

var (
	exportUse = Verb.String() + " <resource>"

	exportShort = i18n.T("root.verbs.export.exportShort", "Download the records of a table")

	exportLong = normalizers.LongDesc(i18n.T("root.verbs.export.exportLong",
		`Use export to download every record matching a query as a file.

The export is produced by the server from the unpaginated query and is opened
in the browser. Use --print-url to print the download link instead.`))

	exportExamples = normalizers.Examples(i18n.T("root.verbs.export.exportExamples",
		fmt.Sprintf(`
		# Download active parts as a spreadsheet
		%[1]s export part --filter active=true --format xlsx
		# Print the download link of the low stock items
		%[1]s export stock --filter low_stock=true --print-url
		`, meta.CLIName)))
)

type options struct {
	session.Query
	format   string
	printURL bool
}

func NewExportCmd() (*cobra.Command, error) {
	opts := &options{}

	c := &cobra.Command{
		Use:              exportUse,
		Short:            exportShort,
		Long:             exportLong,
		Example:          exportExamples,
		Aliases:          []string{"e"},
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: verbs.SetVerb(Verb),
		RunE: func(c *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			format, err := actions.ParseExportFormat(opts.format)
			if err != nil {
				return &cmd.ConfigurationError{Err: err}
			}
			return run(cmd.BuildHelper(c, args), opts, format)
		},
	}

	opts.AddFlags(c.Flags())
	c.Flags().StringVar(&opts.format, FormatFlagName, string(actions.ExportCSV),
		i18n.T("root.verbs.export."+FormatFlagName, "File format: csv, tsv or xlsx."))
	c.Flags().BoolVar(&opts.printURL, PrintURLFlagName, false,
		i18n.T("root.verbs.export."+PrintURLFlagName, "Print the download URL instead of opening it."))

	return c, nil
}

func run(helper cmd.Helper, opts *options, format actions.ExportFormat) error {
	s, err := session.Open(helper)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Resource(helper.GetArgs()[0])
	if err != nil {
		return err
	}

	out := helper.GetStreams().Out
	// The URL itself is the output, so the started notice is not repeated.
	grid := s.Table(res, func(table.Notice) {})
	if err := opts.Apply(grid); err != nil {
		return err
	}

	if opts.printURL {
		scope := grid.Scope()
		target, err := actions.ExportURL(scope.ListURL, scope.Query, format)
		if err != nil {
			return cmd.PrepareExecutionErrorFromErr(helper, err)
		}
		_, err = fmt.Fprintln(out, target)
		return err
	}

	target, err := grid.Export(format)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "export failed", err, "resource", res.Name)
	}
	_, err = fmt.Fprintf(out, "%s %s\n", i18n.T("root.verbs.export.opened", "Opened"), target)
	return err
}
