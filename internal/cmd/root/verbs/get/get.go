package get

import (
	"fmt"
	"net/http"

	"github.com/inventree/invctl/internal/cmd"
	jqoutput "github.com/inventree/invctl/internal/cmd/output/jq"
	"github.com/inventree/invctl/internal/cmd/output/tableview"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/models"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Get

	OpenFlagName = "open"
)

var (
	getUse = Verb.String() + " <resource> <pk>"

	getShort = i18n.T("root.verbs.get.getShort", "Retrieve a single record")

	getLong = normalizers.LongDesc(i18n.T("root.verbs.get.getLong",
		`Use get to retrieve one record by primary key.

Text output lists every field with the label the server reports for it.
With --open the record detail page is opened in the browser as well.`))

	getExamples = normalizers.Examples(i18n.T("root.verbs.get.getExamples",
		fmt.Sprintf(`
		# Show part 42
		%[1]s get part 42
		# Print the stock quantity of a stock item
		%[1]s get stock 7 -o json --jq .quantity
		# Open the detail page of a category
		%[1]s get categories 3 --open
		`, meta.CLIName)))
)

func NewGetCmd() (*cobra.Command, error) {
	var open bool

	c := &cobra.Command{
		Use:              getUse,
		Short:            getShort,
		Long:             getLong,
		Example:          getExamples,
		Aliases:          []string{"g"},
		Args:             cobra.ExactArgs(2),
		PersistentPreRun: verbs.SetVerb(Verb),
		PreRunE: func(c *cobra.Command, args []string) error {
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			return jqoutput.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args), open)
		},
	}

	c.Flags().BoolVar(&open, OpenFlagName, false,
		i18n.T("root.verbs.get."+OpenFlagName, "Open the record detail page in the browser."))
	jqoutput.AddFlags(c.Flags())

	return c, nil
}

func run(helper cmd.Helper, open bool) error {
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

	ctx := helper.GetContext()
	rec, err := s.Record(ctx, res, args[1])
	if err != nil {
		return err
	}

	if open {
		if res.Model == "" {
			return &cmd.ConfigurationError{Err: fmt.Errorf("%s records have no detail page", res.Name)}
		}
		target, err := models.DetailURL(s.Client.BaseURL, models.ModelType(res.Model), rec.PKValue())
		if err != nil {
			return cmd.PrepareExecutionErrorFromErr(helper, err)
		}
		if err := s.Opener().Open(target); err != nil {
			return cmd.PrepareExecutionErrorFromErr(helper, err)
		}
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	return tableview.RenderForFormat(helper, outType, rec.Raw(), func() error {
		probe := s.Probe(res, http.MethodGet)
		probe.Suppress = true
		labels, err := s.Prober.Labels(ctx, probe)
		if err != nil {
			s.Logger.Debug("labels unavailable", "resource", res.Name, "error", err)
		}
		title := fmt.Sprintf("%s %s", res.Name, rec.PK())
		return tableview.Static(helper.GetStreams().Out, title,
			[]string{"Field", "Label", "Value"}, tableview.FieldRows(rec.Raw(), labels), "")
	})
}
