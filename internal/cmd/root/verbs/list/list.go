package list

import (
	"fmt"
	"strings"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	jqoutput "github.com/inventree/invctl/internal/cmd/output/jq"
	"github.com/inventree/invctl/internal/cmd/output/tableview"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/resources"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.List

	PageFlagName = "page"
)

var (
	listUse = Verb.String() + " [resource]"

	listShort = i18n.T("root.verbs.list.listShort", "List records of an inventory table")

	listLong = normalizers.LongDesc(i18n.T("root.verbs.list.listLong",
		`Use list to retrieve one page of records from an inventory table.

Without a resource argument the known tables are listed. Filters are validated
against the filters the table declares. With --interactive the records are shown
in a grid that supports paging, sorting, searching, selection and bulk actions.`))

	listExamples = normalizers.Examples(i18n.T("root.verbs.list.listExamples",
		fmt.Sprintf(`
		# Show the known tables
		%[1]s list
		# List active parts matching "resistor", newest name first
		%[1]s list parts --filter active=true --search resistor --sort -name
		# Browse stock items interactively
		%[1]s list stock -i
		# Print only the part names
		%[1]s list parts -o json --jq '.[].name' -r
		`, meta.CLIName)))
)

type options struct {
	session.Query
	interactive bool
}

func NewListCmd() (*cobra.Command, error) {
	opts := &options{}

	c := &cobra.Command{
		Use:              listUse,
		Short:            listShort,
		Long:             listLong,
		Example:          listExamples,
		Aliases:          []string{"ls", "l"},
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRun: verbs.SetVerb(Verb),
		PreRunE:          bindFlags,
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)
			if err := validate(helper, opts); err != nil {
				return err
			}
			return run(helper, opts)
		},
	}

	opts.AddFlags(c.Flags())
	c.Flags().IntVar(&opts.Page, PageFlagName, 1,
		i18n.T("root.verbs.list."+PageFlagName, "Page number to retrieve, starting at 1."))
	c.Flags().BoolVarP(&opts.interactive, common.InteractiveFlagName, common.InteractiveFlagShort, false,
		i18n.T("root.verbs.list."+common.InteractiveFlagName, "Browse the records in the interactive grid."))
	jqoutput.AddFlags(c.Flags())

	return c, nil
}

func bindFlags(c *cobra.Command, args []string) error {
	helper := cmd.BuildHelper(c, args)
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	return jqoutput.BindFlags(cfg, c.Flags())
}

func validate(helper cmd.Helper, opts *options) error {
	if opts.Page < 1 {
		return &cmd.ConfigurationError{Err: fmt.Errorf("--%s must be 1 or greater", PageFlagName)}
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	interactive, err := helper.IsInteractive()
	if err != nil {
		return err
	}
	if interactive && len(helper.GetArgs()) == 0 {
		return &cmd.ConfigurationError{Err: fmt.Errorf("--%s requires a resource", common.InteractiveFlagName)}
	}
	return nil
}

func run(helper cmd.Helper, opts *options) error {
	if len(helper.GetArgs()) == 0 {
		return listResources(helper)
	}

	s, err := session.Open(helper)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Resource(helper.GetArgs()[0])
	if err != nil {
		return err
	}

	interactive, err := helper.IsInteractive()
	if err != nil {
		return err
	}
	if interactive {
		return runInteractive(helper, s, res, opts)
	}

	grid := s.Table(res, nil)
	if err := opts.Apply(grid); err != nil {
		return err
	}

	ctx := helper.GetContext()
	// Labels only improve headers; a failed probe still lists records.
	_ = grid.LoadMetadata(ctx)
	result := grid.Refresh(ctx)
	if result.Message != "" {
		return cmd.PrepareExecutionErrorMsg(helper, result.Message,
			"resource", res.Name, "status", result.StatusCode)
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	state := grid.State()
	return tableview.RenderForFormat(helper, outType, rawRecords(state.Records()), func() error {
		headers, rows := tableview.StaticMatrix(grid)
		if len(rows) == 0 {
			_, err := fmt.Fprintln(helper.GetStreams().Out, grid.EmptyMessage())
			return err
		}
		footer := fmt.Sprintf("%s %d/%d · %s", i18n.T("root.verbs.list.page", "Page"),
			state.Page(), state.PageCount(), i18n.Count(state.Count(), "record", "records"))
		return tableview.Static(helper.GetStreams().Out, res.Name, headers, rows, footer)
	})
}

func runInteractive(helper cmd.Helper, s *session.Session, res resources.Resource, opts *options) error {
	// the grid owns the terminal until it exits
	defer log.SuppressErrorMirroring()()

	notify, notices := tableview.NewNotifier()
	grid := s.Table(res, notify)
	if err := opts.Apply(grid); err != nil {
		return err
	}

	ctx := helper.GetContext()
	_ = grid.LoadMetadata(ctx)

	streams := helper.GetStreams()
	if err := tableview.Run(ctx, streams.In, streams.Out, grid, notices); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "interactive grid failed", err)
	}
	return nil
}

func rawRecords(records []record.Record) []map[string]any {
	rv := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rv = append(rv, rec.Raw())
	}
	return rv
}

type resourceInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Endpoint    string   `json:"endpoint" yaml:"endpoint"`
	Model       string   `json:"model,omitempty" yaml:"model,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

func listResources(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	reg, err := session.Registry(cfg)
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}

	infos := make([]resourceInfo, 0, len(reg.Names()))
	for _, res := range reg.Resources() {
		infos = append(infos, resourceInfo{
			Name:        res.Name,
			Aliases:     res.Aliases,
			Endpoint:    res.Endpoint,
			Model:       res.Model,
			Description: res.Description,
		})
	}

	return tableview.RenderForFormat(helper, outType, infos, func() error {
		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, []string{info.Name, strings.Join(info.Aliases, ", "), info.Endpoint, info.Description})
		}
		return tableview.Static(helper.GetStreams().Out, i18n.T("root.verbs.list.resources", "Resources"),
			[]string{"Name", "Aliases", "Endpoint", "Description"}, rows, "")
	})
}
