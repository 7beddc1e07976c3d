package del

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inventree/invctl/internal/cmd"
	jqoutput "github.com/inventree/invctl/internal/cmd/output/jq"
	"github.com/inventree/invctl/internal/cmd/output/tableview"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/meta"
	"github.com/inventree/invctl/internal/table"
	"github.com/inventree/invctl/internal/table/actions"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/inventree/invctl/internal/util/i18n"
	"github.com/inventree/invctl/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Delete

	ForceFlagName   = "force"
	ApproveFlagName = "approve"
	YesFlagName     = "yes"
)

var (
	deleteUse = Verb.String() + " <resource> <pk>..."

	deleteShort = i18n.T("root.verbs.delete.deleteShort", "Delete records")

	deleteLong = normalizers.LongDesc(i18n.T("root.verbs.delete.deleteLong",
		`Use delete to remove one or more records of a table with a single request.

Every record is retrieved first so the confirmation lists what will be removed.
The confirmation has two steps; --force skips the first and --yes skips both.`))

	deleteExamples = normalizers.Examples(i18n.T("root.verbs.delete.deleteExamples",
		fmt.Sprintf(`
		# Delete two stock items after confirming
		%[1]s delete stock 14 15
		# Delete a part without prompting
		%[1]s delete part 42 --yes
		`, meta.CLIName)))
)

// Result is the structured output of a delete.
type Result struct {
	Resource string   `json:"resource"`
	Deleted  []string `json:"deleted"`
}

func NewDeleteCmd() (*cobra.Command, error) {
	var force, approve bool

	c := &cobra.Command{
		Use:              deleteUse,
		Short:            deleteShort,
		Long:             deleteLong,
		Example:          deleteExamples,
		Aliases:          []string{"d", "del", "rm"},
		Args:             cobra.MinimumNArgs(2),
		PersistentPreRun: verbs.SetVerb(Verb),
		PreRunE: func(c *cobra.Command, args []string) error {
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			cmd.SetDeleteForce(c, force)
			cmd.SetDeleteAutoApprove(c, approve)
			return jqoutput.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}

	c.Flags().BoolVar(&force, ForceFlagName, false,
		i18n.T("root.verbs.delete."+ForceFlagName, "Skip the listing step of the confirmation (not configurable)"))
	c.Flags().BoolVarP(&approve, YesFlagName, "y", false,
		i18n.T("root.verbs.delete."+YesFlagName, "Skip confirmation prompts (not configurable)"))
	c.Flags().BoolVar(&approve, ApproveFlagName, false,
		i18n.T("root.verbs.delete."+ApproveFlagName, "Alias of --yes"))
	_ = c.Flags().MarkHidden(ApproveFlagName)
	jqoutput.AddFlags(c.Flags())

	return c, nil
}

func run(helper cmd.Helper) error {
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
	pks := unique(args[1:])
	if len(pks) == 0 {
		return &cmd.ConfigurationError{Err: fmt.Errorf("at least one primary key is required")}
	}
	records := make([]record.Record, 0, len(pks))
	items := make([]string, 0, len(pks))
	for _, pk := range pks {
		rec, err := s.Record(ctx, res, pk)
		if err != nil {
			return err
		}
		records = append(records, rec)
		items = append(items, describe(rec))
	}

	description := fmt.Sprintf("%s from %s", i18n.Count(len(records), "record", "records"), res.Name)
	if err := cmd.ConfirmDelete(helper, description, items); err != nil {
		return err
	}

	// Failures surface as the command error; the success notice is replaced by
	// the summary below.
	grid := s.Table(res, func(table.Notice) {})
	scope := grid.Scope()
	scope.Selected = records
	if err := grid.DeleteScope(ctx, scope); err != nil {
		var delErr *actions.DeleteError
		if errors.As(err, &delErr) {
			return cmd.PrepareExecutionErrorMsg(helper, delErr.Error(),
				"resource", res.Name, "status", delErr.StatusCode)
		}
		return cmd.PrepareExecutionErrorWithHelper(helper, "delete failed", err, "resource", res.Name)
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	result := Result{Resource: res.Name, Deleted: make([]string, 0, len(records))}
	for _, rec := range records {
		result.Deleted = append(result.Deleted, rec.PK())
	}
	return tableview.RenderForFormat(helper, outType, result, func() error {
		_, err := fmt.Fprintf(helper.GetStreams().Out, "Deleted %s\n", description)
		return err
	})
}

func describe(rec record.Record) string {
	name := strings.TrimSpace(rec.Display("name"))
	if name == "" {
		return rec.PK()
	}
	return rec.PK() + " " + name
}

func unique(pks []string) []string {
	seen := make(map[string]bool, len(pks))
	rv := make([]string, 0, len(pks))
	for _, pk := range pks {
		pk = strings.TrimSpace(pk)
		if pk == "" || seen[pk] {
			continue
		}
		seen[pk] = true
		rv = append(rv, pk)
	}
	return rv
}
